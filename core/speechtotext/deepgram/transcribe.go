// Package deepgram transcribes a recorded speaking clip in one shot over
// the Deepgram listen REST endpoint. The transcript feeds the speaking
// evaluation; live streaming transcription is out of scope here.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/anzegrcar/lingua-core/core/audio"
	"github.com/anzegrcar/lingua-core/core/speechtotext"
	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/rest/interfaces"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const listenURL = "https://api.deepgram.com/v1/listen"

type TranscriptionClient struct {
	url        string
	httpClient *http.Client
}

type TranscriptionClientOption func(*TranscriptionClient)

// WithListenURL points the client at a different listen endpoint, mostly
// useful against a local test server.
func WithListenURL(url string) TranscriptionClientOption {
	return func(c *TranscriptionClient) {
		if url != "" {
			c.url = url
		}
	}
}

func NewTranscriptionClient(opts ...TranscriptionClientOption) *TranscriptionClient {
	client := &TranscriptionClient{
		url:        listenURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// TranscribeClip sends one raw PCM clip and returns the best transcript.
func (c *TranscriptionClient) TranscribeClip(ctx context.Context, clip []byte, opts ...speechtotext.TranscriptionOption) (string, error) {
	options := speechtotext.TranscriptionOptions{
		EncodingInfo: audio.GetDefaultEncodingInfo(),
		Language:     "en-US",
	}
	for _, opt := range opts {
		opt(&options)
	}

	if len(clip) == 0 {
		return "", fmt.Errorf("empty audio clip")
	}

	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return "", fmt.Errorf("deepgram api key not found")
	}

	listenUrl, _ := url.Parse(c.url)
	queryParams := listenUrl.Query()
	queryParams.Set("encoding", options.EncodingInfo.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(options.EncodingInfo.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", "nova-3")
	queryParams.Set("language", options.Language)
	queryParams.Set("smart_format", "true")
	listenUrl.RawQuery = queryParams.Encode()

	req, err := http.NewRequestWithContext(ctx, "POST", listenUrl.String(), bytes.NewReader(clip))
	if err != nil {
		return "", fmt.Errorf("failed to create transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("non-OK HTTP status: %s: %s", resp.Status, string(body))
	}

	var response api.PreRecordedResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to parse transcription response: %w", err)
	}

	if response.Results == nil ||
		len(response.Results.Channels) == 0 ||
		len(response.Results.Channels[0].Alternatives) == 0 {
		return "", fmt.Errorf("transcription response contains no alternatives")
	}

	return response.Results.Channels[0].Alternatives[0].Transcript, nil
}
