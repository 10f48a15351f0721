// Package polly is an alternate speech synthesizer backed by Amazon
// Polly. Polly serves raw PCM at 16 kHz, so tracks built from it carry
// their own encoding info rather than the 24 kHz default.
package polly

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/anzegrcar/lingua-core/core/audio"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"
)

// pcmSampleRate is the highest raw-PCM rate Polly offers.
const pcmSampleRate = 16000

type Client struct {
	client *polly.Client
	voice  pollytypes.VoiceId
	engine pollytypes.Engine
}

type ClientOption func(*Client)

func WithVoice(voice string) ClientOption {
	return func(c *Client) {
		if voice != "" {
			c.voice = pollytypes.VoiceId(voice)
		}
	}
}

func WithStandardEngine() ClientOption {
	return func(c *Client) { c.engine = pollytypes.EngineStandard }
}

func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := &Client{
		client: polly.NewFromConfig(cfg),
		voice:  pollytypes.VoiceIdJoanna,
		engine: pollytypes.EngineNeural,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{SampleRate: pcmSampleRate, Format: audio.EncodingLinear16}
}

func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	sampleRate := strconv.Itoa(pcmSampleRate)
	output, err := c.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Engine:       c.engine,
		OutputFormat: pollytypes.OutputFormatPcm,
		SampleRate:   &sampleRate,
		Text:         &text,
		TextType:     pollytypes.TextTypeText,
		VoiceId:      c.voice,
	})
	if err != nil {
		return nil, normalizeError(err)
	}
	if output == nil || output.AudioStream == nil {
		return nil, fmt.Errorf("polly returned no audio stream")
	}
	defer output.AudioStream.Close()

	segment, err := io.ReadAll(output.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("failed to read polly audio stream: %w", err)
	}
	if len(segment) == 0 {
		return nil, fmt.Errorf("polly returned empty audio")
	}

	return segment, nil
}

// normalizeError restates throttling and availability failures in terms
// the retry classifier recognizes; Polly's error codes alone carry no
// status digits.
func normalizeError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "TooManyRequestsException":
			return fmt.Errorf("polly throttled (429): %w", err)
		case "ServiceUnavailableException", "ServiceFailureException":
			return fmt.Errorf("polly unavailable: %w", err)
		}
	}
	return fmt.Errorf("polly synthesis failed: %w", err)
}
