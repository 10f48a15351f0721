// Package deepgram synthesizes one speech segment per call over the
// Deepgram speak websocket. Each segment is an independent connection:
// send the text, flush, collect raw linear16 frames until the service
// reports the flush completed.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strconv"

	"github.com/anzegrcar/lingua-core/core/audio"
	"github.com/anzegrcar/lingua-core/core/texttospeech"
	"github.com/gorilla/websocket"
)

type Client struct {
	voice        deepgramVoice
	encodingInfo audio.EncodingInfo
}

func NewClient(voice deepgramVoice, opts ...texttospeech.SynthesisOption) (*Client, error) {
	options := texttospeech.SynthesisOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}

	client := &Client{voice: defaultVoice, encodingInfo: options.EncodingInfo}

	if voice != "" {
		if !slices.Contains(GetAvailableVoices(), voice) {
			return nil, fmt.Errorf("invalid voice")
		}
		client.voice = voice
	}

	return client, nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo { return c.encodingInfo }

// Synthesize turns text into one raw PCM segment. It blocks until the
// service has flushed all audio for the text, and returns nothing on
// failure; callers retry the whole segment.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	conn, err := connectWebsocket(ctx, c.voice, c.encodingInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to open websocket: %w", err)
	}
	defer conn.Close()

	for _, msg := range []any{sendTextMsg(text), flushMsg, closeMsg} {
		if err := conn.WriteJSON(msg); err != nil {
			return nil, fmt.Errorf("failed to write to deepgram socket: %w", err)
		}
	}

	// Fail the read loop if the caller gives up while we are draining.
	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stopWatch:
		}
	}()

	segment := []byte{}
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) && len(segment) > 0 {
				return segment, nil
			}
			return nil, fmt.Errorf("websocket read failed before flush completed: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			segment = append(segment, msg...)
		case websocket.TextMessage:
			var parsedMsg websocketMessage
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				if len(segment) == 0 {
					return nil, fmt.Errorf("deepgram flushed without producing audio")
				}
				return segment, nil
			case "Error":
				return nil, fmt.Errorf("deepgram reported an error: %s", string(msg))
			}
		}
	}
}

func connectWebsocket(ctx context.Context, voice deepgramVoice, encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	urlValues := url.Values{}
	urlValues.Set("encoding", encodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", string(voice))
	urlValues.Set("container", "none")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx,
		(&url.URL{
			Scheme: "wss",
			Host:   "api.deepgram.com", Path: "/v1/speak",
			RawQuery: urlValues.Encode(),
		}).String(),
		http.Header{"Authorization": {"token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

type websocketMessage struct {
	Type string `json:"type"`
}

var (
	sendTextMsg = func(text string) struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} {
		return struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{Type: "Speak", Text: text}
	}
	flushMsg = websocketMessage{Type: "Flush"}
	closeMsg = websocketMessage{Type: "Close"}
)
