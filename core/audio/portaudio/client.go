//go:build cgo

// Package portaudio is an alternate playback backend for systems where
// miniaudio misbehaves.
package portaudio

import (
	"fmt"
	"sync"

	"github.com/anzegrcar/lingua-core/core/audio"
	"github.com/gordonklaus/portaudio"
)

const defaultBufferSize = 1024

type Client struct {
	mu sync.Mutex

	bufferSize int
	stream     *portaudio.Stream
}

func NewClient() (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	return &Client{bufferSize: defaultBufferSize}, nil
}

func (c *Client) Start(encodingInfo audio.EncodingInfo, pull func(out []byte) int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		_ = c.stream.Stop()
		_ = c.stream.Close()
		c.stream = nil
	}

	buffer := make([]byte, c.bufferSize*2)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(encodingInfo.SampleRate), c.bufferSize,
		func(out []int16) {
			n := pull(buffer[:len(out)*2])
			for i := range out {
				if 2*i+1 < n {
					out[i] = int16(uint16(buffer[2*i]) | uint16(buffer[2*i+1])<<8)
				} else {
					out[i] = 0
				}
			}
		})
	if err != nil {
		return fmt.Errorf("failed to open portaudio stream: %w", err)
	}
	c.stream = stream

	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	return nil
}

func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return fmt.Errorf("stream not initialized")
	}

	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop portaudio stream: %w", err)
	}

	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		_ = c.stream.Close()
		c.stream = nil
	}
	portaudio.Terminate()

	return nil
}
