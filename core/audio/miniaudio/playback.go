//go:build cgo

// Package miniaudio is the default playback backend, feeding assembled
// listening tracks to the system output device through malgo.
package miniaudio

import (
	"fmt"
	"sync"

	"github.com/anzegrcar/lingua-core/core/audio"
	"github.com/gen2brain/malgo"
)

type Client struct {
	mu sync.Mutex

	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig
}

func NewClient() *Client {
	return &Client{}
}

// Start lazily allocates the audio context on first use, replaces any
// existing device and begins pulling bytes through pull. pull runs on the
// audio thread; whatever it does not fill is played as silence.
func (c *Client) Start(encodingInfo audio.EncodingInfo, pull func(out []byte) int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.audioContext == nil {
		audioContext, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize audio context: %w", err)
		}
		c.audioContext = audioContext
	}

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}

	sampleRate := uint32(encodingInfo.SampleRate)
	channels := 1
	format := malgo.FormatS16

	c.config = malgo.DefaultDeviceConfig(malgo.Playback)
	c.config.SampleRate = sampleRate
	c.config.Playback.Format = format
	c.config.Playback.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	c.config.Periods = 4

	device, err := malgo.InitDevice(
		c.audioContext.Context,
		c.config,
		malgo.DeviceCallbacks{Data: func(pOutput, _ []byte, frameCount uint32) {
			n := pull(pOutput)
			for i := n; i < len(pOutput); i++ {
				pOutput[i] = encodingInfo.SilenceValue()
			}
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	c.device = device

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	return nil
}

func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop playback device: %w", err)
	}

	return nil
}

// Close releases the device and the audio context. The client cannot be
// restarted afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}

	if c.audioContext != nil {
		if err := c.audioContext.Uninit(); err != nil {
			c.audioContext.Free()
			c.audioContext = nil
			return fmt.Errorf("failed to uninitialize audio context: %w", err)
		}
		c.audioContext.Free()
		c.audioContext = nil
	}

	return nil
}
