package assessment

import (
	"fmt"
	"sync"

	"github.com/anzegrcar/lingua-core/core/audio"
)

// TrackPlayer plays one assembled listening track through a
// [PlaybackDevice]. It enforces a single active source: Play while
// something is playing stops the previous source first. The device is
// started lazily on the first Play and must be released with Close when
// the owning stage is torn down, whether the stage completed or was
// abandoned mid-playback.
type TrackPlayer struct {
	mu sync.Mutex

	device PlaybackDevice
	track  *audio.Track

	// position is the next sample to feed, in samples.
	position int
	playing  bool
	paused   bool
	closed   bool

	deviceStarted bool

	// generation increments per Play so a source that drained after
	// being replaced cannot fire a stale completion.
	generation int
	ended      bool

	onEnded func()
}

func newTrackPlayer(device PlaybackDevice, track *audio.Track) *TrackPlayer {
	return &TrackPlayer{
		device:  device,
		track:   track,
		onEnded: func() {},
	}
}

// SetOnEnded registers the playback-completion callback. It fires exactly
// once per Play that reaches the end of the track, never for Stop.
func (p *TrackPlayer) SetOnEnded(callback func()) {
	if p == nil || callback == nil {
		return
	}

	p.mu.Lock()
	p.onEnded = callback
	p.mu.Unlock()
}

func (p *TrackPlayer) IsPlaying() bool {
	if p == nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing && !p.paused
}

func (p *TrackPlayer) Duration() float64 {
	if p == nil {
		return 0
	}
	return p.track.Duration().Seconds()
}

// Play starts the track from the beginning, replacing any active source.
func (p *TrackPlayer) Play() error {
	if p == nil {
		return nil
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return fmt.Errorf("track player is closed")
	}

	p.position = 0
	p.playing = true
	p.paused = false
	p.ended = false
	p.generation++

	started := p.deviceStarted
	p.mu.Unlock()

	if started {
		return nil
	}

	if err := p.device.Start(p.track.Encoding, p.pull); err != nil {
		p.mu.Lock()
		p.playing = false
		p.mu.Unlock()
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	p.mu.Lock()
	p.deviceStarted = true
	p.mu.Unlock()
	return nil
}

func (p *TrackPlayer) Pause() {
	if p == nil {
		return
	}

	p.mu.Lock()
	if p.playing {
		p.paused = true
	}
	p.mu.Unlock()
}

func (p *TrackPlayer) Resume() {
	if p == nil {
		return
	}

	p.mu.Lock()
	if p.playing {
		p.paused = false
	}
	p.mu.Unlock()
}

// Stop halts playback and rewinds. The completion callback does not fire.
func (p *TrackPlayer) Stop() {
	if p == nil {
		return
	}

	p.mu.Lock()
	p.playing = false
	p.paused = false
	p.position = 0
	p.generation++
	p.mu.Unlock()
}

// Close stops playback and releases the device. Idempotent.
func (p *TrackPlayer) Close() error {
	if p == nil {
		return nil
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.playing = false
	p.generation++
	started := p.deviceStarted
	p.deviceStarted = false
	p.mu.Unlock()

	if !started {
		return p.device.Close()
	}

	if err := p.device.Stop(); err != nil {
		_ = p.device.Close()
		return fmt.Errorf("failed to stop playback device: %w", err)
	}
	if err := p.device.Close(); err != nil {
		return fmt.Errorf("failed to close playback device: %w", err)
	}

	return nil
}

// pull feeds the device. It runs on the device's audio thread; keep it
// short and never call back into the device from here.
func (p *TrackPlayer) pull(out []byte) int {
	p.mu.Lock()

	if !p.playing || p.paused || p.closed {
		p.mu.Unlock()
		return 0
	}

	samples := p.track.Samples
	written := 0
	for written+1 < len(out) && p.position < len(samples) {
		sample := denormalize(samples[p.position])
		out[written] = byte(uint16(sample))
		out[written+1] = byte(uint16(sample) >> 8)
		written += 2
		p.position++
	}

	finished := p.position >= len(samples) && !p.ended
	var onEnded func()
	if finished {
		p.ended = true
		p.playing = false
		p.position = 0
		onEnded = p.onEnded
	}
	p.mu.Unlock()

	if finished {
		go onEnded()
	}
	return written
}

// denormalize maps a [-1, 1) float sample back to signed 16-bit PCM,
// clamping anything out of range.
func denormalize(sample float32) int16 {
	scaled := sample * 32768
	if scaled > 32767 {
		return 32767
	}
	if scaled < -32768 {
		return -32768
	}
	return int16(scaled)
}
