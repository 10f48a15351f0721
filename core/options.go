package assessment

import (
	"context"
	"time"

	"github.com/anzegrcar/lingua-core/core/audio"
	"github.com/anzegrcar/lingua-core/core/llms"
	"github.com/anzegrcar/lingua-core/core/remote"
	"github.com/anzegrcar/lingua-core/core/speechtotext"
)

// ContentGenerator produces structured content and grades; satisfied by
// [groq.Client].
type ContentGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, out any, opts ...llms.StructuredPromptOption) error
}

// SpeechSynthesizer produces one raw PCM segment per call; satisfied by
// the deepgram and polly texttospeech clients.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	EncodingInfo() audio.EncodingInfo
}

// Transcriber turns a recorded speaking clip into text; satisfied by the
// deepgram speechtotext client.
type Transcriber interface {
	TranscribeClip(ctx context.Context, clip []byte, opts ...speechtotext.TranscriptionOption) (string, error)
}

// ResultSink receives the final session record. Submission is
// fire-and-forget: the session logs failures and never retries them.
type ResultSink interface {
	Submit(ctx context.Context, record ResultRecord) error
}

// PlaybackDevice is a one-channel PCM sink. Start begins pulling bytes
// through pull; pull returns how many bytes it wrote, the device plays
// silence for the remainder. One device instance belongs to one listening
// stage attempt and must be Closed with it.
type PlaybackDevice interface {
	Start(encoding audio.EncodingInfo, pull func(out []byte) int) error
	Stop() error
	Close() error
}

// DeviceFactory builds a fresh playback device per listening stage
// attempt, keeping device ownership aligned with stage lifetime.
type DeviceFactory func() (PlaybackDevice, error)

type SessionOption func(*Session)

func WithContentGenerator(generator ContentGenerator) SessionOption {
	return func(s *Session) { s.fetchers.generator = generator }
}

func WithSpeechSynthesizer(synthesizer SpeechSynthesizer) SessionOption {
	return func(s *Session) { s.fetchers.synthesizer = synthesizer }
}

func WithTranscriber(transcriber Transcriber) SessionOption {
	return func(s *Session) { s.fetchers.transcriber = transcriber }
}

func WithResultSink(sink ResultSink) SessionOption {
	return func(s *Session) { s.sink = sink }
}

func WithPlaybackDeviceFactory(factory DeviceFactory) SessionOption {
	return func(s *Session) { s.deviceFactory = factory }
}

// WithSilenceGap sets the pause inserted between listening script parts.
func WithSilenceGap(gap time.Duration) SessionOption {
	return func(s *Session) {
		if gap >= 0 {
			s.fetchers.silenceGap = gap
		}
	}
}

// WithRetryOptions overrides the retry budget applied to every remote
// call this session makes.
func WithRetryOptions(opts ...remote.Option) SessionOption {
	return func(s *Session) { s.fetchers.retryOpts = opts }
}

type RunOptions struct {
	onStageEntered func(Stage)
	onContentReady func(Stage)
	onStageError   func(Stage, error)
}

type RunOption func(*RunOptions)

// WithStageEnteredCallback fires on every state transition, including the
// restart back to home.
func WithStageEnteredCallback(callback func(Stage)) RunOption {
	return func(o *RunOptions) {
		if callback != nil {
			o.onStageEntered = callback
		}
	}
}

// WithContentReadyCallback fires when the current stage's content
// resolves, whether it came from the preload cache or a foreground fetch.
func WithContentReadyCallback(callback func(Stage)) RunOption {
	return func(o *RunOptions) {
		if callback != nil {
			o.onContentReady = callback
		}
	}
}

// WithStageErrorCallback fires when the current stage's fetch fails after
// the executor's retries are exhausted. The stage stays put until
// [Session.RetryStage] or [Session.Restart].
func WithStageErrorCallback(callback func(Stage, error)) RunOption {
	return func(o *RunOptions) {
		if callback != nil {
			o.onStageError = callback
		}
	}
}
