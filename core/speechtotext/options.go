package speechtotext

import "github.com/anzegrcar/lingua-core/core/audio"

type TranscriptionOptions struct {
	EncodingInfo audio.EncodingInfo
	// Language hints the recognizer; defaults to en-US.
	Language string
}

type TranscriptionOption func(*TranscriptionOptions)

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}

func WithLanguage(language string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		if language != "" {
			o.Language = language
		}
	}
}
