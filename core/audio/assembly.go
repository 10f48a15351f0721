package audio

import (
	"fmt"
	"time"
)

// DecodeError reports malformed synthesized audio. Segment is the 0-based
// index of the offending segment, or -1 when the problem is not tied to a
// single segment.
type DecodeError struct {
	Segment int
	Reason  string
}

func (e *DecodeError) Error() string {
	if e.Segment < 0 {
		return fmt.Sprintf("audio decode failed: %s", e.Reason)
	}
	return fmt.Sprintf("audio decode failed: segment %d: %s", e.Segment, e.Reason)
}

// Track is one playable channel produced by [Assemble]: normalized float
// samples in [-1, 1). A track belongs to the stage instance that built it
// and is dropped with it.
type Track struct {
	Samples  []float32
	Encoding EncodingInfo
}

func (t *Track) Duration() time.Duration {
	if t == nil || t.Encoding.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(len(t.Samples)) / float64(t.Encoding.SampleRate) * float64(time.Second))
}

// Assemble stitches independently synthesized PCM segments into a single
// track, inserting silence gaps between consecutive segments. Segments are
// laid out in the order given; callers joining a concurrent fan-out must
// hand them over in original part order. It is all-or-nothing: any
// malformed segment fails the whole assembly, no partial track is built.
func Assemble(segments [][]byte, silence time.Duration, encoding EncodingInfo) (*Track, error) {
	if encoding.IsZero() {
		encoding = GetDefaultEncodingInfo()
	}
	if encoding.Format != EncodingLinear16 {
		return nil, &DecodeError{Segment: -1, Reason: fmt.Sprintf("unsupported encoding %q", encoding.Format.Name())}
	}
	if len(segments) == 0 {
		return nil, &DecodeError{Segment: -1, Reason: "no segments to assemble"}
	}

	silenceBytes := encoding.BytesFor(silence.Seconds())
	pcm, err := concatenate(segments, silenceBytes)
	if err != nil {
		return nil, err
	}

	return &Track{Samples: normalize(pcm), Encoding: encoding}, nil
}

// concatenate lays the segments into one zero-initialized buffer, leaving
// silenceBytes untouched after every segment but the last. Linear16 silence
// is zero, so the gaps need no explicit write.
func concatenate(segments [][]byte, silenceBytes int) ([]byte, error) {
	total := 0
	for i, segment := range segments {
		if len(segment) == 0 || len(segment)%2 != 0 {
			return nil, &DecodeError{Segment: i, Reason: fmt.Sprintf("segment length %d is not a positive even byte count", len(segment))}
		}
		total += len(segment)
	}
	total += (len(segments) - 1) * silenceBytes

	out := make([]byte, total)
	offset := 0
	for i, segment := range segments {
		copy(out[offset:], segment)
		offset += len(segment)
		if i < len(segments)-1 {
			offset += silenceBytes
		}
	}

	return out, nil
}

// normalize reinterprets little-endian signed 16-bit samples as floats in
// [-1, 1) by dividing by 32768.
func normalize(pcm []byte) []float32 {
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		sample := int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
		samples[i] = float32(sample) / 32768
	}
	return samples
}
