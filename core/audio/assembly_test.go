package audio

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestConcatenateLaysSegmentsAroundZeroFilledGaps(t *testing.T) {
	a := []byte{1, 2, 3, 4}
	b := []byte{5, 6}
	c := []byte{7, 8, 9, 10, 11, 12}
	silence := 4

	out, err := concatenate([][]byte{a, b, c}, silence)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := len(a) + len(b) + len(c) + 2*silence; len(out) != want {
		t.Fatalf("expected output length %d, got %d", want, len(out))
	}
	if !bytes.Equal(out[:len(a)], a) {
		t.Fatal("first segment bytes differ")
	}
	if !bytes.Equal(out[len(a)+silence:len(a)+silence+len(b)], b) {
		t.Fatal("second segment bytes differ")
	}
	if !bytes.Equal(out[len(a)+len(b)+2*silence:], c) {
		t.Fatal("third segment bytes differ")
	}

	for _, gap := range [][]byte{
		out[len(a) : len(a)+silence],
		out[len(a)+silence+len(b) : len(a)+len(b)+2*silence],
	} {
		for i, v := range gap {
			if v != 0 {
				t.Fatalf("expected all-zero silence gap, byte %d is %d", i, v)
			}
		}
	}
}

func TestConcatenateSingleSegmentHasNoGap(t *testing.T) {
	segment := []byte{1, 2, 3, 4}
	out, err := concatenate([][]byte{segment}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(out, segment) {
		t.Fatalf("expected single segment to pass through unchanged, got %v", out)
	}
}

func TestConcatenateRejectsMalformedSegments(t *testing.T) {
	for name, segments := range map[string][][]byte{
		"odd length": {{1, 2}, {3, 4, 5}},
		"empty":      {{1, 2}, {}},
	} {
		if _, err := concatenate(segments, 2); err == nil {
			t.Fatalf("%s: expected decode error", name)
		} else {
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("%s: expected *DecodeError, got %T", name, err)
			}
			if decodeErr.Segment != 1 {
				t.Fatalf("%s: expected offending segment 1, got %d", name, decodeErr.Segment)
			}
		}
	}
}

func TestNormalizeEndpoints(t *testing.T) {
	// -32768, 0 and 32767 as little-endian int16.
	pcm := []byte{0x00, 0x80, 0x00, 0x00, 0xFF, 0x7F}
	samples := normalize(pcm)
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if samples[0] != -1.0 {
		t.Fatalf("expected -32768 to decode to -1.0, got %f", samples[0])
	}
	if samples[1] != 0.0 {
		t.Fatalf("expected 0 to decode to 0.0, got %f", samples[1])
	}
	if samples[2] >= 1.0 || samples[2] <= 0.999 {
		t.Fatalf("expected 32767 to decode just below 1.0, got %f", samples[2])
	}
}

func TestAssembleFailsWithoutSegments(t *testing.T) {
	if _, err := Assemble(nil, time.Second, GetDefaultEncodingInfo()); err == nil {
		t.Fatal("expected assembling zero segments to fail")
	}
}

func TestAssembleBuildsTrackWithSilenceBetweenParts(t *testing.T) {
	encoding := EncodingInfo{SampleRate: 10, Format: EncodingLinear16}
	segments := [][]byte{
		{0x00, 0x80, 0x00, 0x80}, // two full-scale negative samples
		{0xFF, 0x7F},             // one max positive sample
	}

	track, err := Assemble(segments, time.Second, encoding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2 + 10 (silence) + 1 samples.
	if len(track.Samples) != 13 {
		t.Fatalf("expected 13 samples, got %d", len(track.Samples))
	}
	for i := 2; i < 12; i++ {
		if track.Samples[i] != 0 {
			t.Fatalf("expected silence at sample %d, got %f", i, track.Samples[i])
		}
	}
	if track.Duration() != 1300*time.Millisecond {
		t.Fatalf("expected 1.3s duration, got %v", track.Duration())
	}
}

func TestAssembleRejectsNonLinear16Encodings(t *testing.T) {
	_, err := Assemble([][]byte{{1, 2}}, 0, EncodingInfo{SampleRate: 8000, Format: EncodingMulaw})
	if err == nil {
		t.Fatal("expected unsupported encoding to fail")
	}
}

func TestBytesForWholeSamples(t *testing.T) {
	encoding := EncodingInfo{SampleRate: 24000, Format: EncodingLinear16}
	if got := encoding.BytesFor(0.7); got != 33600 {
		t.Fatalf("expected 33600 bytes for 0.7s at 24kHz linear16, got %d", got)
	}
}
