package deepgram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anzegrcar/lingua-core/core/audio"
	"github.com/anzegrcar/lingua-core/core/speechtotext"
)

func TestTranscribeClipReturnsBestAlternative(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "test-key")

	var query map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		if got := r.Header.Get("Authorization"); got != "Token test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":"hello there"}]}]}}`))
	}))
	defer server.Close()

	client := NewTranscriptionClient(WithListenURL(server.URL))
	transcript, err := client.TranscribeClip(context.Background(), []byte{1, 2, 3, 4},
		speechtotext.WithEncodingInfo(audio.EncodingInfo{SampleRate: 16000, Format: audio.EncodingLinear16}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transcript != "hello there" {
		t.Fatalf("unexpected transcript %q", transcript)
	}
	if got := query["sample_rate"]; len(got) != 1 || got[0] != "16000" {
		t.Fatalf("expected sample_rate=16000, got %v", query["sample_rate"])
	}
	if got := query["encoding"]; len(got) != 1 || got[0] != "linear16" {
		t.Fatalf("expected encoding=linear16, got %v", query["encoding"])
	}
}

func TestTranscribeClipRejectsEmptyClip(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "test-key")

	client := NewTranscriptionClient()
	if _, err := client.TranscribeClip(context.Background(), nil); err == nil {
		t.Fatal("expected empty clip to fail")
	}
}

func TestTranscribeClipSurfacesStatusLine(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "test-key")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewTranscriptionClient(WithListenURL(server.URL))
	_, err := client.TranscribeClip(context.Background(), []byte{1, 2})
	if err == nil {
		t.Fatal("expected 503 to fail")
	}
}
