//go:build cgo

package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	assessment "github.com/anzegrcar/lingua-core/core"
	"github.com/anzegrcar/lingua-core/core/audio/miniaudio"
	"github.com/anzegrcar/lingua-core/core/llms/groq"
	deepgramstt "github.com/anzegrcar/lingua-core/core/speechtotext/deepgram"
	deepgramtts "github.com/anzegrcar/lingua-core/core/texttospeech/deepgram"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	generator, err := groq.NewClient("")
	if err != nil {
		return fmt.Errorf("failed to create content generator: %w", err)
	}

	synthesizer, err := deepgramtts.NewClient(deepgramtts.VoiceAsteriaEN)
	if err != nil {
		return fmt.Errorf("failed to create speech synthesizer: %w", err)
	}

	opts := []assessment.SessionOption{
		assessment.WithContentGenerator(generator),
		assessment.WithSpeechSynthesizer(synthesizer),
		assessment.WithTranscriber(deepgramstt.NewTranscriptionClient()),
		assessment.WithPlaybackDeviceFactory(func() (assessment.PlaybackDevice, error) {
			return miniaudio.NewClient(), nil
		}),
	}
	if url := os.Getenv("RESULTS_WEBHOOK_URL"); url != "" {
		opts = append(opts, assessment.WithResultSink(assessment.NewWebhookSink(url)))
	}

	session := assessment.NewSession(opts...)
	defer session.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	program := tea.NewProgram(newModel(ctx, session), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run program: %w", err)
	}

	return nil
}
