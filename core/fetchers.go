package assessment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anzegrcar/lingua-core/core/audio"
	"github.com/anzegrcar/lingua-core/core/content"
	"github.com/anzegrcar/lingua-core/core/llms"
	"github.com/anzegrcar/lingua-core/core/remote"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	partsPerSection  = 2
	questionsPerPart = 3

	readingPartWords   = 150
	listeningPartWords = 80

	defaultSilenceGap = 700 * time.Millisecond
)

const generatorInstructions = "You are an English language proficiency examiner. " +
	"Produce well-formed assessment material at an intermediate (B1-B2) level. " +
	"Respond with JSON matching the requested schema exactly."

// listeningPayload is everything a listening stage attempt needs: the
// script with its questions and the already assembled track. Built as one
// unit so a failed synthesis or decode never leaves a partial track.
type listeningPayload struct {
	Content *content.ListeningContent
	Track   *audio.Track
}

// fetchers composes the content generation, synthesis and transcription
// clients under the retry executor. Every remote call goes through
// [remote.Do] individually.
type fetchers struct {
	generator   ContentGenerator
	synthesizer SpeechSynthesizer
	transcriber Transcriber

	silenceGap time.Duration
	retryOpts  []remote.Option
}

func (f *fetchers) generate(ctx context.Context, prompt string, out any) error {
	if f.generator == nil {
		return fmt.Errorf("no content generator configured")
	}

	_, err := remote.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, f.generator.GenerateJSON(ctx, prompt, out,
			llms.WithInstructions(generatorInstructions))
	}, f.retryOpts...)
	return err
}

func (f *fetchers) fetchReading(ctx context.Context) (*content.ReadingContent, error) {
	ctx, span := tracer.Start(ctx, "fetch reading content")
	defer span.End()

	prompt := fmt.Sprintf(
		"Generate a reading comprehension test with %d parts. Each part has a ~%d word passage "+
			"and %d multiple-choice questions with 4 options each. Set each question's answer "+
			"field to the index of the correct option.",
		partsPerSection, readingPartWords, questionsPerPart)

	reading := content.ReadingContent{}
	if err := f.generate(ctx, prompt, &reading); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	content.EnsureIDs(reading.Parts)
	if err := content.ValidateParts(reading.Parts); err != nil {
		err = fmt.Errorf("generated reading content is malformed: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &reading, nil
}

// fetchListening generates the script, then synthesizes every part
// concurrently. The fan-out joins on all parts: one exhausted retry
// budget fails the whole fetch, and segments are assembled in script
// order no matter which synthesis finished first.
func (f *fetchers) fetchListening(ctx context.Context) (*listeningPayload, error) {
	ctx, span := tracer.Start(ctx, "fetch listening content")
	defer span.End()

	if f.synthesizer == nil {
		return nil, fmt.Errorf("no speech synthesizer configured")
	}

	prompt := fmt.Sprintf(
		"Generate a listening comprehension test with %d parts. Each part has a ~%d word "+
			"monologue or dialogue script and %d multiple-choice questions with 4 options each. "+
			"Set each question's answer field to the index of the correct option. "+
			"The text field must contain only speakable words, no stage directions.",
		partsPerSection, listeningPartWords, questionsPerPart)

	listening := content.ListeningContent{}
	if err := f.generate(ctx, prompt, &listening); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	content.EnsureIDs(listening.Parts)
	if err := content.ValidateParts(listening.Parts); err != nil {
		err = fmt.Errorf("generated listening content is malformed: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	segments := make([][]byte, len(listening.Parts))
	errs := make([]error, len(listening.Parts))
	wg := sync.WaitGroup{}
	for i, part := range listening.Parts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			segments[i], errs[i] = remote.Do(ctx, func(ctx context.Context) ([]byte, error) {
				return f.synthesizer.Synthesize(ctx, text)
			}, f.retryOpts...)
		}(i, part.Text)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			err = fmt.Errorf("failed to synthesize part %d: %w", i, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	track, err := audio.Assemble(segments, f.silenceGap, f.synthesizer.EncodingInfo())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("listening.parts", len(listening.Parts)),
		attribute.Float64("listening.track_seconds", track.Duration().Seconds()),
	)
	return &listeningPayload{Content: &listening, Track: track}, nil
}

func (f *fetchers) fetchWriting(ctx context.Context) (*content.WritingTask, error) {
	ctx, span := tracer.Start(ctx, "fetch writing task")
	defer span.End()

	task := content.WritingTask{}
	err := f.generate(ctx,
		"Generate a writing task: a topic and instructions asking for a 120-180 word "+
			"response. Pick an everyday topic a language learner can argue about.",
		&task)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if task.Topic == "" || task.Instructions == "" {
		err := fmt.Errorf("generated writing task is missing topic or instructions")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &task, nil
}

func (f *fetchers) fetchSpeaking(ctx context.Context) (*content.SpeakingTask, error) {
	ctx, span := tracer.Start(ctx, "fetch speaking task")
	defer span.End()

	task := content.SpeakingTask{}
	err := f.generate(ctx,
		"Generate a speaking task: a topic and instructions asking for a 60-90 second "+
			"spoken answer. Pick an everyday topic that invites a personal opinion.",
		&task)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if task.Topic == "" || task.Instructions == "" {
		err := fmt.Errorf("generated speaking task is missing topic or instructions")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &task, nil
}
