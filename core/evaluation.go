package assessment

import (
	"context"
	"fmt"

	"github.com/anzegrcar/lingua-core/core/audio"
	"github.com/anzegrcar/lingua-core/core/content"
	"github.com/anzegrcar/lingua-core/core/remote"
	"github.com/anzegrcar/lingua-core/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SpeakingSubmission is the graded artifact of the speaking stage: either
// free text or a recorded clip, never both. Construct it with
// [SpokenText] or [SpokenClip].
type SpeakingSubmission struct {
	text     string
	clip     []byte
	encoding audio.EncodingInfo
	isClip   bool
}

func SpokenText(text string) SpeakingSubmission {
	return SpeakingSubmission{text: text}
}

func SpokenClip(clip []byte, encoding audio.EncodingInfo) SpeakingSubmission {
	return SpeakingSubmission{clip: clip, encoding: encoding, isClip: true}
}

func (f *fetchers) evaluateWriting(ctx context.Context, task *content.WritingTask, response string) (*content.Evaluation, error) {
	ctx, span := tracer.Start(ctx, "evaluate writing submission")
	defer span.End()

	if task == nil {
		return nil, fmt.Errorf("no writing task to evaluate against")
	}
	if response == "" {
		return nil, fmt.Errorf("empty writing response")
	}

	evaluation, err := f.evaluateText(ctx, "writing", task.Topic, task.Instructions, response)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("evaluation.score", evaluation.Score))
	return evaluation, nil
}

// evaluateSpeaking grades a speaking submission. A recorded clip is first
// transcribed, then graded as text; both hops run under their own retry
// budget.
func (f *fetchers) evaluateSpeaking(ctx context.Context, task *content.SpeakingTask, submission SpeakingSubmission) (*content.Evaluation, error) {
	ctx, span := tracer.Start(ctx, "evaluate speaking submission")
	defer span.End()

	if task == nil {
		return nil, fmt.Errorf("no speaking task to evaluate against")
	}

	response := submission.text
	if submission.isClip {
		if f.transcriber == nil {
			return nil, fmt.Errorf("no transcriber configured for audio submissions")
		}
		if len(submission.clip) == 0 {
			return nil, fmt.Errorf("empty audio clip")
		}

		transcript, err := remote.Do(ctx, func(ctx context.Context) (string, error) {
			return f.transcriber.TranscribeClip(ctx, submission.clip,
				speechtotext.WithEncodingInfo(submission.encoding))
		}, f.retryOpts...)
		if err != nil {
			err = fmt.Errorf("failed to transcribe speaking clip: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		span.SetAttributes(attribute.Bool("evaluation.from_audio", true))
		response = transcript
	}

	if response == "" {
		return nil, fmt.Errorf("empty speaking response")
	}

	evaluation, err := f.evaluateText(ctx, "speaking", task.Topic, task.Instructions, response)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("evaluation.score", evaluation.Score))
	return evaluation, nil
}

func (f *fetchers) evaluateText(ctx context.Context, kind, topic, instructions, response string) (*content.Evaluation, error) {
	prompt := fmt.Sprintf(
		"Grade this %s submission for an English proficiency test.\n"+
			"Task topic: %s\nTask instructions: %s\n\nSubmission:\n%s\n\n"+
			"Score it 0-100, give short feedback, and list concrete corrections if any.",
		kind, topic, instructions, response)

	evaluation := content.Evaluation{}
	if err := f.generate(ctx, prompt, &evaluation); err != nil {
		return nil, err
	}
	if err := content.ValidateEvaluation(evaluation); err != nil {
		return nil, fmt.Errorf("generated evaluation is malformed: %w", err)
	}

	return &evaluation, nil
}
