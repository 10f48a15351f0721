// Package content holds the generated assessment material and its
// structural invariants. Instances are immutable once fetched; a retry
// always produces a brand-new instance.
package content

import (
	"fmt"

	"github.com/google/uuid"
)

// Question is one multiple-choice question. Answer indexes into Options.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt" jsonschema:"description=The question text"`
	Options []string `json:"options" jsonschema:"description=Answer choices in display order"`
	Answer  int      `json:"answer" jsonschema:"description=Index of the correct option"`
}

// TestPart is one passage or script section with its questions.
type TestPart struct {
	ID        string     `json:"id"`
	Type      string     `json:"type" jsonschema:"description=Part label such as passage or dialogue"`
	Text      string     `json:"text"`
	Questions []Question `json:"questions"`
}

type ReadingContent struct {
	Parts []TestPart `json:"parts"`
}

type ListeningContent struct {
	Parts []TestPart `json:"parts"`
}

type WritingTask struct {
	Topic        string `json:"topic"`
	Instructions string `json:"instructions"`
}

type SpeakingTask struct {
	Topic        string `json:"topic"`
	Instructions string `json:"instructions"`
}

// Evaluation is the graded outcome of a writing or speaking submission.
type Evaluation struct {
	Score       int      `json:"score" jsonschema:"description=Overall score from 0 to 100"`
	Feedback    string   `json:"feedback"`
	Corrections []string `json:"corrections,omitempty"`
}

// EnsureIDs fills in ids the provider left blank. Generation models are
// unreliable about echoing id fields back, so blank ids are expected and
// not a validation failure.
func EnsureIDs(parts []TestPart) {
	for i := range parts {
		if parts[i].ID == "" {
			parts[i].ID = uuid.NewString()
		}
		for j := range parts[i].Questions {
			if parts[i].Questions[j].ID == "" {
				parts[i].Questions[j].ID = uuid.NewString()
			}
		}
	}
}

// ValidateParts checks the structural invariants of a generated content
// instance: at least one part, every part questioned, every answer index
// in bounds, question ids unique across the whole instance. Call
// [EnsureIDs] first.
func ValidateParts(parts []TestPart) error {
	if len(parts) == 0 {
		return fmt.Errorf("content has no parts")
	}

	seen := map[string]struct{}{}
	for i, part := range parts {
		if len(part.Questions) == 0 {
			return fmt.Errorf("part %d has no questions", i)
		}
		for j, question := range part.Questions {
			if len(question.Options) == 0 {
				return fmt.Errorf("part %d question %d has no options", i, j)
			}
			if question.Answer < 0 || question.Answer >= len(question.Options) {
				return fmt.Errorf("part %d question %d answer index %d out of bounds (%d options)",
					i, j, question.Answer, len(question.Options))
			}
			if _, dup := seen[question.ID]; dup {
				return fmt.Errorf("duplicate question id %q", question.ID)
			}
			seen[question.ID] = struct{}{}
		}
	}

	return nil
}

// ValidateEvaluation bounds-checks a grading result.
func ValidateEvaluation(evaluation Evaluation) error {
	if evaluation.Score < 0 || evaluation.Score > 100 {
		return fmt.Errorf("evaluation score %d outside [0, 100]", evaluation.Score)
	}
	return nil
}
