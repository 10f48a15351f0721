package content

import (
	"strings"
	"testing"
)

func validParts() []TestPart {
	return []TestPart{
		{
			ID:   "p1",
			Type: "passage",
			Text: "A short passage.",
			Questions: []Question{
				{ID: "q1", Prompt: "First?", Options: []string{"a", "b", "c"}, Answer: 0},
				{ID: "q2", Prompt: "Second?", Options: []string{"a", "b"}, Answer: 1},
			},
		},
		{
			ID:   "p2",
			Type: "dialogue",
			Text: "A short dialogue.",
			Questions: []Question{
				{ID: "q3", Prompt: "Third?", Options: []string{"a", "b", "c", "d"}, Answer: 3},
			},
		},
	}
}

func TestValidatePartsAcceptsWellFormedContent(t *testing.T) {
	if err := ValidateParts(validParts()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidatePartsRejectsAnswerOutOfBounds(t *testing.T) {
	parts := validParts()
	parts[1].Questions[0].Answer = 4
	err := ValidateParts(parts)
	if err == nil {
		t.Fatal("expected out-of-bounds answer to fail")
	}
	if !strings.Contains(err.Error(), "out of bounds") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidatePartsRejectsDuplicateQuestionIDsAcrossParts(t *testing.T) {
	parts := validParts()
	parts[1].Questions[0].ID = "q1"
	if err := ValidateParts(parts); err == nil {
		t.Fatal("expected duplicate ids to fail")
	}
}

func TestValidatePartsRejectsEmptyContent(t *testing.T) {
	if err := ValidateParts(nil); err == nil {
		t.Fatal("expected empty content to fail")
	}
	if err := ValidateParts([]TestPart{{ID: "p1"}}); err == nil {
		t.Fatal("expected part without questions to fail")
	}
}

func TestEnsureIDsFillsOnlyBlanks(t *testing.T) {
	parts := validParts()
	parts[0].ID = ""
	parts[0].Questions[1].ID = ""

	EnsureIDs(parts)

	if parts[0].ID == "" || parts[0].Questions[1].ID == "" {
		t.Fatal("expected blank ids to be filled")
	}
	if parts[1].ID != "p2" || parts[0].Questions[0].ID != "q1" {
		t.Fatal("expected existing ids to be preserved")
	}
	if err := ValidateParts(parts); err != nil {
		t.Fatalf("expected filled content to validate, got %v", err)
	}
}

func TestValidateEvaluationBounds(t *testing.T) {
	if err := ValidateEvaluation(Evaluation{Score: 100}); err != nil {
		t.Fatalf("unexpected error for score 100: %v", err)
	}
	if err := ValidateEvaluation(Evaluation{Score: -1}); err == nil {
		t.Fatal("expected negative score to fail")
	}
	if err := ValidateEvaluation(Evaluation{Score: 101}); err == nil {
		t.Fatal("expected score over 100 to fail")
	}
}
