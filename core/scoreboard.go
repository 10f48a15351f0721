package assessment

import (
	"fmt"
	"math"
)

// ScoreBoard accumulates the per-stage percentages. Each field is written
// exactly once per session run, on that stage's completion, and zeroed on
// restart.
type ScoreBoard struct {
	Reading   int
	Listening int
	Writing   int
	Speaking  int
}

// Average is the rounded mean of the four stage scores, always in [0, 100].
func (b ScoreBoard) Average() int {
	return int(math.Round(float64(b.Reading+b.Listening+b.Writing+b.Speaking) / 4))
}

func (b *ScoreBoard) set(stage Stage, value int) error {
	if value < 0 || value > 100 {
		return fmt.Errorf("score %d outside [0, 100]", value)
	}

	switch stage {
	case StageReading:
		b.Reading = value
	case StageListening:
		b.Listening = value
	case StageWriting:
		b.Writing = value
	case StageSpeaking:
		b.Speaking = value
	default:
		return fmt.Errorf("stage %s does not take a score", stage)
	}

	return nil
}
