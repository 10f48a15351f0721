package assessment

import "testing"

func TestAverageRoundsTheMean(t *testing.T) {
	cases := []struct {
		board ScoreBoard
		want  int
	}{
		{ScoreBoard{}, 0},
		{ScoreBoard{Reading: 80, Listening: 70, Writing: 90, Speaking: 60}, 75},
		{ScoreBoard{Reading: 100, Listening: 100, Writing: 100, Speaking: 100}, 100},
		{ScoreBoard{Reading: 1}, 0},     // 0.25 rounds down
		{ScoreBoard{Reading: 2}, 1},     // 0.5 rounds up
		{ScoreBoard{Reading: 3}, 1},     // 0.75 rounds up
		{ScoreBoard{Reading: 33, Listening: 33, Writing: 33, Speaking: 34}, 33},
	}

	for _, tc := range cases {
		if got := tc.board.Average(); got != tc.want {
			t.Fatalf("Average(%+v) = %d, expected %d", tc.board, got, tc.want)
		}
		if avg := tc.board.Average(); avg < 0 || avg > 100 {
			t.Fatalf("average %d outside [0, 100]", avg)
		}
	}
}

func TestSetRejectsOutOfRangeAndUnscoredStages(t *testing.T) {
	board := ScoreBoard{}
	if err := board.set(StageReading, 101); err == nil {
		t.Fatal("expected score over 100 to fail")
	}
	if err := board.set(StageListening, -1); err == nil {
		t.Fatal("expected negative score to fail")
	}
	if err := board.set(StageHome, 50); err == nil {
		t.Fatal("expected scoring home to fail")
	}
	if err := board.set(StageSpeaking, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if board.Speaking != 100 {
		t.Fatalf("expected speaking score 100, got %d", board.Speaking)
	}
}
