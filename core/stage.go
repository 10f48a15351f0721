package assessment

// Stage is one phase of the assessment session. Progression is strictly
// forward; the only backward transition is the terminal reset from
// [StageResults] to [StageHome].
type Stage int

const (
	StageHome Stage = iota
	StageReading
	StageListening
	StageWriting
	StageSpeaking
	StageDetailsForm
	StageResults
)

func (s Stage) String() string {
	switch s {
	case StageHome:
		return "home"
	case StageReading:
		return "reading"
	case StageListening:
		return "listening"
	case StageWriting:
		return "writing"
	case StageSpeaking:
		return "speaking"
	case StageDetailsForm:
		return "details"
	case StageResults:
		return "results"
	}
	return "unknown"
}

// isScored reports whether completing the stage contributes a score.
func (s Stage) isScored() bool {
	switch s {
	case StageReading, StageListening, StageWriting, StageSpeaking:
		return true
	}
	return false
}

// hasContent reports whether the stage needs fetched content to render.
func (s Stage) hasContent() bool { return s.isScored() }

func (s Stage) next() (Stage, bool) {
	switch s {
	case StageHome:
		return StageReading, true
	case StageReading:
		return StageListening, true
	case StageListening:
		return StageWriting, true
	case StageWriting:
		return StageSpeaking, true
	case StageSpeaking:
		return StageDetailsForm, true
	case StageDetailsForm:
		return StageResults, true
	}
	return s, false
}

// prefetchTarget names the stage whose content should be speculatively
// fetched while s is current: always the content-bearing stage one ahead.
func (s Stage) prefetchTarget() (Stage, bool) {
	switch s {
	case StageHome:
		return StageReading, true
	case StageReading:
		return StageListening, true
	case StageListening:
		return StageWriting, true
	case StageWriting:
		return StageSpeaking, true
	}
	return 0, false
}
