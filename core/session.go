// Package assessment drives a four-stage language proficiency session:
// reading, listening, writing and speaking, each backed by remote content
// generation and grading, followed by a details form and a score report.
// The session owns all mutable state (stage, scores, preload cache);
// stages only report scores upward through [Session.ReportScore].
package assessment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/anzegrcar/lingua-core/core/content"
	"github.com/jinzhu/copier"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StageStatus describes the current stage attempt's content slot.
type StageStatus int

const (
	StatusIdle StageStatus = iota
	StatusLoading
	StatusReady
	StatusFailed
)

type stageSlot struct {
	status  StageStatus
	payload stagePayload
	err     error
	// attempt counts fetches for this stage in the current run,
	// retries included.
	attempt int
}

const submitTimeout = 10 * time.Second

type Session struct {
	mu sync.Mutex

	stage   Stage
	scores  ScoreBoard
	details Details

	fetchers      *fetchers
	cache         *preloadCache
	sink          ResultSink
	deviceFactory DeviceFactory

	// slots hold the current attempt's content per stage; prefetched
	// payloads move here when their stage is entered.
	slots  map[Stage]*stageSlot
	player *TrackPlayer

	// epoch fences asynchronous completions: restart and close bump it,
	// and anything resolved under an older epoch is dropped.
	epoch int

	baseContext context.Context
	runOptions  RunOptions
	started     bool

	closeOnce sync.Once
	closed    bool
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		stage:       StageHome,
		fetchers:    &fetchers{silenceGap: defaultSilenceGap},
		cache:       newPreloadCache(),
		slots:       map[Stage]*stageSlot{},
		baseContext: context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the session at home and begins prefetching the reading
// content in the background.
//
// Contract: call Run at most once per session instance.
func (s *Session) Run(ctx context.Context, opts ...RunOption) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		log.Println("Warning: session already started or closed, skipping Run")
		return
	}
	s.started = true
	s.baseContext = ctx
	s.runOptions = RunOptions{}
	for _, opt := range opts {
		opt(&s.runOptions)
	}
	notify := s.enterStageLocked(StageHome)
	s.mu.Unlock()

	notify()

	go func() {
		<-ctx.Done()
		s.Close()
	}()
}

// Begin leaves home and enters the reading stage.
func (s *Session) Begin() error {
	return s.advance(StageHome)
}

// ReportScore records the current stage's result and advances the state
// machine. It is the stages' single upward mutation path.
func (s *Session) ReportScore(stage Stage, value int) error {
	s.mu.Lock()
	if stage != s.stage {
		s.mu.Unlock()
		return fmt.Errorf("cannot score %s while %s is current", stage, s.stage)
	}
	if !stage.isScored() {
		s.mu.Unlock()
		return fmt.Errorf("stage %s does not take a score", stage)
	}
	if err := s.scores.set(stage, value); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	span := trace.SpanFromContext(s.baseContext)
	span.AddEvent("stage scored", trace.WithAttributes(
		attribute.String("stage", stage.String()),
		attribute.Int("score", value),
	))

	return s.advance(stage)
}

func (s *Session) advance(from Stage) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session is closed")
	}
	if from != s.stage {
		s.mu.Unlock()
		return fmt.Errorf("cannot advance from %s while %s is current", from, s.stage)
	}
	next, ok := s.stage.next()
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("no forward transition from %s", s.stage)
	}

	s.teardownStageLocked(from)
	notify := s.enterStageLocked(next)
	s.mu.Unlock()

	notify()
	return nil
}

// SubmitDetails stores the user details, pushes the result record to the
// sink and moves to the results stage. Sink failures are logged, never
// surfaced and never retried.
func (s *Session) SubmitDetails(details Details) error {
	s.mu.Lock()
	if s.stage != StageDetailsForm {
		s.mu.Unlock()
		return fmt.Errorf("cannot submit details while %s is current", s.stage)
	}
	s.details = details
	record := newResultRecord(details, s.scores)
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(s.baseContext), submitTimeout)
			defer cancel()
			if err := sink.Submit(ctx, record); err != nil {
				logger.WarnContext(ctx, "result submission failed", "record_id", record.ID, "error", err)
			}
		}()
	}

	return s.advance(StageDetailsForm)
}

// Restart resets the session from the results stage back to home: scores
// and details are cleared and every preload cache entry is discarded,
// cancelling any fetch still in flight.
func (s *Session) Restart() error {
	s.mu.Lock()
	if s.stage != StageResults {
		s.mu.Unlock()
		return fmt.Errorf("cannot restart while %s is current", s.stage)
	}

	s.epoch++
	s.scores = ScoreBoard{}
	s.details = Details{}
	s.cache.clear()
	for stage := range s.slots {
		s.teardownStageLocked(stage)
	}
	notify := s.enterStageLocked(StageHome)
	s.mu.Unlock()

	notify()
	return nil
}

// RetryStage reruns the current stage's failed fetch from scratch. It is
// the only recovery action for a stage in the failed state.
func (s *Session) RetryStage(stage Stage) error {
	s.mu.Lock()
	if stage != s.stage {
		s.mu.Unlock()
		return fmt.Errorf("cannot retry %s while %s is current", stage, s.stage)
	}
	slot := s.slots[stage]
	if slot == nil || slot.status != StatusFailed {
		s.mu.Unlock()
		return fmt.Errorf("stage %s has no failed fetch to retry", stage)
	}
	slot.status = StatusLoading
	slot.err = nil
	slot.attempt++
	epoch := s.epoch
	s.mu.Unlock()

	go s.resolveStage(stage, epoch, nil)
	return nil
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.epoch++
		player := s.player
		s.player = nil
		s.mu.Unlock()

		s.cache.clear()
		if err := player.Close(); err != nil {
			logger.Warn("failed to close track player", "error", err)
		}
	})
}

// enterStageLocked moves the state machine to stage, starts resolving its
// content (prefetched or foreground) and kicks off the next stage's
// background prefetch. The returned func fires callbacks and must be
// called after the lock is released.
func (s *Session) enterStageLocked(stage Stage) func() {
	s.stage = stage
	epoch := s.epoch

	var task *prefetchTask
	if stage.hasContent() {
		task = s.cache.consume(stage)
		slot := &stageSlot{status: StatusLoading, attempt: 1}
		s.slots[stage] = slot
		go s.resolveStage(stage, epoch, task)
	}

	if target, ok := stage.prefetchTarget(); ok {
		s.cache.begin(s.baseContext, target, func(ctx context.Context) (stagePayload, error) {
			return s.fetchStage(ctx, target)
		})
	}

	onStageEntered := s.runOptions.onStageEntered
	return func() {
		if onStageEntered != nil {
			onStageEntered(stage)
		}
	}
}

// teardownStageLocked drops the stage's slot and releases stage-owned
// resources; for listening that is the playback device.
func (s *Session) teardownStageLocked(stage Stage) {
	delete(s.slots, stage)
	if stage == StageListening && s.player != nil {
		player := s.player
		s.player = nil
		go func() {
			if err := player.Close(); err != nil {
				logger.Warn("failed to close track player", "error", err)
			}
		}()
	}
}

// resolveStage finishes a stage entry: it awaits the consumed prefetch
// task, or fetches in the foreground when no slot was cached, then
// publishes the outcome — unless the session has moved on (epoch bumped
// or slot torn down), in which case the late result is dropped.
func (s *Session) resolveStage(stage Stage, epoch int, task *prefetchTask) {
	var (
		payload stagePayload
		err     error
	)
	if task != nil {
		payload, err = task.await(s.baseContext)
	} else {
		payload, err = s.fetchStage(s.baseContext, stage)
	}

	s.mu.Lock()
	slot := s.slots[stage]
	if s.epoch != epoch || slot == nil || slot.status != StatusLoading {
		s.mu.Unlock()
		if err == nil {
			logger.Debug("dropping stale stage payload", "stage", stage.String())
		}
		return
	}

	if err == nil && stage == StageListening {
		err = s.attachPlayerLocked(payload)
	}

	if err != nil {
		slot.status = StatusFailed
		slot.err = err
	} else {
		slot.status = StatusReady
		slot.payload = payload
	}
	attempt := slot.attempt
	onContentReady := s.runOptions.onContentReady
	onStageError := s.runOptions.onStageError
	s.mu.Unlock()

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("stage fetch failed", "stage", stage.String(), "attempt", attempt, "error", err)
		}
		if onStageError != nil {
			onStageError(stage, err)
		}
		return
	}
	if onContentReady != nil {
		onContentReady(stage)
	}
}

func (s *Session) attachPlayerLocked(payload stagePayload) error {
	if s.deviceFactory == nil {
		// Headless sessions (tests, evaluation-only runs) still get the
		// track; they just cannot play it.
		return nil
	}

	device, err := s.deviceFactory()
	if err != nil {
		return fmt.Errorf("failed to create playback device: %w", err)
	}
	s.player = newTrackPlayer(device, payload.listening.Track)
	return nil
}

func (s *Session) fetchStage(ctx context.Context, stage Stage) (stagePayload, error) {
	switch stage {
	case StageReading:
		reading, err := s.fetchers.fetchReading(ctx)
		return stagePayload{reading: reading}, err
	case StageListening:
		listening, err := s.fetchers.fetchListening(ctx)
		return stagePayload{listening: listening}, err
	case StageWriting:
		writing, err := s.fetchers.fetchWriting(ctx)
		return stagePayload{writing: writing}, err
	case StageSpeaking:
		speaking, err := s.fetchers.fetchSpeaking(ctx)
		return stagePayload{speaking: speaking}, err
	}
	return stagePayload{}, fmt.Errorf("stage %s has no content to fetch", stage)
}

// EvaluateWriting grades a response against the active writing task.
func (s *Session) EvaluateWriting(ctx context.Context, response string) (*content.Evaluation, error) {
	task, ok := s.Writing()
	if !ok {
		return nil, fmt.Errorf("writing task is not ready")
	}
	return s.fetchers.evaluateWriting(ctx, task, response)
}

// EvaluateSpeaking grades a spoken submission (text or recorded clip)
// against the active speaking task.
func (s *Session) EvaluateSpeaking(ctx context.Context, submission SpeakingSubmission) (*content.Evaluation, error) {
	task, ok := s.Speaking()
	if !ok {
		return nil, fmt.Errorf("speaking task is not ready")
	}
	return s.fetchers.evaluateSpeaking(ctx, task, submission)
}

func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Scores returns a point-in-time copy of the scoreboard.
func (s *Session) Scores() ScoreBoard {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := ScoreBoard{}
	_ = copier.Copy(&snapshot, &s.scores)
	return snapshot
}

func (s *Session) UserDetails() Details {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.details
}

// StageStatus reports the current attempt's slot state for stage, with
// the fetch error when it failed.
func (s *Session) StageStatus(stage Stage) (StageStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.slots[stage]
	if slot == nil {
		return StatusIdle, nil
	}
	return slot.status, slot.err
}

func (s *Session) Reading() (*content.ReadingContent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.slots[StageReading]
	if slot == nil || slot.status != StatusReady {
		return nil, false
	}
	return slot.payload.reading, true
}

func (s *Session) Listening() (*content.ListeningContent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.slots[StageListening]
	if slot == nil || slot.status != StatusReady {
		return nil, false
	}
	return slot.payload.listening.Content, true
}

// Player returns the listening stage's track player, nil until the
// listening content is ready or when the session runs headless.
func (s *Session) Player() *TrackPlayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player
}

func (s *Session) Writing() (*content.WritingTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.slots[StageWriting]
	if slot == nil || slot.status != StatusReady {
		return nil, false
	}
	return slot.payload.writing, true
}

func (s *Session) Speaking() (*content.SpeakingTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.slots[StageSpeaking]
	if slot == nil || slot.status != StatusReady {
		return nil, false
	}
	return slot.payload.speaking, true
}
