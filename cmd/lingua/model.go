//go:build cgo

package main

import (
	"context"
	"fmt"
	"math"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	assessment "github.com/anzegrcar/lingua-core/core"
	"github.com/anzegrcar/lingua-core/core/content"
)

type (
	stageEnteredMsg assessment.Stage
	contentReadyMsg assessment.Stage

	stageErrorMsg struct {
		stage assessment.Stage
		err   error
	}

	evaluationMsg struct {
		stage      assessment.Stage
		evaluation *content.Evaluation
		err        error
	}

	playbackEndedMsg struct{}

	actionFailedMsg struct{ err error }
)

// quizState walks the reading or listening questions one at a time and
// tallies correct picks; the stage score is the percentage correct.
type quizState struct {
	parts    []content.TestPart
	part     int
	question int
	selected int
	correct  int
	total    int
	answered int
}

func (q *quizState) current() *content.Question {
	if q.part >= len(q.parts) {
		return nil
	}
	return &q.parts[q.part].Questions[q.question]
}

func (q *quizState) confirm() (done bool) {
	question := q.current()
	if question == nil {
		return true
	}
	if q.selected == question.Answer {
		q.correct++
	}
	q.answered++
	q.selected = 0

	q.question++
	if q.question >= len(q.parts[q.part].Questions) {
		q.question = 0
		q.part++
	}
	return q.part >= len(q.parts)
}

func (q *quizState) score() int {
	if q.total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(q.correct) / float64(q.total)))
}

func newQuizState(parts []content.TestPart) quizState {
	total := 0
	for _, part := range parts {
		total += len(part.Questions)
	}
	return quizState{parts: parts, total: total}
}

type detailsForm struct {
	inputs  []textinput.Model
	focused int
}

func newDetailsForm() detailsForm {
	labels := []string{"Full name", "Phone number", "Native language"}
	inputs := make([]textinput.Model, len(labels))
	for i, label := range labels {
		input := textinput.New()
		input.Placeholder = label
		input.CharLimit = 64
		inputs[i] = input
	}
	inputs[0].Focus()
	return detailsForm{inputs: inputs}
}

func (f *detailsForm) focusNext() {
	f.inputs[f.focused].Blur()
	f.focused = (f.focused + 1) % len(f.inputs)
	f.inputs[f.focused].Focus()
}

func (f *detailsForm) details() assessment.Details {
	return assessment.Details{
		Name:     f.inputs[0].Value(),
		Phone:    f.inputs[1].Value(),
		Language: f.inputs[2].Value(),
	}
}

type model struct {
	ctx     context.Context
	session *assessment.Session
	events  chan tea.Msg

	width  int
	height int

	stage    assessment.Stage
	ready    bool
	fetchErr error
	errMsg   string

	spinner spinner.Model

	quiz          quizState
	playing       bool
	paused        bool
	playbackEnded bool

	response   textarea.Model
	grading    bool
	evaluation *content.Evaluation

	form detailsForm
}

func newModel(ctx context.Context, session *assessment.Session) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	response := textarea.New()
	response.Placeholder = "Write your response here..."
	response.CharLimit = 2000

	return model{
		ctx:      ctx,
		session:  session,
		events:   make(chan tea.Msg, 16),
		spinner:  s,
		response: response,
		form:     newDetailsForm(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startSession(), m.waitForEvent())
}

// startSession wires the session callbacks into the event channel so
// background completions surface as messages.
func (m model) startSession() tea.Cmd {
	return func() tea.Msg {
		m.session.Run(m.ctx,
			assessment.WithStageEnteredCallback(func(stage assessment.Stage) {
				m.events <- stageEnteredMsg(stage)
			}),
			assessment.WithContentReadyCallback(func(stage assessment.Stage) {
				m.events <- contentReadyMsg(stage)
			}),
			assessment.WithStageErrorCallback(func(stage assessment.Stage, err error) {
				m.events <- stageErrorMsg{stage: stage, err: err}
			}),
		)
		return nil
	}
}

func (m model) waitForEvent() tea.Cmd {
	return func() tea.Msg { return <-m.events }
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.response.SetWidth(min(m.width-4, 76))
		m.response.SetHeight(8)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stageEnteredMsg:
		return m.handleStageEntered(assessment.Stage(msg))

	case contentReadyMsg:
		return m.handleContentReady(assessment.Stage(msg))

	case stageErrorMsg:
		if msg.stage == m.stage {
			m.fetchErr = msg.err
		}
		return m, m.waitForEvent()

	case evaluationMsg:
		return m.handleEvaluation(msg)

	case playbackEndedMsg:
		m.playing = false
		m.paused = false
		m.playbackEnded = true
		return m, m.waitForEvent()

	case actionFailedMsg:
		m.errMsg = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.forwardToActiveField(msg)
}

func (m model) handleStageEntered(stage assessment.Stage) (tea.Model, tea.Cmd) {
	m.stage = stage
	m.ready = false
	m.fetchErr = nil
	m.errMsg = ""
	m.evaluation = nil
	m.grading = false
	m.playing = false
	m.paused = false
	m.playbackEnded = false

	switch stage {
	case assessment.StageWriting, assessment.StageSpeaking:
		m.response.Reset()
	case assessment.StageDetailsForm:
		m.form = newDetailsForm()
	}

	return m, m.waitForEvent()
}

func (m model) handleContentReady(stage assessment.Stage) (tea.Model, tea.Cmd) {
	if stage != m.stage {
		return m, m.waitForEvent()
	}
	m.ready = true

	switch stage {
	case assessment.StageReading:
		if reading, ok := m.session.Reading(); ok {
			m.quiz = newQuizState(reading.Parts)
		}
	case assessment.StageListening:
		if listening, ok := m.session.Listening(); ok {
			m.quiz = newQuizState(listening.Parts)
		}
		if player := m.session.Player(); player != nil {
			player.SetOnEnded(func() { m.events <- playbackEndedMsg{} })
		}
	case assessment.StageWriting, assessment.StageSpeaking:
		return m, tea.Batch(m.response.Focus(), m.waitForEvent())
	}

	return m, m.waitForEvent()
}

func (m model) handleEvaluation(msg evaluationMsg) (tea.Model, tea.Cmd) {
	m.grading = false
	if msg.stage != m.stage {
		return m, nil
	}
	if msg.err != nil {
		m.errMsg = fmt.Sprintf("Grading failed: %v", msg.err)
		return m, m.response.Focus()
	}
	m.evaluation = msg.evaluation
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.fetchErr != nil {
		if key == "r" {
			stage := m.stage
			m.fetchErr = nil
			return m, m.command(func() error { return m.session.RetryStage(stage) })
		}
		return m, nil
	}

	switch m.stage {
	case assessment.StageHome:
		switch key {
		case "q":
			return m, tea.Quit
		case "enter":
			return m, m.command(m.session.Begin)
		}
		return m, nil

	case assessment.StageReading, assessment.StageListening:
		return m.handleQuizKey(key)

	case assessment.StageWriting, assessment.StageSpeaking:
		return m.handleResponseKey(msg)

	case assessment.StageDetailsForm:
		return m.handleFormKey(msg)

	case assessment.StageResults:
		switch key {
		case "q":
			return m, tea.Quit
		case "r":
			return m, m.command(m.session.Restart)
		}
		return m, nil
	}

	return m, nil
}

func (m model) handleQuizKey(key string) (tea.Model, tea.Cmd) {
	if !m.ready {
		return m, nil
	}

	if m.stage == assessment.StageListening && key == "p" {
		player := m.session.Player()
		if player == nil {
			return m, nil
		}
		switch {
		case m.playing:
			player.Pause()
			m.playing = false
			m.paused = true
		case m.paused:
			player.Resume()
			m.playing = true
			m.paused = false
		default:
			m.playing = true
			m.playbackEnded = false
			return m, m.command(player.Play)
		}
		return m, nil
	}

	question := m.quiz.current()
	if question == nil {
		return m, nil
	}

	switch key {
	case "up", "k":
		if m.quiz.selected > 0 {
			m.quiz.selected--
		}
	case "down", "j":
		if m.quiz.selected < len(question.Options)-1 {
			m.quiz.selected++
		}
	case "enter":
		if m.quiz.confirm() {
			stage, score := m.stage, m.quiz.score()
			return m, m.command(func() error { return m.session.ReportScore(stage, score) })
		}
	}

	return m, nil
}

func (m model) handleResponseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.ready || m.grading {
		return m, nil
	}

	// A graded submission is showing; enter moves on.
	if m.evaluation != nil {
		if msg.String() == "enter" {
			stage, score := m.stage, m.evaluation.Score
			return m, m.command(func() error { return m.session.ReportScore(stage, score) })
		}
		return m, nil
	}

	if msg.String() == "ctrl+d" {
		text := m.response.Value()
		if text == "" {
			return m, nil
		}
		m.grading = true
		m.errMsg = ""
		m.response.Blur()
		return m, m.submitResponse(m.stage, text)
	}

	var cmd tea.Cmd
	m.response, cmd = m.response.Update(msg)
	return m, cmd
}

func (m model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "down", "up":
		m.form.focusNext()
		return m, nil
	case "enter":
		if m.form.focused < len(m.form.inputs)-1 {
			m.form.focusNext()
			return m, nil
		}
		details := m.form.details()
		if details.Name == "" {
			m.errMsg = "Please enter your name"
			return m, nil
		}
		return m, m.command(func() error { return m.session.SubmitDetails(details) })
	}

	var cmd tea.Cmd
	m.form.inputs[m.form.focused], cmd = m.form.inputs[m.form.focused].Update(msg)
	return m, cmd
}

func (m model) forwardToActiveField(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case assessment.StageWriting, assessment.StageSpeaking:
		var cmd tea.Cmd
		m.response, cmd = m.response.Update(msg)
		return m, cmd
	case assessment.StageDetailsForm:
		var cmd tea.Cmd
		m.form.inputs[m.form.focused], cmd = m.form.inputs[m.form.focused].Update(msg)
		return m, cmd
	}
	return m, nil
}

// command runs a session action off the event loop and surfaces its
// failure, if any, as a message.
func (m model) command(action func() error) tea.Cmd {
	return func() tea.Msg {
		if err := action(); err != nil {
			return actionFailedMsg{err: err}
		}
		return nil
	}
}

func (m model) submitResponse(stage assessment.Stage, text string) tea.Cmd {
	return func() tea.Msg {
		var (
			evaluation *content.Evaluation
			err        error
		)
		switch stage {
		case assessment.StageWriting:
			evaluation, err = m.session.EvaluateWriting(m.ctx, text)
		case assessment.StageSpeaking:
			evaluation, err = m.session.EvaluateSpeaking(m.ctx, assessment.SpokenText(text))
		default:
			err = fmt.Errorf("stage %s takes no graded response", stage)
		}
		return evaluationMsg{stage: stage, evaluation: evaluation, err: err}
	}
}
