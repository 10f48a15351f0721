//go:build cgo

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	assessment "github.com/anzegrcar/lingua-core/core"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	passageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			MarginBottom(1)

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("219"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	optionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	feedbackStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	scoreStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("82"))
)

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Lingua — English Proficiency Assessment"))
	b.WriteString("\n")

	switch {
	case m.fetchErr != nil:
		b.WriteString(errorStyle.Render("Could not prepare this section."))
		b.WriteString("\n\n" + m.wrap(m.fetchErr.Error()))
		b.WriteString(helpStyle.Render("\nr retry • ctrl+c quit"))

	case m.stage == assessment.StageHome:
		b.WriteString(m.viewHome())

	case m.stage == assessment.StageReading, m.stage == assessment.StageListening:
		b.WriteString(m.viewQuiz())

	case m.stage == assessment.StageWriting, m.stage == assessment.StageSpeaking:
		b.WriteString(m.viewResponse())

	case m.stage == assessment.StageDetailsForm:
		b.WriteString(m.viewForm())

	case m.stage == assessment.StageResults:
		b.WriteString(m.viewResults())
	}

	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.wrap(m.errMsg)))
	}

	return b.String()
}

func (m model) viewHome() string {
	intro := m.wrap("This assessment has four sections: reading, listening, " +
		"writing and speaking. Each one is scored from 0 to 100, and your " +
		"overall level is the average across sections.")
	return intro + helpStyle.Render("\nenter start • q quit")
}

func (m model) viewQuiz() string {
	section := "Reading"
	if m.stage == assessment.StageListening {
		section = "Listening"
	}

	if !m.ready {
		return m.spinner.View() + fmt.Sprintf(" Preparing the %s section...", strings.ToLower(section))
	}

	question := m.quiz.current()
	if question == nil {
		return m.spinner.View() + " Scoring..."
	}

	var b strings.Builder
	b.WriteString(promptStyle.Render(fmt.Sprintf("%s — part %d of %d",
		section, m.quiz.part+1, len(m.quiz.parts))))
	b.WriteString("\n\n")

	if m.stage == assessment.StageReading {
		b.WriteString(passageStyle.Render(m.wrap(m.quiz.parts[m.quiz.part].Text)))
		b.WriteString("\n")
	} else {
		status := "p play"
		switch {
		case m.playing:
			status = "Playing... (p pause)"
		case m.paused:
			status = "Paused (p resume)"
		case m.playbackEnded:
			status = "Finished (p play again)"
		}
		b.WriteString(passageStyle.Render("♪ " + status))
		b.WriteString("\n")
	}

	b.WriteString(m.wrap(fmt.Sprintf("%d. %s", m.quiz.answered+1, question.Prompt)))
	b.WriteString("\n\n")
	for i, option := range question.Options {
		if i == m.quiz.selected {
			b.WriteString(selectedStyle.Render("> " + option))
		} else {
			b.WriteString(optionStyle.Render("  " + option))
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ select • enter confirm"))
	return b.String()
}

func (m model) viewResponse() string {
	section, hint := "Writing", "Write your response below."
	if m.stage == assessment.StageSpeaking {
		section, hint = "Speaking", "Type what you would say out loud."
	}

	if !m.ready {
		return m.spinner.View() + fmt.Sprintf(" Preparing the %s section...", strings.ToLower(section))
	}
	if m.grading {
		return m.spinner.View() + " Grading your submission..."
	}

	task, ok := m.task()
	if !ok {
		return m.spinner.View() + " Loading task..."
	}

	var b strings.Builder
	b.WriteString(promptStyle.Render(section + ": " + task.topic))
	b.WriteString("\n\n")
	b.WriteString(passageStyle.Render(m.wrap(task.instructions)))
	b.WriteString("\n")

	if m.evaluation != nil {
		var feedback strings.Builder
		feedback.WriteString(scoreStyle.Render(fmt.Sprintf("Score: %d/100", m.evaluation.Score)))
		feedback.WriteString("\n" + m.wrap(m.evaluation.Feedback))
		for _, correction := range m.evaluation.Corrections {
			feedback.WriteString("\n • " + m.wrap(correction))
		}
		b.WriteString(feedbackStyle.Render(feedback.String()))
		b.WriteString(helpStyle.Render("\nenter continue"))
		return b.String()
	}

	b.WriteString(m.wrap(hint))
	b.WriteString("\n" + m.response.View())
	b.WriteString(helpStyle.Render("\nctrl+d submit"))
	return b.String()
}

type taskView struct {
	topic        string
	instructions string
}

func (m model) task() (taskView, bool) {
	switch m.stage {
	case assessment.StageWriting:
		if task, ok := m.session.Writing(); ok {
			return taskView{topic: task.Topic, instructions: task.Instructions}, true
		}
	case assessment.StageSpeaking:
		if task, ok := m.session.Speaking(); ok {
			return taskView{topic: task.Topic, instructions: task.Instructions}, true
		}
	}
	return taskView{}, false
}

func (m model) viewForm() string {
	var b strings.Builder
	b.WriteString(promptStyle.Render("Almost done — where should we send your results?"))
	b.WriteString("\n\n")
	for _, input := range m.form.inputs {
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("tab next field • enter submit"))
	return b.String()
}

func (m model) viewResults() string {
	scores := m.session.Scores()

	var b strings.Builder
	b.WriteString(promptStyle.Render("Your results"))
	b.WriteString("\n\n")
	for _, row := range []struct {
		label string
		value int
	}{
		{"Reading", scores.Reading},
		{"Listening", scores.Listening},
		{"Writing", scores.Writing},
		{"Speaking", scores.Speaking},
	} {
		b.WriteString(fmt.Sprintf("  %-10s %3d\n", row.label, row.value))
	}
	b.WriteString("\n")
	b.WriteString(scoreStyle.Render(fmt.Sprintf("  Overall    %3d", scores.Average())))
	b.WriteString(helpStyle.Render("\nr start over • q quit"))
	return b.String()
}

func (m model) wrap(text string) string {
	width := m.width - 4
	if width <= 0 || width > 76 {
		width = 76
	}
	return wordwrap.String(text, width)
}
