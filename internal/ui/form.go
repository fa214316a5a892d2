package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fieldQuestion = iota
	fieldVoters
)

// createForm collects a question and a newline-separated voter list.
type createForm struct {
	question textinput.Model
	voters   textarea.Model
	focus    int
	err      string
}

func newCreateForm(lastVoters []string) createForm {
	q := textinput.New()
	q.Placeholder = "Question"
	q.CharLimit = 280
	q.Prompt = "? "
	q.Focus()

	v := textarea.New()
	v.Placeholder = "One voter per line"
	v.ShowLineNumbers = false
	v.SetHeight(5)
	v.SetValue(strings.Join(lastVoters, "\n"))
	v.Blur()

	return createForm{question: q, voters: v, focus: fieldQuestion}
}

func (f *createForm) setWidth(width int) {
	w := maxInt(width-8, 20)
	f.question.Width = w
	f.voters.SetWidth(w)
}

func (f *createForm) toggleFocus() tea.Cmd {
	if f.focus == fieldQuestion {
		f.focus = fieldVoters
		f.question.Blur()
		return f.voters.Focus()
	}
	f.focus = fieldQuestion
	f.voters.Blur()
	return f.question.Focus()
}

func (f createForm) update(msg tea.Msg) (createForm, tea.Cmd) {
	var cmd tea.Cmd
	if f.focus == fieldQuestion {
		f.question, cmd = f.question.Update(msg)
	} else {
		f.voters, cmd = f.voters.Update(msg)
	}
	f.err = ""
	return f, cmd
}

func (f createForm) values() (string, []string) {
	return strings.TrimSpace(f.question.Value()), splitLines(f.voters.Value())
}

var errEmptyQuestion = errors.New("question is required")

func (f createForm) validate() error {
	question, _ := f.values()
	if question == "" {
		return errEmptyQuestion
	}
	return nil
}

func (f createForm) view(styles Styles) string {
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("New poll"))
	b.WriteString("\n\n")
	b.WriteString(f.question.View())
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Voters"))
	b.WriteString("\n")
	b.WriteString(f.voters.View())
	b.WriteString("\n\n")
	if f.err != "" {
		b.WriteString(styles.DangerText.Render(f.err))
		b.WriteString("\n")
	}
	b.WriteString(styles.FaintText.Render("tab switch field · ctrl+s create · esc cancel"))
	return styles.Panel.Render(b.String())
}
