// Package prompt asks a series of questions on the terminal, one at a time.
package prompt

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Question is a single prompt. A blank answer takes Default.
type Question struct {
	Key     string
	Prompt  string
	Default string
}

// model is a bubbletea model that asks one question at a time.
type model struct {
	questions []Question
	idx       int
	inputs    []textinput.Model
	done      bool
}

func newModel(questions []Question) model {
	inputs := make([]textinput.Model, len(questions))
	for i, q := range questions {
		ti := textinput.New()
		ti.Placeholder = q.Default
		ti.CharLimit = 512
		inputs[i] = ti
	}
	m := model{
		questions: questions,
		inputs:    inputs,
	}
	if len(inputs) > 0 {
		m.inputs[0].Focus()
	}
	return m
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.idx < len(m.inputs)-1 {
				m.inputs[m.idx].Blur()
				m.idx++
				m.inputs[m.idx].Focus()
				return m, textinput.Blink
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.inputs[m.idx], cmd = m.inputs[m.idx].Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.done || len(m.questions) == 0 {
		return ""
	}
	q := m.questions[m.idx]
	return fmt.Sprintf("%s: %s\n", q.Prompt, m.inputs[m.idx].View())
}

// answers returns the collected answers keyed by Question.Key.
func (m model) answers() map[string]string {
	out := make(map[string]string, len(m.questions))
	for i, q := range m.questions {
		v := m.inputs[i].Value()
		if v == "" {
			v = q.Default
		}
		out[q.Key] = v
	}
	return out
}

// Ask runs the prompt on in/out and returns answers keyed by Question.Key.
func Ask(in io.Reader, out io.Writer, questions []Question) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}
	p := tea.NewProgram(newModel(questions), tea.WithInput(in), tea.WithOutput(out))
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final, ok := result.(model)
	if !ok || !final.done {
		return nil, fmt.Errorf("prompt cancelled")
	}
	return final.answers(), nil
}
