package repl

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// entry is one round-trip through the session: the line the user typed
// and whatever the pipeline had to say about it.
type entry struct {
	line   string
	output string
	failed bool
}

type model struct {
	input    textinput.Model
	history  []entry
	buffer   string // committed source, accepted lines only, joined by "\n"
	quitting bool
}

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	echoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

func newModel() *model {
	ti := textinput.New()
	ti.Placeholder = "let x = 1"
	ti.Prompt = "loom> "
	ti.Focus()
	return &model{input: ti}
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.submit()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) submit() {
	line := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if line == "" {
		return
	}
	if line == "exit" || line == "quit" {
		m.quitting = true
		return
	}

	candidate := line
	if m.buffer != "" {
		candidate = m.buffer + "\n" + line
	}

	output, ok := tryRun(candidate)
	e := entry{line: line, output: output, failed: !ok}
	if ok {
		m.buffer = candidate
	}
	m.history = append(m.history, e)
}

func (m *model) View() string {
	var b strings.Builder
	for _, e := range m.history {
		b.WriteString(promptStyle.Render("loom> "))
		b.WriteString(echoStyle.Render(e.line))
		b.WriteString("\n")
		if e.output != "" {
			style := okStyle
			if e.failed {
				style = errStyle
			}
			b.WriteString(style.Render(e.output))
			b.WriteString("\n")
		} else if !e.failed {
			b.WriteString(okStyle.Render("ok"))
			b.WriteString("\n")
		}
	}
	if m.quitting {
		b.WriteString(helpStyle.Render("bye"))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter to run, esc or ctrl-c to quit, \"exit\" to leave"))
	b.WriteString("\n")
	return b.String()
}
