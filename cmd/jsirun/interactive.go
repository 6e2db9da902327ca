package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/jsi-runtime/jsi"
	"github.com/wippyai/jsi-runtime/queue"
	"github.com/wippyai/jsi-runtime/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const maxTranscript = 200

type entry struct {
	input  string
	output string
	failed bool
}

// replModel evaluates on the bubbletea event loop goroutine, which is the
// goroutine that created the runtime.
type replModel struct {
	rt         *runtime.Runtime
	q          *queue.Serial
	input      textinput.Model
	transcript []entry
	history    []string
	histIdx    int
	line       int
}

type queueReadyMsg struct{}

func newREPLModel(rt *runtime.Runtime, q *queue.Serial) *replModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "expression"
	ti.Width = 72
	ti.Focus()
	return &replModel{rt: rt, q: q, input: ti}
}

func (m *replModel) waitQueue() tea.Msg {
	<-m.q.Ready()
	return queueReadyMsg{}
}

func (m *replModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitQueue)
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+d":
			return m, tea.Quit

		case "enter":
			src := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if src == "" {
				return m, nil
			}
			m.history = append(m.history, src)
			m.histIdx = len(m.history)
			m.evaluate(src)
			m.q.Drain()
			return m, nil

		case "up":
			if m.histIdx > 0 {
				m.histIdx--
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if m.histIdx < len(m.history)-1 {
				m.histIdx++
				m.input.SetValue(m.history[m.histIdx])
				m.input.CursorEnd()
			} else {
				m.histIdx = len(m.history)
				m.input.SetValue("")
			}
			return m, nil
		}

	case queueReadyMsg:
		m.q.Drain()
		return m, m.waitQueue
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *replModel) evaluate(src string) {
	m.line++
	e := entry{input: src}
	v, err := m.rt.EvaluateScript(jsi.StringBuffer(src), fmt.Sprintf("repl:%d", m.line))
	if err != nil {
		e.output, e.failed = err.Error(), true
	} else {
		e.output, err = m.rt.ToString(v)
		if err != nil {
			e.output, e.failed = err.Error(), true
		}
		v.Release()
	}

	m.transcript = append(m.transcript, e)
	if len(m.transcript) > maxTranscript {
		m.transcript = m.transcript[len(m.transcript)-maxTranscript:]
	}
}

func (m *replModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("JSI Console"))
	b.WriteString(" ")
	b.WriteString(m.rt.Description())
	if s := m.rt.Debugger(); s != nil {
		b.WriteString(helpStyle.Render("  debugger " + s.URL()))
	}
	b.WriteString("\n\n")

	for _, e := range m.transcript {
		b.WriteString(inputStyle.Render("> " + e.input))
		b.WriteString("\n")
		if e.failed {
			b.WriteString(errorStyle.Render(e.output))
		} else {
			b.WriteString(resultStyle.Render(e.output))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter evaluate • ↑/↓ history • ctrl+c quit"))
	return b.String()
}

func runInteractive(args runtime.RuntimeArgs) error {
	q := queue.NewSerial()
	rt, err := runtime.New(args.WithQueue(q))
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close()

	p := tea.NewProgram(newREPLModel(rt, q))
	_, err = p.Run()
	return err
}
