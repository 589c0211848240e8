package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"qiyas/internal/domain"
	"qiyas/internal/reasoning"
)

// ReasonPort is the TUI-facing subset of the engine.
type ReasonPort interface {
	Reason(ctx context.Context, question string) (domain.ReasoningResult, error)
}

// Model is the Bubble Tea model for the interactive ask loop.
type Model struct {
	engine   ReasonPort
	input    textinput.Model
	viewport viewport.Model
	result   *domain.ReasoningResult
	status   string
	cursor   int // index into result.RelevantSources, -1 shows reasoning
	ready    bool
	waiting  bool
}

type answerMsg struct {
	result domain.ReasoningResult
	err    error
}

// New creates a new TUI model instance.
func New(engine ReasonPort) Model {
	ti := textinput.New()
	ti.Prompt = "? "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{engine: engine, input: ti, viewport: vp, cursor: -1, status: "Ready."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, query box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.result = nil
		} else {
			verdict, level := reasoning.ParseConclusion(msg.result.Reasoning)
			m.status = fmt.Sprintf("%s (%s), confidence %.2f — up/down to browse sources", verdict, level, msg.result.ConfidenceScore)
			m.result = &msg.result
			m.cursor = -1
		}
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.waiting {
				m.waiting = true
				m.status = "Reasoning..."
				engine := m.engine
				return m, func() tea.Msg {
					res, err := engine.Reason(context.Background(), q)
					return answerMsg{result: res, err: err}
				}
			}
		case "down":
			if m.result != nil && len(m.result.RelevantSources) > 0 {
				m.cursor++
				if m.cursor >= len(m.result.RelevantSources) {
					m.cursor = -1
				}
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if m.result != nil && len(m.result.RelevantSources) > 0 {
				m.cursor--
				if m.cursor < -1 {
					m.cursor = len(m.result.RelevantSources) - 1
				}
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Qiyas — ask about Islamic ethics")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	body := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	if m.result == nil {
		return "No answer yet."
	}
	if m.cursor < 0 {
		return m.result.Reasoning
	}
	src := m.result.RelevantSources[m.cursor]
	title := refStyle.Render(fmt.Sprintf("Source %d/%d  %s %s", m.cursor+1, len(m.result.RelevantSources), src.SourceType, src.Reference))
	var b strings.Builder
	b.WriteString(title + "\n\n" + src.Text + "\n")
	if len(src.Topics) > 0 {
		b.WriteString("\nTopics: " + strings.Join(src.Topics, ", "))
	}
	if len(src.Principles) > 0 {
		b.WriteString("\nPrinciples: " + strings.Join(src.Principles, ", "))
	}
	if len(src.Context) > 0 {
		b.WriteString("\n\nSurrounding verses:")
		for ref, text := range src.Context {
			b.WriteString(fmt.Sprintf("\n  %s: %s", ref, text))
		}
	}
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	refStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
