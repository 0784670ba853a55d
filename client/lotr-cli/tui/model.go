package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"LOTR_RAG/client/lotr-cli/chatclient"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrorReply is shown in place of an answer when the service call fails.
const ErrorReply = "Sorry, I encountered an error. Please try again."

// Asker is the TUI-facing subset of the chat client.
type Asker interface {
	Chat(ctx context.Context, message string) (*chatclient.Reply, error)
}

type role int

const (
	roleUser role = iota
	roleAssistant
)

type entry struct {
	role    role
	text    string
	sources int
}

type replyMsg struct {
	reply *chatclient.Reply
	err   error
}

// Model is the Bubble Tea model of the chat window.
type Model struct {
	asker    Asker
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	entries  []entry
	waiting  bool
	ready    bool
}

// New creates the chat model. Each question is bounded by timeout.
func New(asker Asker, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about LOTR characters, plot, locations..."
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		asker:    asker,
		timeout:  timeout,
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
	}
	m.viewport.SetContent(m.renderEntries())
	return m
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := boxStyle.GetFrameSize()
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-4-2*bh)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.waiting {
				return m, nil
			}
			m.entries = append(m.entries, entry{role: roleUser, text: q})
			m.input.Reset()
			m.waiting = true
			m.refresh()
			return m, tea.Batch(m.spinner.Tick, m.ask(q))
		}

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.entries = append(m.entries, entry{role: roleAssistant, text: ErrorReply})
		} else {
			m.entries = append(m.entries, entry{role: roleAssistant, text: msg.reply.Message, sources: msg.reply.Sources})
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("Lord of the Rings RAG Chatbot")
	footer := hintStyle.Render("enter: send  esc: quit")
	return header + "\n" + boxStyle.Render(m.viewport.View()) + "\n" + boxStyle.Render(m.input.View()) + "\n" + footer
}

// ask runs a single chat call off the update loop.
func (m Model) ask(q string) tea.Cmd {
	asker, timeout := m.asker, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		reply, err := asker.Chat(ctx, q)
		return replyMsg{reply: reply, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderEntries())
	m.viewport.GotoBottom()
}

func (m Model) renderEntries() string {
	if len(m.entries) == 0 && !m.waiting {
		return hintStyle.Render("Welcome to Middle-earth!\nAsk me anything about The Lord of the Rings!")
	}

	wrap := lipgloss.NewStyle().Width(max(10, m.viewport.Width-4))
	var sb strings.Builder
	for _, e := range m.entries {
		switch e.role {
		case roleUser:
			sb.WriteString(userStyle.Render("You: "))
			sb.WriteString(wrap.Render(e.text))
		case roleAssistant:
			sb.WriteString(assistantStyle.Render("Loremaster: "))
			sb.WriteString(wrap.Render(e.text))
			if e.sources > 0 {
				sb.WriteString("\n")
				sb.WriteString(hintStyle.Render(fmt.Sprintf("Based on %d sources", e.sources)))
			}
		}
		sb.WriteString("\n\n")
	}
	if m.waiting {
		sb.WriteString(m.spinner.View() + " Thinking...")
	}
	return sb.String()
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
