// Package tui is the terminal chat interface: a staged loading screen
// followed by a streaming chat view with thinking traces and citations.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/beri-ai/cli/internal/app"
	"github.com/beri-ai/cli/internal/corpus"
	"github.com/beri-ai/cli/internal/rag"
)

// SuggestedQuestions are shown on the empty chat screen. Each one is
// covered by the FAQ cache so first impressions are instant.
var SuggestedQuestions = []string{
	"What are the school fees?",
	"How do I apply for 11+ entry?",
	"What A-Level subjects are offered?",
	"What sports are available?",
}

// Message is one chat bubble.
type Message struct {
	ID          uuid.UUID
	Role        string
	Content     string
	Thinking    string
	Sources     []corpus.Citation
	Streaming   bool
	InReasoning bool
}

type uiState int

const (
	stateLoading uiState = iota
	stateChat
	stateError
)

// Event messages relayed from the pipeline goroutines. Answer events
// carry the ID of the assistant message they belong to, so a stale event
// can never touch a later message.
type (
	progressMsg app.Progress
	initDoneMsg struct{}
	initErrMsg  struct{ err error }

	streamMsg struct {
		id     uuid.UUID
		update rag.Update
	}
	answerMsg struct {
		id     uuid.UUID
		result *rag.Result
	}
	answerErrMsg struct {
		id  uuid.UUID
		err error
	}
)

// Model is the Bubble Tea model for the application.
type Model struct {
	app    *app.App
	events chan tea.Msg

	state    uiState
	progress app.Progress
	errText  string

	spinner  spinner.Model
	input    textinput.Model
	viewport viewport.Model

	messages  []Message
	streaming bool
	cancel    context.CancelFunc

	ready  bool
	width  int
	height int
}

// New creates the TUI model over an assembled (but not yet initialised)
// application.
func New(a *app.App) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the school and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		app:      a,
		events:   make(chan tea.Msg, 16),
		state:    stateLoading,
		spinner:  sp,
		input:    ti,
		viewport: viewport.New(0, 0),
	}
}

// Run starts the TUI and blocks until it exits.
func Run(a *app.App) error {
	p := tea.NewProgram(New(a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init starts the initialisation sequence in the background.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink, m.startInit(), m.listen())
}

// listen relays one event from the pipeline goroutines into the update
// loop; it is re-armed after every event.
func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m Model) startInit() tea.Cmd {
	events := m.events
	a := m.app
	return func() tea.Msg {
		go func() {
			err := a.Initialise(context.Background(), func(p app.Progress) {
				events <- progressMsg(p)
			})
			if err != nil {
				events <- initErrMsg{err: err}
				return
			}
			events <- initDoneMsg{}
		}()
		return nil
	}
}

// Update handles key, window, and pipeline events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			// First press interrupts an in-flight answer, second quits.
			if m.streaming && m.cancel != nil {
				m.cancel()
				return m, nil
			}
			return m, tea.Quit
		}
		if m.state != stateChat {
			return m, nil
		}
		switch msg.String() {
		case "enter":
			return m.submit()
		case "up":
			m.viewport.ScrollUp(1)
			return m, nil
		case "down":
			m.viewport.ScrollDown(1)
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressMsg:
		m.progress = app.Progress(msg)
		return m, m.listen()

	case initDoneMsg:
		m.state = stateChat
		m.refreshViewport()
		return m, m.listen()

	case initErrMsg:
		m.state = stateError
		m.errText = msg.err.Error()
		return m, m.listen()

	case streamMsg:
		m.applyStreamUpdate(msg.id, msg.update)
		m.refreshViewport()
		return m, m.listen()

	case answerMsg:
		m.finishAnswer(msg.id, msg.result)
		m.refreshViewport()
		return m, m.listen()

	case answerErrMsg:
		m.failAnswer(msg.id, msg.err)
		m.refreshViewport()
		return m, m.listen()
	}

	return m, nil
}

func (m *Model) resize() {
	_, ih := inputBoxStyle.GetFrameSize()
	_, ch := chatBoxStyle.GetFrameSize()
	reserved := 2 + ih + 1 + ch // header, input frame, status, chat frame
	vh := m.height - reserved - 1
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = max(20, m.width-4)
	m.viewport.Height = vh
	m.input.Width = max(20, m.width-8)
	m.refreshViewport()
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	query := strings.TrimSpace(m.input.Value())
	if query == "" || m.streaming {
		return m, nil
	}
	m.input.SetValue("")

	assistantID := uuid.New()
	m.messages = append(m.messages,
		Message{ID: uuid.New(), Role: "user", Content: query},
		Message{ID: assistantID, Role: "assistant", Streaming: true},
	)
	m.streaming = true
	m.refreshViewport()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	events := m.events
	answerer := m.app.Answerer()
	return m, func() tea.Msg {
		go func() {
			result, err := answerer.Answer(ctx, query, func(u rag.Update) {
				events <- streamMsg{id: assistantID, update: u}
			})
			if err != nil {
				events <- answerErrMsg{id: assistantID, err: err}
				return
			}
			events <- answerMsg{id: assistantID, result: result}
		}()
		return nil
	}
}

// message returns the chat message with the given ID, or nil.
func (m *Model) message(id uuid.UUID) *Message {
	for i := range m.messages {
		if m.messages[i].ID == id {
			return &m.messages[i]
		}
	}
	return nil
}

func (m *Model) applyStreamUpdate(id uuid.UUID, u rag.Update) {
	msg := m.message(id)
	if msg == nil {
		return
	}
	msg.Content = u.Answer
	msg.Thinking = u.Thinking
	msg.InReasoning = u.InReasoning
}

func (m *Model) finishAnswer(id uuid.UUID, result *rag.Result) {
	m.streaming = false
	m.cancel = nil
	msg := m.message(id)
	if msg == nil {
		return
	}
	msg.Content = result.Answer
	msg.Thinking = result.Thinking
	msg.Sources = result.Sources
	msg.Streaming = false
	msg.InReasoning = false
}

func (m *Model) failAnswer(id uuid.UUID, err error) {
	m.streaming = false
	m.cancel = nil
	msg := m.message(id)
	if msg == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		msg.Content = ""
	} else {
		msg.Content = rag.ApologyMessage
	}
	msg.Streaming = false
}

// View renders the current screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	switch m.state {
	case stateLoading:
		return m.loadingView()
	case stateError:
		return m.errorView()
	default:
		return m.chatView()
	}
}

func (m Model) loadingView() string {
	title := titleStyle.Render("BERI")
	subtitle := subtitleStyle.Render("Bespoke Education Retrieval Infrastructure")
	bar := renderProgressBar(m.progress.Percent, 40)
	status := fmt.Sprintf("%s %s (%d%%)", m.spinner.View(), m.progress.Message, m.progress.Percent)

	body := lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "", bar, status)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m Model) errorView() string {
	title := errorStyle.Render("BERI could not start")
	body := lipgloss.JoinVertical(lipgloss.Left, title, "", m.errText, "", subtitleStyle.Render("Press Ctrl+C to exit."))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m Model) chatView() string {
	header := titleStyle.Render("BERI") + " " +
		subtitleStyle.Render(fmt.Sprintf("— %s · %s tier", m.app.Model(), m.app.Device().Tier))
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())

	status := statusStyle.Render("Enter to send · ↑/↓ to scroll · Ctrl+C to quit")
	if m.streaming {
		status = statusStyle.Render(m.spinner.View() + " answering...")
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, chat, input, status)
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m Model) renderMessages() string {
	if len(m.messages) == 0 {
		var lines []string
		lines = append(lines, subtitleStyle.Render("Try one of these:"), "")
		for _, q := range SuggestedQuestions {
			lines = append(lines, suggestionStyle.Render("  • "+q))
		}
		return strings.Join(lines, "\n")
	}

	var parts []string
	for _, msg := range m.messages {
		if msg.Role == "user" {
			parts = append(parts, userLabelStyle.Render("You")+"\n"+msg.Content)
			continue
		}

		var section []string
		section = append(section, assistantLabelStyle.Render("BERI"))
		if msg.Thinking != "" {
			label := "Thinking"
			if msg.InReasoning {
				label = "Thinking..."
			}
			section = append(section, thinkingStyle.Render(label+": "+msg.Thinking))
		}
		if msg.Content != "" {
			section = append(section, msg.Content)
		} else if msg.Streaming && msg.Thinking == "" {
			section = append(section, thinkingStyle.Render("..."))
		}
		if len(msg.Sources) > 0 {
			section = append(section, sourceStyle.Render("Sources:"))
			for _, s := range msg.Sources {
				section = append(section, sourceStyle.Render(fmt.Sprintf("  - %s — %s", s.Source, s.Section)))
			}
		}
		parts = append(parts, strings.Join(section, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

func renderProgressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
