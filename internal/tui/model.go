package tui

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/domain"
	"docqa/internal/service"
)

// QAPort is the TUI-facing subset of the question answering service.
type QAPort interface {
	Ask(ctx context.Context, question string) (service.Answer, error)
}

type exchange struct {
	question string
	answer   string
	context  string
	noMatch  bool
}

type answerMsg struct {
	question string
	answer   service.Answer
	err      error
}

// Model is the Bubble Tea model for interactive question answering.
type Model struct {
	ctx         context.Context
	service     QAPort
	input       textinput.Model
	viewport    viewport.Model
	history     []exchange
	status      string
	cursor      int
	showContext bool
	busy        bool
	ready       bool
}

// New creates a chat model bound to service.
func New(ctx context.Context, service QAPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		service:  service,
		input:    ti,
		viewport: vp,
		status:   "Ready. Tab toggles context, up/down browse history.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := questionBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case answerMsg:
		m.busy = false
		ex := exchange{question: msg.question, answer: msg.answer.Text, context: msg.answer.Context}
		switch {
		case errors.Is(msg.err, domain.ErrNoMatch):
			ex.noMatch = true
			m.status = "No answer found."
		case msg.err != nil:
			m.status = "Error: " + msg.err.Error()
			m.viewport.SetContent(m.renderCurrent())
			return m, nil
		default:
			m.status = fmt.Sprintf("Answered %q", msg.question)
		}
		m.history = append(m.history, ex)
		m.cursor = len(m.history) - 1
		m.viewport.SetContent(m.renderCurrent())
		m.viewport.GotoTop()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Thinking..."
			m.input.SetValue("")
			return m, m.ask(q)
		case "tab":
			m.showContext = !m.showContext
			m.viewport.SetContent(m.renderCurrent())
			return m, nil
		case "up":
			if len(m.history) > 0 {
				m.cursor = (m.cursor - 1 + len(m.history)) % len(m.history)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "down":
			if len(m.history) > 0 {
				m.cursor = (m.cursor + 1) % len(m.history)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	ctx, svc := m.ctx, m.service
	return func() tea.Msg {
		ans, err := svc.Ask(ctx, question)
		return answerMsg{question: question, answer: ans, err: err}
	}
}

// View renders the chat layout and the selected exchange.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document Q&A")
	body := answerBoxStyle.Render(m.viewport.View())
	input := questionBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	if len(m.history) == 0 {
		return "No questions yet."
	}
	ex := m.history[m.cursor]
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d/%d: %s\n\n", m.cursor+1, len(m.history), ex.question)
	if ex.noMatch {
		b.WriteString("No answer found.")
		return b.String()
	}
	b.WriteString(labelStyle.Render("Answer:"))
	b.WriteString("\n")
	b.WriteString(ex.answer)
	if m.showContext {
		b.WriteString("\n\n")
		b.WriteString(labelStyle.Render("Context:"))
		b.WriteString("\n")
		b.WriteString(highlightBestSentence(ex.context, ex.question))
	}
	return b.String()
}

var (
	answerBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(true)
	highlightStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe    = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe       = regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`)
)

// highlightBestSentence marks the context sentence sharing the most words
// with the question.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	var sentences []string
	for _, s := range sentenceRe.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
