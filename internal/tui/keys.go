package tui

import (
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/classistant/classistant/internal/aid"
	"github.com/classistant/classistant/internal/chat"
)

// Slash command constants.
const (
	cmdHelp    = "/help"
	cmdClear   = "/clear"
	cmdExit    = "/exit"
	cmdQuit    = "/quit"
	cmdQuiz    = "/quiz"
	cmdSummary = "/summary"
	cmdMindmap = "/mindmap"
	cmdAids    = "/aids"
	cmdRetry   = "/retry"
)

const helpText = "Commands:\n" +
	"  " + cmdQuiz + " [topic]     generate a quiz\n" +
	"  " + cmdSummary + " [topic]  generate a visual summary\n" +
	"  " + cmdMindmap + " [topic]  create a mind map\n" +
	"  " + cmdAids + " [filter]    browse created aids\n" +
	"  " + cmdRetry + "            resend the last failed message\n" +
	"  " + cmdClear + ", " + cmdHelp + ", " + cmdExit + "\n" +
	"Shortcuts:\n" +
	"  Enter: send  Shift+Enter: newline  Ctrl+C: cancel/clear\n" +
	"  Ctrl+D: exit  Up/Down: history  PgUp/PgDn: scroll"

// keyMap holds key bindings for help bar display.
type keyMap struct {
	Submit     key.Binding
	NewLine    key.Binding
	History    key.Binding
	Cancel     key.Binding
	Quit       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Back       key.Binding
	Navigate   key.Binding
	Answer     key.Binding
	SubmitQuiz key.Binding
	Audio      key.Binding
	Open       key.Binding
	Sort       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		NewLine:    key.NewBinding(key.WithKeys("shift+enter"), key.WithHelp("s+enter", "newline")),
		History:    key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "history")),
		Cancel:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "cancel")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "exit")),
		ScrollUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to chat")),
		Navigate:   key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "section")),
		Answer:     key.NewBinding(key.WithKeys("a", "b", "c", "d"), key.WithHelp("a-d", "answer")),
		SubmitQuiz: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Audio:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "audio on/off")),
		Open:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	}
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.Key()

	if k.Mod&tea.ModCtrl != 0 {
		switch k.Code {
		case 'c':
			return m.handleCtrlC()
		case 'd':
			return m, m.cleanup()
		}
	}

	switch m.mode {
	case ModeQuiz:
		return m.handleQuizKey(k)
	case ModeSummary:
		return m.handleSummaryKey(k)
	case ModeGallery:
		return m.handleGalleryKey(k)
	}

	switch k.Code {
	case tea.KeyEnter:
		// Enter without Shift = submit, Shift+Enter = newline (textarea)
		if m.state == StateInput && k.Mod&tea.ModShift == 0 {
			return m.handleSubmit()
		}

	case tea.KeyUp:
		if m.state == StateInput && m.input.Line() == 0 {
			return m.navigateHistory(-1)
		}

	case tea.KeyDown:
		if m.state == StateInput && m.input.Line() == m.input.LineCount()-1 {
			return m.navigateHistory(1)
		}

	case tea.KeyPgUp:
		m.viewport.PageUp()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.PageDown()
		return m, nil
	}

	// Always allow typing, even while the assistant is replying.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleQuizKey(k tea.Key) (tea.Model, tea.Cmd) {
	p := m.quizPlayer
	if p == nil {
		m.mode = ModeChat
		return m, nil
	}

	switch k.Code {
	case tea.KeyEscape:
		m.quizPlayer = nil
		m.mode = ModeChat
		m.rebuildViewportContent()
		return m, m.input.Focus()

	case tea.KeyUp:
		if m.quizCursor > 0 {
			m.quizCursor--
		}
	case tea.KeyDown:
		if m.quizCursor < len(p.Questions())-1 {
			m.quizCursor++
		}
	case 'a', 'b', 'c', 'd':
		p.SelectAnswer(m.quizCursor, strings.ToUpper(string(k.Code)))
	case tea.KeyEnter:
		if _, err := p.Submit(m.ctx); err != nil {
			m.errorMessage("Submit failed: " + err.Error())
		}
	}
	m.rebuildViewportContent()
	return m, nil
}

func (m *Model) handleSummaryKey(k tea.Key) (tea.Model, tea.Cmd) {
	p := m.summaryPlayer
	if p == nil {
		m.mode = ModeChat
		return m, nil
	}

	switch k.Code {
	case tea.KeyEscape:
		m.closeSummary()
		m.mode = ModeChat
		m.rebuildViewportContent()
		return m, m.input.Focus()

	case tea.KeyLeft:
		p.Previous(m.ctx)
	case tea.KeyRight:
		p.Next(m.ctx)
	case 'm':
		p.SetAudioEnabled(m.ctx, !p.AudioEnabled())
	}
	m.rebuildViewportContent()
	return m, tea.Batch(m.listenCurrentAudio(), m.probeCurrentImage())
}

func (m *Model) handleGalleryKey(k tea.Key) (tea.Model, tea.Cmd) {
	switch k.Code {
	case tea.KeyEscape:
		m.mode = ModeChat
		m.rebuildViewportContent()
		return m, m.input.Focus()

	case tea.KeyUp:
		if m.galleryCursor > 0 {
			m.galleryCursor--
		}
	case tea.KeyDown:
		if m.galleryCursor < len(m.galleryAids)-1 {
			m.galleryCursor++
		}
	case 's':
		if m.gallerySort == aid.SortNewest {
			m.gallerySort = aid.SortByType
		} else {
			m.gallerySort = aid.SortNewest
		}
		m.refreshGallery()
	case tea.KeyEnter:
		if m.galleryCursor < len(m.galleryAids) {
			return m.openAid(m.galleryAids[m.galleryCursor])
		}
	}
	m.rebuildViewportContent()
	return m, nil
}

func (m *Model) handleCtrlC() (tea.Model, tea.Cmd) {
	now := time.Now()

	// Double Ctrl+C within 1 second = quit
	if now.Sub(m.lastCtrlC) < time.Second {
		return m, m.cleanup()
	}
	m.lastCtrlC = now

	if m.mode == ModeChat && m.state == StateInput {
		m.input.Reset()
	}
	return m, nil
}

func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		return m.handleSlashCommand(text)
	}

	m.history = append(m.history, text)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	m.historyIdx = len(m.history)

	m.input.Reset()
	m.state = StateThinking

	return m, tea.Batch(
		m.spinner.Tick,
		m.sendMessage(text),
	)
}

func (m *Model) handleSlashCommand(line string) (tea.Model, tea.Cmd) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	m.input.Reset()

	switch name {
	case cmdHelp:
		m.systemMessage(helpText)
	case cmdClear:
		m.viewport.SetContent("")
	case cmdExit, cmdQuit:
		return m, m.cleanup()
	case cmdQuiz:
		return m.startAid(aid.TypeQuiz, arg)
	case cmdSummary:
		return m.startAid(aid.TypeSummary, arg)
	case cmdMindmap:
		return m.startAid(aid.TypeMindmap, arg)
	case cmdAids:
		m.galleryQuery = arg
		m.galleryCursor = 0
		m.refreshGallery()
		m.mode = ModeGallery
	case cmdRetry:
		return m, m.retryLastFailed()
	default:
		m.systemMessage("Unknown command: " + name)
	}
	m.rebuildViewportContent()
	return m, nil
}

// startAid kicks off one aid pipeline. The trigger is disabled while one
// is in flight for this session.
func (m *Model) startAid(typ aid.Type, topic string) (tea.Model, tea.Cmd) {
	if m.creating {
		m.systemMessage("An aid is already being created, hang on...")
		m.rebuildViewportContent()
		return m, nil
	}
	m.creating = true
	m.systemMessage("Creating " + typ.DisplayName() + "...")
	m.rebuildViewportContent()
	return m, tea.Batch(m.spinner.Tick, m.createAid(typ, topic))
}

// openAid routes a gallery selection to the matching player surface.
func (m *Model) openAid(a aid.Aid) (tea.Model, tea.Cmd) {
	switch a.Type {
	case aid.TypeQuiz:
		return m, m.openQuiz(a.FileID)
	case aid.TypeSummary:
		return m, m.openSummary(a.FileID)
	default:
		m.systemMessage("Mind maps have no viewer yet: " + a.Title)
		m.rebuildViewportContent()
		return m, nil
	}
}

func (m *Model) retryLastFailed() tea.Cmd {
	msgs := m.session.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Status == chat.StatusFailed {
			id := msgs[i].ID
			return func() tea.Msg {
				err := m.session.Retry(m.ctx, id)
				return replyMsg{err: err}
			}
		}
	}
	m.systemMessage("Nothing to retry.")
	m.rebuildViewportContent()
	return nil
}

func (m *Model) refreshGallery() {
	aids := aid.Filter(m.registry.All(), m.galleryQuery)
	aid.SortAids(aids, m.gallerySort)
	m.galleryAids = aids
	if m.galleryCursor >= len(aids) {
		m.galleryCursor = 0
	}
}

func (m *Model) navigateHistory(delta int) (tea.Model, tea.Cmd) {
	if len(m.history) == 0 {
		return m, nil
	}

	m.historyIdx += delta
	if m.historyIdx < 0 {
		m.historyIdx = 0
	}
	if m.historyIdx > len(m.history) {
		m.historyIdx = len(m.history)
	}

	if m.historyIdx == len(m.history) {
		m.input.SetValue("")
	} else {
		m.input.SetValue(m.history[m.historyIdx])
		m.input.CursorEnd()
	}
	return m, nil
}
