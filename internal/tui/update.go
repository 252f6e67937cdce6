package tui

import (
	"errors"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/classistant/classistant/internal/aid"
	"github.com/classistant/classistant/internal/chat"
)

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo // Bubble Tea Update requires type switch on all message types
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Calculate viewport height: total - input - separators - help
		inputHeight := m.input.Height() + promptLines
		fixedHeight := separatorLines + inputHeight + helpLines
		vpHeight := max(msg.Height-fixedHeight, minViewport)

		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(vpHeight)
		m.input.SetWidth(msg.Width - 4) // Room for "> " prompt
		m.help.SetWidth(msg.Width)
		m.markdown.UpdateWidth(msg.Width)

		m.rebuildViewportContent()
		return m, nil

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state == StateThinking || m.creating {
			m.rebuildViewportContent()
		}
		return m, cmd

	case historyLoadedMsg:
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, nil

	case replyMsg:
		m.state = StateInput
		if msg.err != nil {
			m.errorMessage(msg.err.Error())
		}
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, m.input.Focus()

	case aidCreatedMsg:
		return m.handleAidCreated(msg)

	case quizOpenedMsg:
		if msg.err != nil {
			m.errorMessage("Could not open quiz: " + msg.err.Error())
			m.rebuildViewportContent()
			return m, nil
		}
		m.quizPlayer = msg.player
		m.quizCursor = 0
		m.mode = ModeQuiz
		m.rebuildViewportContent()
		return m, nil

	case summaryOpenedMsg:
		m.closeSummary()
		m.summaryPlayer = msg.player
		m.mode = ModeSummary
		m.rebuildViewportContent()
		return m, tea.Batch(m.listenCurrentAudio(), m.probeCurrentImage())

	case audioDoneMsg:
		if msg.handle == m.listening {
			m.listening = nil
		}
		if m.summaryPlayer != nil {
			m.summaryPlayer.AdvanceOnAudioDone(m.ctx, msg.handle)
			m.rebuildViewportContent()
			return m, tea.Batch(m.listenCurrentAudio(), m.probeCurrentImage())
		}
		return m, nil

	case imageReadyMsg:
		if m.summaryPlayer != nil && msg.index == m.summaryPlayer.Index() {
			m.summaryPlayer.MarkImageReady(msg.err)
			m.rebuildViewportContent()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleAidCreated settles one pipeline run. Announce failure still yields
// a usable aid; everything else is reported and leaves no aid behind.
func (m *Model) handleAidCreated(msg aidCreatedMsg) (tea.Model, tea.Cmd) {
	m.creating = false

	switch {
	case msg.err == nil:
		m.session.Append(chat.SenderAssistant,
			aid.AnnouncementText(msg.aid.Type, msg.aid.Title), msg.aid.FileID)

	case errors.Is(msg.err, aid.ErrBusy):
		m.systemMessage("An aid is already being created, hang on...")

	case errors.Is(msg.err, aid.ErrAnnounceFailed):
		m.systemMessage("Created " + msg.aid.Title + ", but could not post it to the chat.")

	default:
		m.errorMessage(msg.err.Error())
	}

	m.rebuildViewportContent()
	m.viewport.GotoBottom()
	return m, m.input.Focus()
}
