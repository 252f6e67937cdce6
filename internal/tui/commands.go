package tui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/classistant/classistant/internal/aid"
	"github.com/classistant/classistant/internal/chat"
	"github.com/classistant/classistant/internal/quiz"
	"github.com/classistant/classistant/internal/summary"
)

// Bubble Tea messages produced by background commands.
type (
	historyLoadedMsg struct{}

	replyMsg struct {
		reply chat.Message
		err   error
	}

	aidCreatedMsg struct {
		aid aid.Aid
		err error
	}

	quizOpenedMsg struct {
		player *quiz.Player
		err    error
	}

	summaryOpenedMsg struct {
		player *summary.Player
	}

	audioDoneMsg struct {
		handle summary.Handle
	}

	imageReadyMsg struct {
		index int
		err   error
	}
)

// loadHistory fetches the timeline; the session degrades to a welcome
// message on its own, so this never fails.
func (m *Model) loadHistory() tea.Cmd {
	return func() tea.Msg {
		m.session.Load(m.ctx)
		return historyLoadedMsg{}
	}
}

// sendMessage persists the user's text and requests the assistant reply.
func (m *Model) sendMessage(text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := m.session.Send(m.ctx, text)
		return replyMsg{reply: reply, err: err}
	}
}

// createAid runs the generate-persist-announce pipeline off the event loop.
func (m *Model) createAid(typ aid.Type, topic string) tea.Cmd {
	return func() tea.Msg {
		created, err := m.orchestrator.CreateAid(m.ctx, typ, topic)
		return aidCreatedMsg{aid: created, err: err}
	}
}

// openQuiz loads a quiz artifact into a fresh player.
func (m *Model) openQuiz(fileID string) tea.Cmd {
	return func() tea.Msg {
		p := quiz.NewPlayer(m.store, fileID, m.logger)
		if err := p.Load(m.ctx); err != nil {
			return quizOpenedMsg{err: err}
		}
		return quizOpenedMsg{player: p}
	}
}

// openSummary loads a summary artifact into a fresh player. The player
// falls back to an error section itself, so there is no error case.
func (m *Model) openSummary(fileID string) tea.Cmd {
	return func() tea.Msg {
		p := summary.NewPlayer(m.store, fileID, m.audio, m.logger)
		p.Load(m.ctx)
		return summaryOpenedMsg{player: p}
	}
}

// probeCurrentImage checks the current section's illustration off the
// event loop. The section index travels with the result so a probe that
// resolves after a section change is discarded.
func (m *Model) probeCurrentImage() tea.Cmd {
	p := m.summaryPlayer
	if p == nil || p.ImageReady() {
		return nil
	}
	section := p.Current()
	if section.ImageURL == "" {
		return nil
	}
	index := p.Index()
	return func() tea.Msg {
		return imageReadyMsg{index: index, err: m.images.Probe(m.ctx, section.ImageURL)}
	}
}

// listenCurrentAudio waits for the summary player's live handle to finish.
// At most one listener exists per handle; stopped or stale handles still
// deliver, and the player ignores them.
func (m *Model) listenCurrentAudio() tea.Cmd {
	if m.summaryPlayer == nil {
		return nil
	}
	h := m.summaryPlayer.CurrentAudio()
	if h == nil || h == m.listening {
		return nil
	}
	m.listening = h
	return func() tea.Msg {
		<-h.Done()
		return audioDoneMsg{handle: h}
	}
}
