package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/classistant/classistant/internal/aid"
	"github.com/classistant/classistant/internal/chat"
	"github.com/classistant/classistant/internal/quiz"
)

// View implements tea.Model.
// Uses AltScreen with a viewport for scrollable content.
func (m *Model) View() tea.View {
	m.viewBuf.Reset()

	_, _ = m.viewBuf.WriteString(m.viewport.View())
	_, _ = m.viewBuf.WriteString("\n")

	_, _ = m.viewBuf.WriteString(m.renderSeparator())
	_, _ = m.viewBuf.WriteString("\n")

	// The input prompt only belongs to the chat surface; aid surfaces are
	// keyboard-driven.
	if m.mode == ModeChat {
		_, _ = m.viewBuf.WriteString(m.styles.Prompt.Render("> "))
		_, _ = m.viewBuf.WriteString(m.input.View())
		_, _ = m.viewBuf.WriteString("\n")
		_, _ = m.viewBuf.WriteString(m.renderSeparator())
		_, _ = m.viewBuf.WriteString("\n")
	}

	_, _ = m.viewBuf.WriteString(m.renderStatusBar())

	v := tea.NewView(m.viewBuf.String())
	v.AltScreen = true
	return v
}

// rebuildViewportContent reconstructs the viewport for the active surface.
func (m *Model) rebuildViewportContent() {
	var content string
	switch m.mode {
	case ModeQuiz:
		content = m.renderQuiz()
	case ModeSummary:
		content = m.renderSummary()
	case ModeGallery:
		content = m.renderGallery()
	default:
		content = m.renderChat()
	}
	m.viewport.SetContent(content)
}

func (m *Model) renderChat() string {
	var b strings.Builder

	_, _ = b.WriteString(m.styles.RenderBanner())
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(m.styles.RenderWelcomeTips())
	_, _ = b.WriteString("\n")

	for _, msg := range m.session.Messages() {
		switch msg.Sender {
		case chat.SenderUser:
			_, _ = b.WriteString(m.styles.User.Render("You> "))
			_, _ = b.WriteString(msg.Text)
			switch msg.Status {
			case chat.StatusPending:
				_, _ = b.WriteString(m.styles.Pending.Render("  (sending...)"))
			case chat.StatusFailed:
				_, _ = b.WriteString(m.styles.Error.Render("  (failed - /retry to resend)"))
			}
		case chat.SenderAssistant:
			_, _ = b.WriteString(m.styles.Assistant.Render("Tibby> "))
			_, _ = b.WriteString(m.markdown.Render(msg.Text))
			if msg.FileID != "" {
				_, _ = b.WriteString("\n")
				_, _ = b.WriteString(m.styles.System.Render("  (open it with /aids)"))
			}
		case chat.SenderOther:
			_, _ = b.WriteString(m.styles.Muted.Render("Peer> "))
			_, _ = b.WriteString(msg.Text)
		}
		_, _ = b.WriteString("\n\n")
	}

	for _, n := range m.notices {
		if n.isErr {
			_, _ = b.WriteString(m.styles.Error.Render("Error: " + n.text))
		} else {
			_, _ = b.WriteString(m.styles.System.Render(n.text))
		}
		_, _ = b.WriteString("\n\n")
	}

	if m.state == StateThinking {
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(" Thinking...\n\n")
	}
	if m.creating {
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(" Generating...\n\n")
	}

	return b.String()
}

func (m *Model) renderQuiz() string {
	p := m.quizPlayer
	if p == nil {
		return ""
	}

	var b strings.Builder
	_, _ = b.WriteString(m.styles.Title.Render("Quiz"))
	_, _ = b.WriteString("\n\n")

	for qi, q := range p.Questions() {
		cursor := "  "
		if qi == m.quizCursor {
			cursor = m.styles.Cursor.Render("> ")
		}
		_, _ = b.WriteString(fmt.Sprintf("%s%d. %s", cursor, qi+1, q.Text))
		_, _ = b.WriteString("\n")

		for oi, option := range q.Options {
			line := fmt.Sprintf("     %s) %s", aid.OptionLetter(oi), option)
			switch p.ClassifyOption(qi, oi) {
			case quiz.OptionCorrect:
				line = m.styles.Correct.Render(line + "  ✓")
			case quiz.OptionIncorrect:
				line = m.styles.Incorrect.Render(line + "  ✗")
			case quiz.OptionSelected:
				line = m.styles.Selected.Render(line)
			default:
				line = m.styles.Muted.Render(line)
			}
			_, _ = b.WriteString(line)
			_, _ = b.WriteString("\n")
		}
		_, _ = b.WriteString("\n")
	}

	if score := p.Score(); score != "" {
		_, _ = b.WriteString(m.styles.Title.Render("Score: " + score))
		_, _ = b.WriteString("\n")
	} else if p.State() == quiz.StateReady {
		_, _ = b.WriteString(m.styles.System.Render("Answer with a-d, submit with Enter."))
		_, _ = b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) renderSummary() string {
	p := m.summaryPlayer
	if p == nil {
		return ""
	}

	section := p.Current()
	var b strings.Builder

	_, _ = b.WriteString(m.styles.Title.Render(section.Title))
	_, _ = b.WriteString(m.styles.Muted.Render(
		fmt.Sprintf("   (%d/%d)", p.Index()+1, len(p.Sections()))))
	_, _ = b.WriteString("\n\n")

	if section.ImageURL != "" {
		switch {
		case p.ImageError() != nil:
			_, _ = b.WriteString(m.styles.Error.Render("[image unavailable: " + p.ImageError().Error() + "]"))
		case p.ImageReady():
			_, _ = b.WriteString(m.styles.Muted.Render("[image: " + section.ImageURL + "]"))
		default:
			_, _ = b.WriteString(m.styles.Muted.Render("[image loading...]"))
		}
		_, _ = b.WriteString("\n\n")
	}

	_, _ = b.WriteString(m.markdown.Render(section.Text))
	_, _ = b.WriteString("\n\n")

	audio := "off"
	if p.AudioEnabled() {
		audio = "on"
		if p.CurrentAudio() != nil {
			audio = "playing"
		}
	}
	_, _ = b.WriteString(m.styles.System.Render("Narration: " + audio))
	_, _ = b.WriteString("\n")

	return b.String()
}

func (m *Model) renderGallery() string {
	var b strings.Builder
	_, _ = b.WriteString(m.styles.Title.Render("Learning aids"))
	if m.galleryQuery != "" {
		_, _ = b.WriteString(m.styles.Muted.Render("   filter: " + m.galleryQuery))
	}
	sortLabel := "newest first"
	if m.gallerySort == aid.SortByType {
		sortLabel = "by type"
	}
	_, _ = b.WriteString(m.styles.Muted.Render("   sorted " + sortLabel))
	_, _ = b.WriteString("\n\n")

	if len(m.galleryAids) == 0 {
		_, _ = b.WriteString(m.styles.System.Render("Nothing here yet. Try /quiz or /summary in the chat."))
		_, _ = b.WriteString("\n")
		return b.String()
	}

	for i, a := range m.galleryAids {
		cursor := "  "
		if i == m.galleryCursor {
			cursor = m.styles.Cursor.Render("> ")
		}
		_, _ = b.WriteString(fmt.Sprintf("%s%-12s %s", cursor, a.Type.DisplayName(), a.Title))
		_, _ = b.WriteString("\n")
	}

	return b.String()
}

// renderSeparator returns a horizontal line separator.
func (m *Model) renderSeparator() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	return m.styles.Separator.Render(strings.Repeat("─", width))
}

// renderStatusBar returns surface-appropriate keyboard shortcut help.
func (m *Model) renderStatusBar() string {
	var bindings []key.Binding
	switch m.mode {
	case ModeQuiz:
		bindings = []key.Binding{
			m.keys.Answer, m.keys.SubmitQuiz, m.keys.Back, m.keys.Quit,
		}
	case ModeSummary:
		bindings = []key.Binding{
			m.keys.Navigate, m.keys.Audio, m.keys.Back, m.keys.Quit,
		}
	case ModeGallery:
		bindings = []key.Binding{
			m.keys.Open, m.keys.Sort, m.keys.Back, m.keys.Quit,
		}
	default:
		bindings = []key.Binding{
			m.keys.Submit, m.keys.NewLine, m.keys.History,
			m.keys.Cancel, m.keys.Quit, m.keys.ScrollUp,
		}
	}
	return m.help.ShortHelpView(bindings)
}
