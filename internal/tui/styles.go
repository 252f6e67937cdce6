package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Classistant brand color.
const brandPurple = "#7C5CFC"

// TIBBY ASCII art (filled block style).
var tibbyArt = []string{
	"  ████████╗██╗██████╗ ██████╗ ██╗   ██╗",
	"  ╚══██╔══╝██║██╔══██╗██╔══██╗╚██╗ ██╔╝",
	"     ██║   ██║██████╔╝██████╔╝ ╚████╔╝ ",
	"     ██║   ██║██╔══██╗██╔══██╗  ╚██╔╝  ",
	"     ██║   ██║██████╔╝██████╔╝   ██║   ",
	"     ╚═╝   ╚═╝╚═════╝ ╚═════╝    ╚═╝   ",
}

// Styles contains all lipgloss styles for the TUI.
type Styles struct {
	Banner    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
	Pending   lipgloss.Style
	Tips      lipgloss.Style
	Error     lipgloss.Style
	Prompt    lipgloss.Style
	Separator lipgloss.Style
	StatusBar lipgloss.Style

	// Aid surfaces
	Title     lipgloss.Style
	Cursor    lipgloss.Style
	Correct   lipgloss.Style
	Incorrect lipgloss.Style
	Selected  lipgloss.Style
	Muted     lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Banner:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(brandPurple)),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		System:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		Pending:   lipgloss.NewStyle().Faint(true),
		Tips:      lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),

		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(brandPurple)),
		Cursor:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Correct:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Incorrect: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Selected:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// RenderBanner returns the TIBBY ASCII art banner as a styled string.
func (s Styles) RenderBanner() string {
	var b strings.Builder
	for _, line := range tibbyArt {
		_, _ = b.WriteString(s.Banner.Render(line))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}

// welcomeTips contains getting started tips displayed under the banner.
var welcomeTips = []string{
	"Tips for getting started:",
	"  • Ask questions naturally - Tibby knows your course context",
	"  • /quiz, /summary or /mindmap create a learning aid",
	"  • /aids browses everything you have created",
	"  • Press Ctrl+C to cancel, Ctrl+D to exit",
}

// RenderWelcomeTips returns styled welcome tips.
func (s Styles) RenderWelcomeTips() string {
	var b strings.Builder
	for _, tip := range welcomeTips {
		_, _ = b.WriteString(s.Tips.Render(tip))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}
