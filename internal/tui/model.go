// Package tui provides the Bubble Tea terminal interface for Classistant.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/classistant/classistant/internal/aid"
	"github.com/classistant/classistant/internal/api"
	"github.com/classistant/classistant/internal/chat"
	"github.com/classistant/classistant/internal/quiz"
	"github.com/classistant/classistant/internal/summary"
)

// Mode selects which surface fills the screen.
type Mode int

// TUI surfaces.
const (
	ModeChat    Mode = iota // conversation timeline + input
	ModeQuiz                // one quiz artifact
	ModeSummary             // one visual-summary artifact
	ModeGallery             // aid browsing and selection
)

// State tracks whether the chat surface is waiting on the assistant.
type State int

// Chat states.
const (
	StateInput    State = iota // awaiting user input
	StateThinking              // assistant reply in flight
)

// Memory bounds to prevent unbounded growth.
const (
	maxHistory = 100
	maxNotices = 20
)

// notice is a transient system or error line shown under the transcript.
type notice struct {
	text  string
	isErr bool
}

// Layout constants for viewport height calculation.
const (
	separatorLines = 2
	helpLines      = 1
	promptLines    = 1
	minViewport    = 3
)

// ArtifactStore is the artifact access the players need.
type ArtifactStore interface {
	GetFile(ctx context.Context, fileID string) (api.File, error)
	UpdateFile(ctx context.Context, fileID string, req api.UpdateFileRequest) error
}

// ImageProber checks a summary section's image URL in the background.
type ImageProber interface {
	Probe(ctx context.Context, imageURL string) error
}

// Model is the Bubble Tea model for the whole client.
type Model struct {
	// Input (textarea for multi-line support, Shift+Enter for newline)
	input      textarea.Model
	history    []string
	historyIdx int

	// State
	mode      Mode
	state     State
	creating  bool // aid pipeline in flight, trigger disabled
	lastCtrlC time.Time

	// Output
	spinner spinner.Model
	viewBuf strings.Builder // reusable buffer for View()

	// Scrollable message viewport
	viewport viewport.Model

	// Help bar for keyboard shortcuts
	help help.Model
	keys keyMap

	// Dependencies
	session      *chat.Session
	orchestrator *aid.Orchestrator
	registry     *aid.Registry
	store        ArtifactStore
	audio        summary.Driver
	images       ImageProber
	logger       *slog.Logger
	ctx          context.Context
	ctxCancel    context.CancelFunc

	// Aid surfaces
	quizPlayer    *quiz.Player
	quizCursor    int
	summaryPlayer *summary.Player
	listening     summary.Handle // handle a completion listener is parked on

	// Transient status lines shown under the transcript
	notices []notice

	// Gallery
	galleryAids   []aid.Aid
	galleryCursor int
	gallerySort   aid.SortMode
	galleryQuery  string

	// Dimensions
	width  int
	height int

	// Styles
	styles Styles

	// Markdown rendering (nil = graceful degradation to plain text)
	markdown *markdownRenderer
}

// Deps carries the collaborators the TUI drives.
type Deps struct {
	Session      *chat.Session
	Orchestrator *aid.Orchestrator
	Registry     *aid.Registry
	Store        ArtifactStore
	Audio        summary.Driver
	Images       ImageProber // nil = default HTTP prober
	Logger       *slog.Logger
}

// New creates the TUI model.
//
// ctx MUST be the same context passed to tea.WithContext() so cancellation
// behaves consistently.
func New(ctx context.Context, deps Deps) (*Model, error) {
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}
	if deps.Session == nil {
		return nil, errors.New("tui.New: session is required")
	}
	if deps.Orchestrator == nil {
		return nil, errors.New("tui.New: orchestrator is required")
	}
	if deps.Registry == nil {
		return nil, errors.New("tui.New: registry is required")
	}
	if deps.Store == nil {
		return nil, errors.New("tui.New: artifact store is required")
	}
	if deps.Audio == nil {
		deps.Audio = summary.NopDriver{}
	}
	if deps.Images == nil {
		deps.Images = summary.NewImageProber(nil)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)

	// Enter submits, Shift+Enter adds newline (default behavior)
	ta := textarea.New()
	ta.Placeholder = "Ask Tibby anything..."
	ta.SetHeight(1)
	ta.SetWidth(120)
	ta.MaxWidth = 0
	ta.ShowLineNumbers = false

	cleanStyle := textarea.StyleState{
		Base:        lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:      lipgloss.NewStyle(),
	}
	ta.SetStyles(textarea.Styles{
		Focused: cleanStyle,
		Blurred: cleanStyle,
	})
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	// Keys are routed explicitly in handleKey; the viewport's own bindings
	// would conflict with textarea and history navigation.
	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true
	vp.KeyMap = viewport.KeyMap{}

	return &Model{
		session:      deps.Session,
		orchestrator: deps.Orchestrator,
		registry:     deps.Registry,
		store:        deps.Store,
		audio:        deps.Audio,
		images:       deps.Images,
		logger:       deps.Logger,
		ctx:          ctx,
		ctxCancel:    cancel,
		input:        ta,
		spinner:      sp,
		viewport:     vp,
		help:         help.New(),
		keys:         newKeyMap(),
		styles:       DefaultStyles(),
		history:      make([]string, 0, maxHistory),
		gallerySort:  aid.SortNewest,
		markdown:     newMarkdownRenderer(80),
		width:        80,
	}, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.input.Focus(),
		m.loadHistory(),
	)
}

func (m *Model) systemMessage(text string) {
	m.addNotice(notice{text: text})
}

func (m *Model) errorMessage(text string) {
	m.addNotice(notice{text: text, isErr: true})
}

func (m *Model) addNotice(n notice) {
	m.notices = append(m.notices, n)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
}

// closeSummary releases the summary player's audio handle, if any.
func (m *Model) closeSummary() {
	if m.summaryPlayer != nil {
		m.summaryPlayer.Close()
		m.summaryPlayer = nil
	}
	m.listening = nil
}

// cleanup cancels all in-flight work and returns the quit command.
func (m *Model) cleanup() tea.Cmd {
	m.closeSummary()
	if m.ctxCancel != nil {
		m.ctxCancel()
		m.ctxCancel = nil
	}
	return tea.Quit
}
