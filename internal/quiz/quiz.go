// Package quiz drives one quiz artifact through its answering lifecycle.
//
// A Player moves Loading -> Ready -> Submitted. Ready covers all answer
// editing; Submitted is terminal for the rendering lifetime. The score is
// computed locally and written back to the artifact best-effort: a failed
// write is logged, never surfaced as a submit failure.
package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/classistant/classistant/internal/aid"
	"github.com/classistant/classistant/internal/api"
)

// State is the player's lifecycle phase.
type State int

// Player states.
const (
	StateLoading State = iota
	StateReady
	StateSubmitted
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// OptionClass is the display classification of one answer option.
type OptionClass int

// Option classifications. Selected only appears before submission;
// Correct and Incorrect only after.
const (
	OptionNeutral OptionClass = iota
	OptionSelected
	OptionCorrect
	OptionIncorrect
)

// ErrNotReady indicates an operation that requires a loaded quiz.
var ErrNotReady = errors.New("quiz not loaded")

// Store reads and writes quiz artifacts.
type Store interface {
	GetFile(ctx context.Context, fileID string) (api.File, error)
	UpdateFile(ctx context.Context, fileID string, req api.UpdateFileRequest) error
}

// Player is the state machine over one quiz artifact.
type Player struct {
	store  Store
	fileID string
	logger *slog.Logger

	state    State
	fileName string
	content  aid.QuizContent
	answers  map[int]string
	score    string
}

// NewPlayer creates a player for the given artifact. Call Load before
// anything else.
func NewPlayer(store Store, fileID string, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		store:   store,
		fileID:  fileID,
		logger:  logger,
		state:   StateLoading,
		answers: make(map[int]string),
	}
}

// Load fetches and decodes the quiz artifact, moving the player to Ready.
// A previously persisted score is restored into display state but does not
// lock the quiz: the user may answer and submit again this session.
func (p *Player) Load(ctx context.Context) error {
	file, err := p.store.GetFile(ctx, p.fileID)
	if err != nil {
		return fmt.Errorf("load quiz %s: %w", p.fileID, err)
	}
	content, err := aid.DecodeQuiz(file.JSONData)
	if err != nil {
		return fmt.Errorf("load quiz %s: %w", p.fileID, err)
	}

	p.fileName = file.FileName
	p.content = content
	p.score = content.LatestScore
	p.state = StateReady
	return nil
}

// State returns the current lifecycle phase.
func (p *Player) State() State { return p.state }

// Questions returns the loaded questions in order.
func (p *Player) Questions() []aid.Question { return p.content.Questions }

// Score returns the formatted score: the restored one after Load, the
// freshly computed one after Submit, empty otherwise.
func (p *Player) Score() string { return p.score }

// Answer returns the selected option letter for a question, if any.
func (p *Player) Answer(questionIndex int) (string, bool) {
	choice, ok := p.answers[questionIndex]
	return choice, ok
}

// SelectAnswer records the option letter for one question, overwriting any
// previous choice for that question only. Ignored outside Ready.
func (p *Player) SelectAnswer(questionIndex int, choice string) {
	if p.state != StateReady {
		return
	}
	if questionIndex < 0 || questionIndex >= len(p.content.Questions) {
		return
	}
	p.answers[questionIndex] = choice
}

// Submit scores the answer map and moves the player to Submitted. A
// question with no recorded answer counts as incorrect. The score is
// merged into the artifact content and written back; a write failure is
// logged and the local score stands. Submit is a no-op once Submitted.
func (p *Player) Submit(ctx context.Context) (string, error) {
	switch p.state {
	case StateLoading:
		return "", ErrNotReady
	case StateSubmitted:
		return p.score, nil
	}

	correct := 0
	for i, q := range p.content.Questions {
		if choice, ok := p.answers[i]; ok && choice == q.CorrectAnswer {
			correct++
		}
	}
	p.score = fmt.Sprintf("%d/%d", correct, len(p.content.Questions))
	p.state = StateSubmitted

	p.persistScore(ctx)
	return p.score, nil
}

// persistScore merges latestScore into the stored content. Best-effort:
// the local score is the source of truth for this render.
func (p *Player) persistScore(ctx context.Context) {
	updated := p.content
	updated.LatestScore = p.score
	data, err := json.Marshal(updated)
	if err != nil {
		p.logger.Warn("quiz score encode failed",
			"file_id", p.fileID,
			"error", err)
		return
	}
	err = p.store.UpdateFile(ctx, p.fileID, api.UpdateFileRequest{
		FileName: p.fileName,
		FileType: api.FileKindAIGenerated,
		JSONData: data,
	})
	if err != nil {
		p.logger.Warn("quiz score persist failed, keeping local score",
			"file_id", p.fileID,
			"score", p.score,
			"error", err)
	}
}

// ClassifyOption reports how to render one option of one question. Before
// submission the user's current pick is Selected and everything else
// Neutral; after submission the correct option is Correct, a wrong pick is
// Incorrect, and the rest are Neutral.
func (p *Player) ClassifyOption(questionIndex, optionIndex int) OptionClass {
	if questionIndex < 0 || questionIndex >= len(p.content.Questions) {
		return OptionNeutral
	}
	letter := aid.OptionLetter(optionIndex)
	chosen, answered := p.answers[questionIndex]

	if p.state != StateSubmitted {
		if answered && chosen == letter {
			return OptionSelected
		}
		return OptionNeutral
	}

	if letter == p.content.Questions[questionIndex].CorrectAnswer {
		return OptionCorrect
	}
	if answered && chosen == letter {
		return OptionIncorrect
	}
	return OptionNeutral
}
