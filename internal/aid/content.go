package aid

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type is the closed set of learning aid kinds.
type Type string

// Learning aid kinds.
const (
	TypeMindmap Type = "mindmap"
	TypeQuiz    Type = "quiz"
	TypeSummary Type = "summary"
)

// ErrUnknownType indicates a tag outside the closed aid type set.
var ErrUnknownType = errors.New("unknown aid type")

// ParseType validates an aid type tag.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeMindmap, TypeQuiz, TypeSummary:
		return Type(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// TitleWord returns the capitalized tag used in derived aid titles
// ("Photosynthesis - Quiz").
func (t Type) TitleWord() string {
	switch t {
	case TypeMindmap:
		return "Mindmap"
	case TypeQuiz:
		return "Quiz"
	case TypeSummary:
		return "Summary"
	}
	return string(t)
}

// DisplayName returns the human-readable kind name for list surfaces.
func (t Type) DisplayName() string {
	switch t {
	case TypeMindmap:
		return "Mind Map"
	case TypeQuiz:
		return "Quiz"
	case TypeSummary:
		return "Visual Summary"
	}
	return string(t)
}

// Aid is one registered learning aid. It exists only in memory; FileID
// points at the persisted artifact backing it.
type Aid struct {
	Type   Type
	Title  string
	FileID string
}

// Question is one quiz question. Answers are option letters ("A", "B", ...)
// matching the rendered option order.
type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Difficulty    string   `json:"difficulty"`
}

// QuizContent is the artifact payload for quiz aids. LatestScore holds the
// most recently persisted result as "{correct}/{total}".
type QuizContent struct {
	Questions   []Question `json:"questions"`
	LatestScore string     `json:"latestScore,omitempty"`
}

// Section is one narrated page of a visual summary.
type Section struct {
	Title    string `json:"title"`
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl"`
	AudioURL string `json:"audioUrl"`
}

// SummaryContent is the artifact payload for visual summary aids.
type SummaryContent struct {
	Sections []Section `json:"sections"`
}

// MindmapContent is the placeholder payload for mind map aids; no generator
// backs this kind yet.
type MindmapContent struct {
	Type string `json:"type"`
}

// Decode errors for artifact payloads.
var (
	ErrEmptyQuiz    = errors.New("quiz has no questions")
	ErrEmptySummary = errors.New("summary has no sections")
)

// DecodeQuiz parses quiz artifact content. Unknown fields are tolerated;
// a quiz without questions is an error.
func DecodeQuiz(data []byte) (QuizContent, error) {
	var q QuizContent
	if err := json.Unmarshal(data, &q); err != nil {
		return QuizContent{}, fmt.Errorf("decode quiz content: %w", err)
	}
	if len(q.Questions) == 0 {
		return QuizContent{}, ErrEmptyQuiz
	}
	return q, nil
}

// DecodeSummary parses visual summary artifact content. A summary without
// sections is an error; callers fall back to their degraded view.
func DecodeSummary(data []byte) (SummaryContent, error) {
	var s SummaryContent
	if err := json.Unmarshal(data, &s); err != nil {
		return SummaryContent{}, fmt.Errorf("decode summary content: %w", err)
	}
	if len(s.Sections) == 0 {
		return SummaryContent{}, ErrEmptySummary
	}
	return s, nil
}

// OptionLetter returns the display letter for an option index (0 → "A").
func OptionLetter(i int) string {
	return string(rune('A' + i))
}
