package aid

import (
	"encoding/json"
	"sync"

	"github.com/classistant/classistant/internal/api"
)

// Registry is the in-memory set of learning aids known to this session.
//
// Single-writer discipline: only the orchestrator and the load-time restore
// add entries; everything else reads snapshots. Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	aids []Aid
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers one aid.
func (r *Registry) Add(a Aid) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aids = append(r.aids, a)
}

// All returns a snapshot of the registered aids.
func (r *Registry) All() []Aid {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Aid, len(r.aids))
	copy(out, r.aids)
	return out
}

// Len returns the number of registered aids.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.aids)
}

// Remove drops an aid from the registry by artifact id. Local only: the
// backing artifact is not deleted (no store contract for deletion exists).
// Returns false when no aid matched.
func (r *Registry) Remove(fileID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.aids {
		if a.FileID == fileID {
			r.aids = append(r.aids[:i], r.aids[i+1:]...)
			return true
		}
	}
	return false
}

// Restore re-derives the registry from an artifact listing, keeping only
// ai_generated files. Called once at startup; replaces current entries.
func (r *Registry) Restore(files []api.File) {
	restored := make([]Aid, 0, len(files))
	for _, f := range files {
		if f.FileType != api.FileKindAIGenerated {
			continue
		}
		restored = append(restored, Aid{
			Type:   inferType(f.JSONData),
			Title:  f.FileName,
			FileID: f.FileID,
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.aids = restored
}

// inferType recovers an aid's kind from its stored content: an explicit
// type tag wins, otherwise the payload shape decides, otherwise summary
// (the store does not record aid kinds separately).
func inferType(data json.RawMessage) Type {
	var probe struct {
		Type      string          `json:"type"`
		Questions json.RawMessage `json:"questions"`
		Sections  json.RawMessage `json:"sections"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return TypeSummary
	}
	if t, err := ParseType(probe.Type); err == nil {
		return t
	}
	if len(probe.Questions) > 0 {
		return TypeQuiz
	}
	return TypeSummary
}
