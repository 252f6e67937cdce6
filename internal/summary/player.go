// Package summary drives one narrated visual-summary artifact.
//
// A Player holds the current section index, always within the sections
// bounds, and owns at most one live audio handle at a time. Every section
// transition stops the previous handle before starting the next; teardown
// stops whatever is live. Audio completion advances the index one section
// at most, never past the end.
package summary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/classistant/classistant/internal/aid"
	"github.com/classistant/classistant/internal/api"
)

// Fallback section shown when the artifact cannot be loaded or decoded.
var errorSection = aid.Section{
	Title: "Error",
	Text:  "Failed to load content",
}

// Store reads summary artifacts.
type Store interface {
	GetFile(ctx context.Context, fileID string) (api.File, error)
}

// Player is the state machine over one summary artifact.
type Player struct {
	store  Store
	fileID string
	driver Driver
	logger *slog.Logger

	sections     []aid.Section
	index        int
	audioEnabled bool
	imageReady   bool
	imageErr     error
	current      Handle
}

// NewPlayer creates a player for the given artifact. Audio starts enabled;
// call Load before anything else.
func NewPlayer(store Store, fileID string, driver Driver, logger *slog.Logger) *Player {
	if driver == nil {
		driver = NopDriver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		store:        store,
		fileID:       fileID,
		driver:       driver,
		logger:       logger,
		audioEnabled: true,
	}
}

// Load fetches and decodes the artifact, then enters section 0. Any fetch
// or decode failure degrades to a single error section instead of failing:
// the player is always renderable after Load.
func (p *Player) Load(ctx context.Context) {
	file, err := p.store.GetFile(ctx, p.fileID)
	if err == nil {
		var content aid.SummaryContent
		content, err = aid.DecodeSummary(file.JSONData)
		if err == nil {
			p.sections = content.Sections
		}
	}
	if err != nil {
		p.logger.Warn("summary load failed, showing error section",
			"file_id", p.fileID,
			"error", err)
		p.sections = []aid.Section{errorSection}
	}
	p.enterSection(ctx, 0)
}

// Sections returns the loaded sections.
func (p *Player) Sections() []aid.Section { return p.sections }

// Index returns the current section index.
func (p *Player) Index() int { return p.index }

// Current returns the section at the current index.
func (p *Player) Current() aid.Section {
	if len(p.sections) == 0 {
		return errorSection
	}
	return p.sections[p.index]
}

// AudioEnabled reports whether narration is on.
func (p *Player) AudioEnabled() bool { return p.audioEnabled }

// ImageReady reports whether the current section's image finished loading
// (successfully or not).
func (p *Player) ImageReady() bool { return p.imageReady }

// ImageError returns the load error for the current section's image, if
// its load failed.
func (p *Player) ImageError() error { return p.imageErr }

// CurrentAudio returns the live playback handle, or nil. Callers use it to
// wait for the completion event that feeds AdvanceOnAudioDone.
func (p *Player) CurrentAudio() Handle { return p.current }

// Next advances one section, clamped to the last.
func (p *Player) Next(ctx context.Context) {
	if p.index < len(p.sections)-1 {
		p.enterSection(ctx, p.index+1)
	}
}

// Previous goes back one section, clamped to the first.
func (p *Player) Previous(ctx context.Context) {
	if p.index > 0 {
		p.enterSection(ctx, p.index-1)
	}
}

// AdvanceOnAudioDone handles a playback-completion event for the given
// handle. Stale events, for handles that are no longer current, are
// ignored, so a completion fires at most one advance and never moves past
// the last section.
func (p *Player) AdvanceOnAudioDone(ctx context.Context, h Handle) {
	if h == nil || h != p.current {
		return
	}
	p.current = nil
	if p.index < len(p.sections)-1 {
		p.enterSection(ctx, p.index+1)
	}
}

// SetAudioEnabled toggles narration. Turning it off stops the current
// playback immediately without moving sections; turning it on starts the
// current section's audio from the beginning.
func (p *Player) SetAudioEnabled(ctx context.Context, enabled bool) {
	if p.audioEnabled == enabled {
		return
	}
	p.audioEnabled = enabled
	p.stopAudio()
	if enabled {
		p.startAudio(ctx)
	}
}

// MarkImageReady records that the current section's image settled. The
// section content reveals either way; a non-nil err is surfaced as an
// inline annotation via ImageError.
func (p *Player) MarkImageReady(err error) {
	p.imageReady = true
	p.imageErr = err
}

// Close stops any live playback. The player must not be used afterwards.
func (p *Player) Close() {
	p.stopAudio()
}

// enterSection is the single transition point: stop-before-start on the
// audio handle, image state reset, then playback for the new section.
func (p *Player) enterSection(ctx context.Context, i int) {
	p.stopAudio()
	p.index = i
	p.imageReady = false
	p.imageErr = nil
	p.startAudio(ctx)
}

func (p *Player) startAudio(ctx context.Context) {
	if !p.audioEnabled {
		return
	}
	section := p.Current()
	if section.AudioURL == "" {
		return
	}
	h, err := p.driver.Play(ctx, section.AudioURL)
	if err != nil {
		p.logger.Warn("audio playback failed",
			"file_id", p.fileID,
			"section", p.index,
			"error", fmt.Errorf("play %s: %w", section.AudioURL, err))
		return
	}
	p.current = h
}

func (p *Player) stopAudio() {
	if p.current != nil {
		p.current.Stop()
		p.current = nil
	}
}
