package aid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/classistant/classistant/internal/api"
)

// Pipeline stage errors, checked with errors.Is. Each terminates the
// pipeline at its stage; only ErrAnnounceFailed leaves a persisted artifact
// (and a registered aid) behind.
var (
	ErrGenerationFailed = errors.New("aid generation failed")
	ErrPersistFailed    = errors.New("aid persist failed")
	ErrAnnounceFailed   = errors.New("aid announce failed")

	// ErrBusy is returned when a pipeline is already in flight for this
	// orchestrator. At most one CreateAid runs per session.
	ErrBusy = errors.New("aid creation already in progress")
)

// Generator produces structured aid content.
type Generator interface {
	GenerateQuiz(ctx context.Context, topic, rag string) (json.RawMessage, error)
	GenerateSummary(ctx context.Context, topic, rag string) (json.RawMessage, error)
}

// Store persists artifacts.
type Store interface {
	CreateFile(ctx context.Context, req api.CreateFileRequest) (string, error)
}

// Announcer posts the aid-created system message into the conversation.
type Announcer interface {
	AppendMessage(ctx context.Context, req api.AppendMessageRequest) (string, error)
}

// DefaultSummaryTopic is used when a summary is requested without a topic.
const DefaultSummaryTopic = "space exploration"

// Orchestrator converts an aid-creation intent into a persisted, announced,
// registered learning aid for one chat.
type Orchestrator struct {
	gen       Generator
	store     Store
	announcer Announcer
	registry  *Registry

	chatID    string
	chatTitle string

	logger *slog.Logger
	now    func() time.Time

	// busy enforces at most one pipeline in flight. This is the guard
	// itself, not a UI affordance: a second call fails fast with ErrBusy.
	busy sync.Mutex
}

// NewOrchestrator creates an orchestrator for one chat.
func NewOrchestrator(gen Generator, store Store, announcer Announcer, registry *Registry, chatID, chatTitle string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		gen:       gen,
		store:     store,
		announcer: announcer,
		registry:  registry,
		chatID:    chatID,
		chatTitle: chatTitle,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateAid runs the generate → persist → announce → register pipeline.
//
// topic may be empty; the derived title then falls back to the chat title
// with a disambiguating suffix. On ErrAnnounceFailed the returned Aid is
// valid and registered (artifact persisted, chat message missing); on every
// other error the Aid is zero and nothing was registered.
func (o *Orchestrator) CreateAid(ctx context.Context, typ Type, topic string) (Aid, error) {
	if !o.busy.TryLock() {
		return Aid{}, ErrBusy
	}
	defer o.busy.Unlock()

	content, err := o.generate(ctx, typ, topic)
	if err != nil {
		return Aid{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	title := o.deriveTitle(typ, topic)
	fileID, err := o.store.CreateFile(ctx, api.CreateFileRequest{
		FileName: title + ".json",
		FileType: api.FileKindAIGenerated,
		JSONData: content,
		ChatID:   o.chatID,
	})
	if err != nil {
		return Aid{}, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	created := Aid{Type: typ, Title: title, FileID: fileID}

	_, err = o.announcer.AppendMessage(ctx, api.AppendMessageRequest{
		Text:            AnnouncementText(typ, title),
		ChatID:          o.chatID,
		SenderID:        api.SenderAssistant,
		GeneratedFileID: fileID,
	})
	if err != nil {
		// The artifact exists, so the aid stays usable; only the chat
		// message is missing.
		o.registry.Add(created)
		o.logger.Warn("aid announce failed, aid registered anyway",
			"type", typ,
			"file_id", fileID,
			"error", err)
		return created, fmt.Errorf("%w: %w", ErrAnnounceFailed, err)
	}

	o.registry.Add(created)
	o.logger.Info("created learning aid",
		"type", typ,
		"title", title,
		"file_id", fileID)
	return created, nil
}

// AnnouncementText is the system message posted when an aid is created.
func AnnouncementText(typ Type, title string) string {
	return fmt.Sprintf("Created new %s: %s", typ, title)
}

func (o *Orchestrator) generate(ctx context.Context, typ Type, topic string) (json.RawMessage, error) {
	switch typ {
	case TypeQuiz:
		if topic == "" {
			topic = o.chatTitle
		}
		return o.gen.GenerateQuiz(ctx, topic, "")
	case TypeSummary:
		if topic == "" {
			topic = DefaultSummaryTopic
		}
		return o.gen.GenerateSummary(ctx, topic, "")
	case TypeMindmap:
		// No generator backs mind maps yet; persist a placeholder.
		return json.Marshal(MindmapContent{Type: string(TypeMindmap)})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
}

// deriveTitle builds the aid title: topic-qualified when a topic was given,
// otherwise chat-qualified with a time-derived suffix so repeated creations
// stay distinguishable.
func (o *Orchestrator) deriveTitle(typ Type, topic string) string {
	if topic != "" {
		return fmt.Sprintf("%s - %s", topic, typ.TitleWord())
	}
	suffix := o.now().UnixMilli() % 10000
	return fmt.Sprintf("%s - %s %04d", o.chatTitle, typ.TitleWord(), suffix)
}
