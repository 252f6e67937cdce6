package aid_test

import (
	"context"
	"encoding/json"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classistant/classistant/internal/aid"
	"github.com/classistant/classistant/internal/api"
	"github.com/classistant/classistant/internal/log"
)

// fakeBackend implements Generator, Store, and Announcer with recordable
// calls and injectable failures.
type fakeBackend struct {
	mu sync.Mutex

	genErr      error
	createErr   error
	announceErr error

	genTopics []string
	created   []api.CreateFileRequest
	announced []api.AppendMessageRequest

	blockGen   chan struct{} // when non-nil, generation waits for a close
	genStarted chan struct{} // when non-nil, receives once generation is entered
}

func (f *fakeBackend) GenerateQuiz(ctx context.Context, topic, rag string) (json.RawMessage, error) {
	return f.generate(topic)
}

func (f *fakeBackend) GenerateSummary(ctx context.Context, topic, rag string) (json.RawMessage, error) {
	return f.generate(topic)
}

func (f *fakeBackend) generate(topic string) (json.RawMessage, error) {
	if f.genStarted != nil {
		select {
		case f.genStarted <- struct{}{}:
		default:
		}
	}
	if f.blockGen != nil {
		<-f.blockGen
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genTopics = append(f.genTopics, topic)
	if f.genErr != nil {
		return nil, f.genErr
	}
	return json.RawMessage(`{"questions":[{"text":"?"}]}`), nil
}

func (f *fakeBackend) CreateFile(ctx context.Context, req api.CreateFileRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, req)
	return "file-1", nil
}

func (f *fakeBackend) AppendMessage(ctx context.Context, req api.AppendMessageRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.announceErr != nil {
		return "", f.announceErr
	}
	f.announced = append(f.announced, req)
	return "msg-1", nil
}

func newOrchestrator(f *fakeBackend, reg *aid.Registry) *aid.Orchestrator {
	return aid.NewOrchestrator(f, f, f, reg, "chat-1", "Biology 101", log.NewNop())
}

func TestCreateAid_FullPipeline(t *testing.T) {
	t.Parallel()

	f := &fakeBackend{}
	reg := aid.NewRegistry()
	o := newOrchestrator(f, reg)

	created, err := o.CreateAid(context.Background(), aid.TypeQuiz, "Photosynthesis")
	require.NoError(t, err)

	assert.Equal(t, aid.TypeQuiz, created.Type)
	assert.Equal(t, "Photosynthesis - Quiz", created.Title)
	assert.Equal(t, "file-1", created.FileID)

	// Persist stage.
	require.Len(t, f.created, 1)
	assert.Equal(t, "Photosynthesis - Quiz.json", f.created[0].FileName)
	assert.Equal(t, api.FileKindAIGenerated, f.created[0].FileType)
	assert.Equal(t, "chat-1", f.created[0].ChatID)

	// Announce stage.
	require.Len(t, f.announced, 1)
	assert.Equal(t, "Created new quiz: Photosynthesis - Quiz", f.announced[0].Text)
	assert.Equal(t, api.SenderAssistant, f.announced[0].SenderID)
	assert.Equal(t, "file-1", f.announced[0].GeneratedFileID)

	// Register stage.
	require.Equal(t, 1, reg.Len())
	assert.Equal(t, created, reg.All()[0])
}

func TestCreateAid_GenerationFailureAbortsEverything(t *testing.T) {
	t.Parallel()

	f := &fakeBackend{genErr: assert.AnError}
	reg := aid.NewRegistry()
	o := newOrchestrator(f, reg)

	_, err := o.CreateAid(context.Background(), aid.TypeSummary, "Space")
	assert.ErrorIs(t, err, aid.ErrGenerationFailed)

	assert.Empty(t, f.created, "no artifact after generation failure")
	assert.Empty(t, f.announced, "no message after generation failure")
	assert.Zero(t, reg.Len(), "no aid after generation failure")
}

func TestCreateAid_PersistFailureAbortsRemainingStages(t *testing.T) {
	t.Parallel()

	f := &fakeBackend{createErr: assert.AnError}
	reg := aid.NewRegistry()
	o := newOrchestrator(f, reg)

	_, err := o.CreateAid(context.Background(), aid.TypeQuiz, "WW2")
	assert.ErrorIs(t, err, aid.ErrPersistFailed)

	assert.Empty(t, f.announced)
	assert.Zero(t, reg.Len())
}

func TestCreateAid_AnnounceFailureKeepsArtifactAndAid(t *testing.T) {
	t.Parallel()

	f := &fakeBackend{announceErr: assert.AnError}
	reg := aid.NewRegistry()
	o := newOrchestrator(f, reg)

	created, err := o.CreateAid(context.Background(), aid.TypeQuiz, "Photosynthesis")
	assert.ErrorIs(t, err, aid.ErrAnnounceFailed)

	// Artifact persisted, aid registered, zero chat messages.
	assert.Len(t, f.created, 1)
	assert.Empty(t, f.announced)
	require.Equal(t, 1, reg.Len())
	assert.Equal(t, "file-1", created.FileID)
}

func TestCreateAid_Mindmap_NoGeneratorCall(t *testing.T) {
	t.Parallel()

	f := &fakeBackend{}
	reg := aid.NewRegistry()
	o := newOrchestrator(f, reg)

	created, err := o.CreateAid(context.Background(), aid.TypeMindmap, "")
	require.NoError(t, err)

	assert.Empty(t, f.genTopics, "mindmap content is synthesized locally")
	require.Len(t, f.created, 1)
	assert.JSONEq(t, `{"type":"mindmap"}`, string(f.created[0].JSONData))
	assert.Equal(t, aid.TypeMindmap, created.Type)
}

func TestCreateAid_TopicDefaults(t *testing.T) {
	t.Parallel()

	f := &fakeBackend{}
	o := newOrchestrator(f, aid.NewRegistry())

	_, err := o.CreateAid(context.Background(), aid.TypeQuiz, "")
	require.NoError(t, err)
	_, err = o.CreateAid(context.Background(), aid.TypeSummary, "")
	require.NoError(t, err)

	require.Len(t, f.genTopics, 2)
	assert.Equal(t, "Biology 101", f.genTopics[0], "quiz falls back to the chat title")
	assert.Equal(t, aid.DefaultSummaryTopic, f.genTopics[1])
}

func TestCreateAid_TopiclessTitleHasSuffix(t *testing.T) {
	t.Parallel()

	f := &fakeBackend{}
	o := newOrchestrator(f, aid.NewRegistry())

	created, err := o.CreateAid(context.Background(), aid.TypeQuiz, "")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^Biology 101 - Quiz \d{4}$`), created.Title)
}

func TestCreateAid_BusyGuard(t *testing.T) {
	t.Parallel()

	f := &fakeBackend{
		blockGen:   make(chan struct{}),
		genStarted: make(chan struct{}, 1),
	}
	o := newOrchestrator(f, aid.NewRegistry())

	done := make(chan error, 1)
	go func() {
		_, err := o.CreateAid(context.Background(), aid.TypeQuiz, "A")
		done <- err
	}()

	// Second call while the first is stuck in generation.
	<-f.genStarted
	_, err := o.CreateAid(context.Background(), aid.TypeQuiz, "B")
	require.ErrorIs(t, err, aid.ErrBusy)

	close(f.blockGen)
	require.NoError(t, <-done)

	// Guard released after the pipeline finishes.
	_, err = o.CreateAid(context.Background(), aid.TypeQuiz, "C")
	require.NoError(t, err)
}

func TestCreateAid_UnknownType(t *testing.T) {
	t.Parallel()

	f := &fakeBackend{}
	o := newOrchestrator(f, aid.NewRegistry())

	_, err := o.CreateAid(context.Background(), aid.Type("podcast"), "x")
	assert.ErrorIs(t, err, aid.ErrGenerationFailed)
	assert.ErrorIs(t, err, aid.ErrUnknownType)
}
