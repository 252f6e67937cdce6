package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/classistant/classistant/internal/api"
	"github.com/classistant/classistant/internal/chat"
	"github.com/classistant/classistant/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeStore struct {
	history   []api.ChatMessage
	listErr   error
	appendErr error
	appended  []api.AppendMessageRequest
}

func (f *fakeStore) ListMessages(_ context.Context, _ string) ([]api.ChatMessage, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.history, nil
}

func (f *fakeStore) AppendMessage(_ context.Context, req api.AppendMessageRequest) (string, error) {
	if f.appendErr != nil {
		return "", f.appendErr
	}
	f.appended = append(f.appended, req)
	return "msg-1", nil
}

type fakeAssistant struct {
	reply string
	err   error
	asked []string
}

func (f *fakeAssistant) Reply(_ context.Context, _ string, userMessage string) (string, error) {
	f.asked = append(f.asked, userMessage)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newSession(store *fakeStore, assistant *fakeAssistant) *chat.Session {
	return chat.NewSession(
		api.Chat{ChatID: "chat-1", Title: "Biology 101"},
		"user-1",
		store,
		assistant,
		log.NewNop(),
	)
}

func TestLoadMapsSenders(t *testing.T) {
	t.Parallel()

	store := &fakeStore{history: []api.ChatMessage{
		{SenderID: "user-1", Text: "hello"},
		{SenderID: api.SenderAssistant, Text: "hi there", GeneratedFileID: "file-9"},
	}}
	s := newSession(store, &fakeAssistant{})

	msgs := s.Load(context.Background())

	require.Len(t, msgs, 2)
	assert.Equal(t, chat.SenderUser, msgs[0].Sender)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, chat.SenderAssistant, msgs[1].Sender)
	assert.Equal(t, "file-9", msgs[1].FileID)
	for _, m := range msgs {
		assert.Equal(t, chat.StatusConfirmed, m.Status)
	}
}

func TestLoadForeignSenderIsNotOwnMessage(t *testing.T) {
	t.Parallel()

	store := &fakeStore{history: []api.ChatMessage{
		{SenderID: "someone-else", Text: "hey class"},
		{SenderID: "user-1", Text: "hi"},
		{SenderID: api.SenderAssistant, Text: "hello everyone"},
	}}
	s := newSession(store, &fakeAssistant{})

	msgs := s.Load(context.Background())

	require.Len(t, msgs, 3)
	assert.Equal(t, chat.SenderOther, msgs[0].Sender)
	assert.Equal(t, chat.SenderUser, msgs[1].Sender)
	assert.Equal(t, chat.SenderAssistant, msgs[2].Sender)
}

func TestLoadWithoutUserIDTreatsSendersAsUser(t *testing.T) {
	t.Parallel()

	store := &fakeStore{history: []api.ChatMessage{
		{SenderID: "whoever", Text: "hello"},
	}}
	s := chat.NewSession(api.Chat{ChatID: "chat-1", Title: "Biology 101"},
		"", store, &fakeAssistant{}, log.NewNop())

	msgs := s.Load(context.Background())

	require.Len(t, msgs, 1)
	assert.Equal(t, chat.SenderUser, msgs[0].Sender)
}

func TestLoadFailureFallsBackToWelcome(t *testing.T) {
	t.Parallel()

	store := &fakeStore{listErr: errors.New("boom")}
	s := newSession(store, &fakeAssistant{})

	msgs := s.Load(context.Background())

	require.Len(t, msgs, 1)
	assert.Equal(t, chat.SenderAssistant, msgs[0].Sender)
	assert.Equal(t, "Welcome to Biology 101! How can I assist you today?", msgs[0].Text)
	assert.Equal(t, chat.StatusConfirmed, msgs[0].Status)
}

func TestSendHappyPath(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	assistant := &fakeAssistant{reply: "photosynthesis converts light to energy"}
	s := newSession(store, assistant)

	reply, err := s.Send(context.Background(), "what is photosynthesis?")

	require.NoError(t, err)
	assert.Equal(t, chat.SenderAssistant, reply.Sender)
	assert.Equal(t, assistant.reply, reply.Text)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.SenderUser, msgs[0].Sender)
	assert.Equal(t, chat.StatusConfirmed, msgs[0].Status)
	assert.Equal(t, reply.ID, msgs[1].ID)

	require.Len(t, store.appended, 1)
	assert.Equal(t, "chat-1", store.appended[0].ChatID)
	assert.Equal(t, []string{"what is photosynthesis?"}, assistant.asked)
}

func TestSendPersistFailureStillAsksAssistant(t *testing.T) {
	t.Parallel()

	store := &fakeStore{appendErr: errors.New("store down")}
	assistant := &fakeAssistant{reply: "still here"}
	s := newSession(store, assistant)

	reply, err := s.Send(context.Background(), "anyone home?")

	require.NoError(t, err)
	assert.Equal(t, "still here", reply.Text)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.StatusFailed, msgs[0].Status)
	assert.Equal(t, chat.StatusConfirmed, msgs[1].Status)
}

func TestSendReplyFailureKeepsUserMessage(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	assistant := &fakeAssistant{err: errors.New("model offline")}
	s := newSession(store, assistant)

	_, err := s.Send(context.Background(), "hello?")

	require.Error(t, err)
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, chat.SenderUser, msgs[0].Sender)
	assert.Equal(t, chat.StatusConfirmed, msgs[0].Status)
}

func TestRetryFailedMessage(t *testing.T) {
	t.Parallel()

	store := &fakeStore{appendErr: errors.New("store down")}
	assistant := &fakeAssistant{reply: "ok"}
	s := newSession(store, assistant)

	_, err := s.Send(context.Background(), "first try")
	require.NoError(t, err)

	failed := s.Messages()[0]
	require.Equal(t, chat.StatusFailed, failed.Status)

	store.appendErr = nil
	require.NoError(t, s.Retry(context.Background(), failed.ID))
	assert.Equal(t, chat.StatusConfirmed, s.Messages()[0].Status)

	require.Len(t, store.appended, 1)
	assert.Equal(t, "first try", store.appended[0].Text)
}

func TestRetryRejectsConfirmedMessage(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	s := newSession(store, &fakeAssistant{reply: "ok"})

	_, err := s.Send(context.Background(), "fine")
	require.NoError(t, err)

	confirmed := s.Messages()[0]
	err = s.Retry(context.Background(), confirmed.ID)
	assert.ErrorIs(t, err, chat.ErrMessageNotFound)
}

func TestRemoveFailedMessageOnly(t *testing.T) {
	t.Parallel()

	store := &fakeStore{appendErr: errors.New("store down")}
	s := newSession(store, &fakeAssistant{reply: "ok"})

	_, err := s.Send(context.Background(), "doomed")
	require.NoError(t, err)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	failed, confirmed := msgs[0], msgs[1]

	assert.ErrorIs(t, s.Remove(confirmed.ID), chat.ErrMessageNotFound)
	require.NoError(t, s.Remove(failed.ID))

	msgs = s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, confirmed.ID, msgs[0].ID)
}

func TestAppendAnnouncement(t *testing.T) {
	t.Parallel()

	s := newSession(&fakeStore{}, &fakeAssistant{})

	msg := s.Append(chat.SenderAssistant, "Created new quiz: Biology 101 - Quiz", "file-3")

	assert.Equal(t, chat.StatusConfirmed, msg.Status)
	assert.Equal(t, "file-3", msg.FileID)
	require.Len(t, s.Messages(), 1)
}
