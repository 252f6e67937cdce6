package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/classistant/classistant/internal/auth"
	"github.com/classistant/classistant/internal/log"
)

// newTestClient points a Client at an httptest server with an unthrottled
// generation limiter.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, auth.NewStaticTokenSource("test-token"), log.NewNop(),
		WithHTTPClient(srv.Client()),
		WithGenerateLimit(rate.NewLimiter(rate.Inf, 1)))
	require.NoError(t, err)
	return c
}

func TestNew_RequiresBaseURLAndTokens(t *testing.T) {
	t.Parallel()

	_, err := New("", auth.NewStaticTokenSource("t"), log.NewNop())
	assert.Error(t, err)

	_, err = New("http://localhost", nil, log.NewNop())
	assert.Error(t, err)
}

func TestClient_SetsBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))

	_, err := c.ListChats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
}

func TestClient_StatusError(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))

	_, err := c.GetFile(context.Background(), "missing")
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.True(t, IsNotFound(err))
}

func TestCreateChat(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chats/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"title":"Biology"}`, string(body))
		_, _ = w.Write([]byte(`{"chatId":"c1","title":"Biology"}`))
	}))

	chat, err := c.CreateChat(context.Background(), "Biology")
	require.NoError(t, err)
	assert.Equal(t, Chat{ChatID: "c1", Title: "Biology"}, chat)
}

func TestListMessages_PathAndOrder(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages/chat-42", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"senderId":"u1","text":"hi"},
			{"senderId":"ai","text":"hello","generatedFileId":"f1"}
		]`))
	}))

	msgs, err := c.ListMessages(context.Background(), "chat-42")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, SenderAssistant, msgs[1].SenderID)
	assert.Equal(t, "f1", msgs[1].GeneratedFileID)
}

func TestAppendMessage_OmitsEmptyOptionalFields(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"text":"hi","chatId":"c1"}`, string(body))
		_, _ = w.Write([]byte(`{"id":"m1"}`))
	}))

	id, err := c.AppendMessage(context.Background(), AppendMessageRequest{Text: "hi", ChatID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "m1", id)
}

func TestCreateAndUpdateFile(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/files/":
			var req CreateFileRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, FileKindAIGenerated, req.FileType)
			_, _ = w.Write([]byte(`{"fileId":"f9"}`))
		case r.Method == http.MethodPatch && r.URL.Path == "/files/f9":
			_, _ = w.Write([]byte(`{"ok":true}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))

	ctx := context.Background()
	id, err := c.CreateFile(ctx, CreateFileRequest{
		FileName: "Photosynthesis - Quiz.json",
		FileType: FileKindAIGenerated,
		JSONData: json.RawMessage(`{"questions":[]}`),
		ChatID:   "c1",
	})
	require.NoError(t, err)
	assert.Equal(t, "f9", id)

	err = c.UpdateFile(ctx, "f9", UpdateFileRequest{
		FileName: "Photosynthesis - Quiz.json",
		FileType: FileKindAIGenerated,
		JSONData: json.RawMessage(`{"questions":[],"latestScore":"2/3"}`),
	})
	require.NoError(t, err)
}

func TestUploadFile_RoleDrivesKind(t *testing.T) {
	t.Parallel()

	var kinds []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req CreateFileRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		kinds = append(kinds, req.FileType)
		_, _ = w.Write([]byte(`{"fileId":"f1"}`))
	}))

	ctx := context.Background()
	_, err := c.UploadFile(ctx, "c1", "notes.pdf", "student")
	require.NoError(t, err)
	_, err = c.UploadFile(ctx, "c1", "notes.pdf", "teacher")
	require.NoError(t, err)

	assert.Equal(t, []string{FileKindStudentUpload, FileKindTeacherUpload}, kinds)
}

func TestGenerateQuiz_DefaultsRAG(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quiz/", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"topic":"WW2","rag":"no info"}`, string(body))
		_, _ = w.Write([]byte(`{"jsonData":{"questions":[]}}`))
	}))

	data, err := c.GenerateQuiz(context.Background(), "WW2", "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"questions":[]}`, string(data))
}

func TestGenerateSummary_PassesRAG(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/visualsummary/", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"topic":"Space","rag":"lesson notes"}`, string(body))
		_, _ = w.Write([]byte(`{"jsonData":{"sections":[]}}`))
	}))

	_, err := c.GenerateSummary(context.Background(), "Space", "lesson notes")
	require.NoError(t, err)
}

func TestReply(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat_with_memory/", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"chatId":"c1","userMessage":"explain osmosis"}`, string(body))
		_, _ = w.Write([]byte(`{"response":"Osmosis is..."}`))
	}))

	reply, err := c.Reply(context.Background(), "c1", "explain osmosis")
	require.NoError(t, err)
	assert.Equal(t, "Osmosis is...", reply)
}

func TestGetUser(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/u1", r.URL.Path)
		_, _ = w.Write([]byte(`{"uid":"u1","displayName":"Ada","role":"student"}`))
	}))

	u, err := c.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "student", u.Role)
}
