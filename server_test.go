package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/folio/internal/assistant"
	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestApp(t *testing.T) *app {
	t.Helper()

	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)
	cfg.DBPath = filepath.Join(t.TempDir(), "folio.db")
	cfg.TemplateDir = ""
	cfg.AllowedOrigins = []string{"https://example.com"}
	cfg.Assistant.ReplyDelay = 20 * time.Millisecond
	cfg.SMTP.User, cfg.SMTP.Pass = "", ""
	cfg.AnalyticsEnabled = true

	st, err := store.NewSQLite(cfg.DBPath)
	require.NoError(t, err)

	site, err := content.Default()
	require.NoError(t, err)

	a := newApp(cfg, st, assistant.DefaultResponder(), site)
	t.Cleanup(func() {
		a.sessions.Shutdown()
		a.tracker.Wait()
		_ = st.Close()
	})
	return a
}

func doRequest(t *testing.T, h http.Handler, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, h http.Handler) assistant.Snapshot {
	t.Helper()
	w := doRequest(t, h, http.MethodPost, "/api/assistant/sessions", nil, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var snap assistant.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return snap
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	w := doRequest(t, a.router(), http.MethodGet, "/healthz", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestAssistant_CreateSession(t *testing.T) {
	a := newTestApp(t)
	snap := createSession(t, a.router())

	assert.NotEmpty(t, snap.ID)
	assert.False(t, snap.Open)
	assert.False(t, snap.Pending)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, assistant.RoleAssistant, snap.Messages[0].Role)
	assert.Equal(t, assistant.Greeting, snap.Messages[0].Content)
}

func TestAssistant_GetUnknownSession(t *testing.T) {
	a := newTestApp(t)
	w := doRequest(t, a.router(), http.MethodGet, "/api/assistant/sessions/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssistant_SubmitAndReply(t *testing.T) {
	a := newTestApp(t)
	r := a.router()
	snap := createSession(t, r)
	path := "/api/assistant/sessions/" + snap.ID + "/messages"

	w := doRequest(t, r, http.MethodPost, path, []byte(`{"message":"Tell me about your projects"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Accepted bool               `json:"accepted"`
		Session  assistant.Snapshot `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Accepted)
	assert.True(t, resp.Session.Pending)
	require.Len(t, resp.Session.Messages, 2)
	assert.Equal(t, "Tell me about your projects", resp.Session.Messages[1].Content)

	// Overlapping submission while the reply is pending.
	w = doRequest(t, r, http.MethodPost, path, []byte(`{"message":"and your skills?"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"accepted":false`)

	s, err := a.sessions.Get(snap.ID)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return !s.Pending() }, time.Second, 5*time.Millisecond)

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, assistant.ProjectResponse, msgs[2].Content)
}

func TestAssistant_SubmitBlankNotAccepted(t *testing.T) {
	a := newTestApp(t)
	r := a.router()
	snap := createSession(t, r)

	w := doRequest(t, r, http.MethodPost, "/api/assistant/sessions/"+snap.ID+"/messages", []byte("message=+++"), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"accepted":false`)

	s, err := a.sessions.Get(snap.ID)
	require.NoError(t, err)
	assert.Len(t, s.Messages(), 1)
}

func TestAssistant_SubmitRateLimited(t *testing.T) {
	a := newTestApp(t)
	a.limiter = newRateLimiter(1, time.Minute)
	r := a.router()
	snap := createSession(t, r)
	path := "/api/assistant/sessions/" + snap.ID + "/messages"

	w := doRequest(t, r, http.MethodPost, path, []byte(`{"message":"hi"}`), "application/json")
	assert.Equal(t, http.StatusOK, w.Code)
	w = doRequest(t, r, http.MethodPost, path, []byte(`{"message":"hi"}`), "application/json")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAssistant_Visibility(t *testing.T) {
	a := newTestApp(t)
	r := a.router()
	snap := createSession(t, r)
	base := "/api/assistant/sessions/" + snap.ID

	tests := []struct {
		action string
		open   bool
	}{
		{"open", true},
		{"open", true},
		{"close", false},
		{"toggle", true},
		{"toggle", false},
	}
	for _, tt := range tests {
		w := doRequest(t, r, http.MethodPost, base+"/"+tt.action, nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var got assistant.Snapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, tt.open, got.Open, tt.action)
	}
}

func TestAssistant_Signal(t *testing.T) {
	a := newTestApp(t)
	r := a.router()
	snap := createSession(t, r)

	w := doRequest(t, r, http.MethodPost, "/api/assistant/sessions/"+snap.ID+"/signal", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"delivered":1`)

	s, err := a.sessions.Get(snap.ID)
	require.NoError(t, err)
	assert.True(t, s.IsOpen())

	w = doRequest(t, r, http.MethodPost, "/api/assistant/sessions/missing/signal", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssistant_Teardown(t *testing.T) {
	a := newTestApp(t)
	r := a.router()
	snap := createSession(t, r)

	w := doRequest(t, r, http.MethodDelete, "/api/assistant/sessions/"+snap.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, a.sessions.Len())

	w = doRequest(t, r, http.MethodDelete, "/api/assistant/sessions/"+snap.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, http.MethodPost, "/api/assistant/sessions/"+snap.ID+"/signal", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssistant_Transcript(t *testing.T) {
	a := newTestApp(t)
	r := a.router()
	snap := createSession(t, r)

	w := doRequest(t, r, http.MethodGet, "/assistant/"+snap.ID+"/transcript", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "message-assistant")
	assert.Contains(t, w.Body.String(), "I answer questions")
}

func TestAssistant_Stream(t *testing.T) {
	a := newTestApp(t)
	srv := httptest.NewServer(a.router())
	defer srv.Close()

	s := a.sessions.Create()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/assistant/sessions/" + s.ID() + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var frame wsFrame
	require.NoError(t, wsjson.Read(ctx, conn, &frame))
	require.Equal(t, "snapshot", frame.Type)
	require.NotNil(t, frame.Session)
	assert.Equal(t, s.ID(), frame.Session.ID)

	require.True(t, s.Submit("what is your degree?"))

	for {
		var ev wsFrame
		require.NoError(t, wsjson.Read(ctx, conn, &ev))
		require.NotNil(t, ev.Event)
		if ev.Event.Type == assistant.EventMessage && ev.Event.Message.Role == assistant.RoleAssistant {
			assert.Equal(t, assistant.EducationResponse, ev.Event.Message.Content)
			break
		}
	}

	require.NoError(t, a.sessions.Teardown(s.ID()))
	for {
		var ev wsFrame
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
			break
		}
	}
}

func TestEvents(t *testing.T) {
	a := newTestApp(t)
	r := a.router()

	w := doRequest(t, r, http.MethodPost, "/api/events", []byte(`{"action":"Resume_Download","category":"engagement","value":1}`), "application/json")
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = doRequest(t, r, http.MethodPost, "/api/events", []byte(`{"label":"missing action"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	a.tracker.Wait()
	stats, err := a.store.Stats(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalEvents)
	require.NotEmpty(t, stats.EventsByAction)
	assert.Equal(t, "resume_download", stats.EventsByAction[0].Key)
}

func TestEvents_Disabled(t *testing.T) {
	a := newTestApp(t)
	a.tracker = newTracker(a.store, false)

	w := doRequest(t, a.router(), http.MethodPost, "/api/events", []byte(`{"action":"click","category":"nav"}`), "application/json")
	assert.Equal(t, http.StatusAccepted, w.Code)

	a.tracker.Wait()
	stats, err := a.store.Stats(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalEvents)
}

func TestAssistantQuestionTracked(t *testing.T) {
	a := newTestApp(t)
	r := a.router()
	snap := createSession(t, r)

	w := doRequest(t, r, http.MethodPost, "/api/assistant/sessions/"+snap.ID+"/messages", []byte(`{"message":"how can I contact you"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code)

	a.tracker.Wait()
	stats, err := a.store.Stats(context.Background(), time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, stats.TopTopics)
	assert.Equal(t, assistant.TopicContact, stats.TopTopics[0].Key)
}
