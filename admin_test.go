package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/folio/internal/assistant"
	"github.com/Zachkp/folio/internal/store"
)

func adminLogin(t *testing.T, a *app, h http.Handler) *http.Cookie {
	t.Helper()
	form := url.Values{}
	form.Set("username", a.cfg.Admin.Username)
	form.Set("password", a.cfg.Admin.Password)

	w := doRequest(t, h, http.MethodPost, "/admin/login", []byte(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))

	for _, c := range w.Result().Cookies() {
		if c.Name == "admin_token" {
			return c
		}
	}
	t.Fatal("admin_token cookie not set")
	return nil
}

func adminRequest(h http.Handler, method, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAdmin_RequiresLogin(t *testing.T) {
	a := newTestApp(t)
	r := a.router()

	for _, path := range []string{"/admin/dashboard", "/admin/api/stats", "/admin/api/rules"} {
		w := adminRequest(r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/admin/login", w.Header().Get("Location"), path)
	}

	w := adminRequest(r, http.MethodGet, "/admin/api/stats", &http.Cookie{Name: "admin_token", Value: "forged"})
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestAdmin_BadCredentials(t *testing.T) {
	a := newTestApp(t)
	form := url.Values{}
	form.Set("username", "admin")
	form.Set("password", "wrong")

	w := doRequest(t, a.router(), http.MethodPost, "/admin/login", []byte(form.Encode()), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
}

func TestAdmin_StatsAndDashboard(t *testing.T) {
	a := newTestApp(t)
	r := a.router()
	cookie := adminLogin(t, a, r)

	// A tracked page view.
	w := doRequest(t, r, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	a.tracker.Wait()

	w = adminRequest(r, http.MethodGet, "/admin/api/stats", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var stats store.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.TotalVisitors)
	require.Len(t, stats.RecentVisitors, 1)
	assert.Equal(t, "/", stats.RecentVisitors[0].Path)
	assert.Len(t, stats.RecentVisitors[0].HashedIP, 16)

	w = adminRequest(r, http.MethodGet, "/admin/dashboard", cookie)
	assert.Equal(t, http.StatusOK, w.Code)

	w = adminRequest(r, http.MethodGet, "/admin/export/stats", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "admin-stats.json")
}

func TestAdmin_VisitTrackingRespectsDNT(t *testing.T) {
	a := newTestApp(t)
	r := a.router()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("DNT", "1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	doRequest(t, r, http.MethodGet, "/privacy", nil, "")
	a.tracker.Wait()

	visits, err := a.store.RecentVisitors(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, visits)
}

func TestAdmin_Rules(t *testing.T) {
	a := newTestApp(t)
	r := a.router()
	cookie := adminLogin(t, a, r)

	w := adminRequest(r, http.MethodGet, "/admin/api/rules", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Rules    []assistant.Rule `json:"rules"`
		Fallback string           `json:"fallback"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Rules, 7)
	assert.Equal(t, assistant.TopicExperience, body.Rules[0].Topic)
	assert.Equal(t, assistant.DefaultResponse, body.Fallback)
}

func TestAdmin_BroadcastOpen(t *testing.T) {
	a := newTestApp(t)
	r := a.router()
	cookie := adminLogin(t, a, r)

	first := a.sessions.Create()
	second := a.sessions.Create()

	w := adminRequest(r, http.MethodPost, "/admin/assistant/broadcast-open", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"delivered":2`)
	assert.True(t, first.IsOpen())
	assert.True(t, second.IsOpen())
}

func TestAdmin_Logout(t *testing.T) {
	a := newTestApp(t)
	w := doRequest(t, a.router(), http.MethodGet, "/admin/logout", nil, "")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.Contains(w.Header().Get("Set-Cookie"), "admin_token=;"))
}

func TestCleanupOldVisitorData(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, a.store.RecordVisit(ctx, store.Visit{
		HashedIP:  a.admin.hashIP("203.0.113.9"),
		Path:      "/",
		Timestamp: time.Now().Add(-a.cfg.VisitorRetention - time.Hour),
	}))
	require.NoError(t, a.store.RecordVisit(ctx, store.Visit{
		HashedIP:  a.admin.hashIP("203.0.113.9"),
		Path:      "/",
		Timestamp: time.Now(),
	}))

	a.cleanupOldVisitorData(ctx)

	visits, err := a.store.RecentVisitors(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, visits, 1)
}

func TestHashIP(t *testing.T) {
	auth := newAdminAuth(newTestApp(t).cfg.Admin)
	assert.Equal(t, auth.hashIP("198.51.100.1"), auth.hashIP("198.51.100.1"))
	assert.NotEqual(t, auth.hashIP("198.51.100.1"), auth.hashIP("198.51.100.2"))
	assert.NotEqual(t, newAdminAuth(auth.creds).hashIP("198.51.100.1"), auth.hashIP("198.51.100.1"), "salt is per process")
}
