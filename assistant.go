package main

import (
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/assistant"
	"github.com/Zachkp/folio/internal/logger"
	"github.com/Zachkp/folio/internal/store"
)

type messageRequest struct {
	Message string `json:"message" form:"message"`
}

// wsFrame is one websocket message: a snapshot on connect, then events.
type wsFrame struct {
	Type    string              `json:"type"`
	Session *assistant.Snapshot `json:"session,omitempty"`
	Event   *assistant.Event    `json:"event,omitempty"`
}

func (a *app) registerAssistantRoutes(r *gin.Engine) {
	api := r.Group("/api/assistant/sessions")
	api.POST("", a.handleCreateSession)
	api.GET("/:id", a.withSession(a.handleGetSession))
	api.POST("/:id/messages", a.withSession(a.handleSubmit))
	api.POST("/:id/open", a.withSession(func(c *gin.Context, s *assistant.Session) { s.Open(); a.handleGetSession(c, s) }))
	api.POST("/:id/close", a.withSession(func(c *gin.Context, s *assistant.Session) { s.Close(); a.handleGetSession(c, s) }))
	api.POST("/:id/toggle", a.withSession(func(c *gin.Context, s *assistant.Session) { s.Toggle(); a.handleGetSession(c, s) }))
	api.POST("/:id/signal", a.handleSignal)
	api.DELETE("/:id", a.handleTeardown)
	api.GET("/:id/ws", a.withSession(a.handleStream))

	r.GET("/assistant/:id/transcript", a.withSession(func(c *gin.Context, s *assistant.Session) {
		c.HTML(http.StatusOK, "assistant-transcript.html", gin.H{"session": s.Snapshot()})
	}))
}

// withSession resolves :id or answers 404.
func (a *app) withSession(h func(*gin.Context, *assistant.Session)) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := a.sessions.Get(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h(c, s)
	}
}

func (a *app) handleCreateSession(c *gin.Context) {
	if !a.limiter.Allow("session:" + a.admin.hashIP(c.ClientIP())) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}
	s := a.sessions.Create()
	a.tracker.Event(store.Event{Action: "assistant_session", Category: "assistant"})
	c.JSON(http.StatusCreated, s.Snapshot())
}

func (a *app) handleGetSession(c *gin.Context, s *assistant.Session) {
	c.JSON(http.StatusOK, s.Snapshot())
}

// handleSubmit never fails for blank or overlapping messages; those are
// reported as accepted=false.
func (a *app) handleSubmit(c *gin.Context, s *assistant.Session) {
	if !a.limiter.Allow(a.admin.hashIP(c.ClientIP())) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}

	var req messageRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	accepted := s.Submit(req.Message)
	if accepted {
		a.tracker.Event(store.Event{
			Action:   store.AssistantQuestionAction,
			Category: "assistant",
			Label:    a.sessions.Responder().Topic(req.Message),
		})
	}
	c.JSON(http.StatusOK, gin.H{"accepted": accepted, "session": s.Snapshot()})
}

// handleSignal raises the session's open signal the way another part of
// the page would.
func (a *app) handleSignal(c *gin.Context) {
	delivered := a.sessions.Bus().Publish(assistant.OpenSignal(c.Param("id")))
	if delivered == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": assistant.ErrSessionNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivered": delivered})
}

func (a *app) handleTeardown(c *gin.Context) {
	if err := a.sessions.Teardown(c.Param("id")); err != nil {
		if errors.Is(err, assistant.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// handleStream pushes the session snapshot and then every state transition.
func (a *app) handleStream(c *gin.Context, s *assistant.Session) {
	ws, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: a.cfg.IsDevelopment(),
		OriginPatterns:     a.cfg.AllowedOrigins,
	})
	if err != nil {
		logger.Warn("Assistant websocket accept failed", "session_id", s.ID(), "error", err)
		return
	}
	defer ws.CloseNow()

	// Watch before the snapshot so no transition falls between them.
	events, cancel := s.Watch(32)
	defer cancel()

	ctx := ws.CloseRead(c.Request.Context())
	snap := s.Snapshot()
	if err := wsjson.Write(ctx, ws, wsFrame{Type: "snapshot", Session: &snap}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				_ = ws.Close(websocket.StatusNormalClosure, "session ended")
				return
			}
			if err := wsjson.Write(ctx, ws, wsFrame{Type: "event", Event: &ev}); err != nil {
				logger.Debug("Assistant websocket write failed", "session_id", s.ID(), "error", err)
				return
			}
		}
	}
}
