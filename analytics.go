package main

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/logger"
	"github.com/Zachkp/folio/internal/store"
)

// tracker records analytics in the background. Callers never wait on it.
type tracker struct {
	store   store.Store
	enabled bool
	wg      sync.WaitGroup
}

func newTracker(st store.Store, enabled bool) *tracker {
	return &tracker{store: st, enabled: enabled}
}

// Event records an analytics event.
func (t *tracker) Event(e store.Event) {
	if !t.enabled {
		return
	}
	t.run(func(ctx context.Context) error { return t.store.RecordEvent(ctx, e) })
}

// Visit records a page view. DNT and path filtering happen in the middleware.
func (t *tracker) Visit(v store.Visit) {
	t.run(func(ctx context.Context) error { return t.store.RecordVisit(ctx, v) })
}

func (t *tracker) run(fn func(context.Context) error) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			logger.Warn("Error recording analytics", "error", err)
		}
	}()
}

// Wait blocks until in-flight writes finish.
func (t *tracker) Wait() {
	t.wg.Wait()
}

type eventRequest struct {
	Action   string   `json:"action" binding:"required,max=64"`
	Category string   `json:"category" binding:"required,max=64"`
	Label    string   `json:"label" binding:"max=256"`
	Value    *float64 `json:"value"`
}

// handleEvent accepts page analytics events fire-and-forget.
func (a *app) handleEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event"})
		return
	}

	a.tracker.Event(store.Event{
		Action:   strings.ToLower(req.Action),
		Category: strings.ToLower(req.Category),
		Label:    req.Label,
		Value:    req.Value,
	})
	c.Status(http.StatusAccepted)
}
