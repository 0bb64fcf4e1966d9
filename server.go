package main

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/assistant"
	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/contact"
	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/logger"
	"github.com/Zachkp/folio/internal/store"
)

//go:embed templates/*.html
var templatesFS embed.FS

// app holds the dependencies shared by every handler.
type app struct {
	cfg      *config.Config
	store    store.Store
	sessions *assistant.Manager
	mailer   *contact.Mailer
	tracker  *tracker
	limiter  *rateLimiter
	admin    *adminAuth
	site     *content.Site
}

func newApp(cfg *config.Config, st store.Store, responder *assistant.Responder, site *content.Site) *app {
	return &app{
		cfg:      cfg,
		store:    st,
		sessions: assistant.NewManager(responder, assistant.NewBus(), cfg.Assistant.SessionTTL, assistant.WithReplyDelay(cfg.Assistant.ReplyDelay)),
		mailer:   contact.NewMailer(cfg.SMTP, nil),
		tracker:  newTracker(st, cfg.AnalyticsEnabled),
		limiter:  newRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window),
		admin:    newAdminAuth(cfg.Admin),
		site:     site,
	}
}

// loadResponder builds the responder from the rule file if one is set.
func loadResponder(cfg *config.Config) (*assistant.Responder, error) {
	if cfg.Assistant.RulesPath == "" {
		return assistant.DefaultResponder(), nil
	}
	rules, fallback, err := assistant.LoadRules(cfg.Assistant.RulesPath)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded assistant rules", "path", cfg.Assistant.RulesPath, "rules", len(rules))
	return assistant.NewResponder(rules, fallback), nil
}

func (a *app) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(corsMiddleware(a.cfg.AllowedOrigins))
	r.Use(a.visitorTrackingMiddleware())

	if a.cfg.TemplateDir != "" {
		r.LoadHTMLGlob(filepath.Join(a.cfg.TemplateDir, "*"))
	} else {
		r.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))
	}

	r.GET("/healthz", a.handleHealth)

	a.registerPageRoutes(r)
	r.POST("/contact", a.handleContact)
	r.POST("/api/events", a.handleEvent)

	a.registerAssistantRoutes(r)
	a.registerAdminRoutes(r)

	return r
}

func (a *app) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := a.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": a.sessions.Len()})
}

// serve runs the HTTP server until ctx is cancelled.
func (a *app) serve(ctx context.Context) error {
	a.sessions.StartEviction(ctx)
	a.startVisitorCleanup(ctx)
	a.limiter.start(ctx)

	srv := &http.Server{
		Addr:        ":" + a.cfg.Port,
		Handler:     a.router(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", srv.Addr, "dev", a.cfg.IsDevelopment())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	a.sessions.Shutdown()
	a.tracker.Wait()
	return err
}
