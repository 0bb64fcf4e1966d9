package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/assistant"
	"github.com/Zachkp/folio/internal/logger"
)

const sessionCookie = "assistant_session"

// registerPageRoutes wires the home page and its HTMX content fragments.
func (a *app) registerPageRoutes(r *gin.Engine) {
	// Home page route
	r.GET("/", a.handleHome)

	// HTMX Contact form endpoint - returns just the form HTML
	r.GET("/contact-form", func(c *gin.Context) {
		c.HTML(http.StatusOK, "contact.html", gin.H{
			"title": "Contact Me",
		})
	})

	// Work experience content
	r.GET("/work-content", func(c *gin.Context) {
		c.HTML(http.StatusOK, "work-content.html", gin.H{
			"experience": a.site.Experience,
		})
	})

	// Education and certifications
	r.GET("/education-content", func(c *gin.Context) {
		c.HTML(http.StatusOK, "education-content.html", gin.H{
			"education":      a.site.Education,
			"certifications": a.site.Certifications,
		})
	})

	r.GET("/skills-content", func(c *gin.Context) {
		c.HTML(http.StatusOK, "skills-content.html", gin.H{
			"skills": a.site.Skills,
		})
	})

	r.GET("/projects-content", func(c *gin.Context) {
		c.HTML(http.StatusOK, "projects-content.html", gin.H{
			"projects": a.site.Projects,
		})
	})

	r.GET("/api/content", func(c *gin.Context) {
		c.JSON(http.StatusOK, a.site)
	})
}

// handleHome renders the page around the visitor's assistant session. A
// session named by the cookie is reused; a new one is created only when the
// cookie is missing or stale, and creation is rate limited per client.
func (a *app) handleHome(c *gin.Context) {
	s, ok := a.visitorSession(c)
	if !ok {
		if !a.limiter.Allow("session:" + a.admin.hashIP(c.ClientIP())) {
			c.String(http.StatusTooManyRequests, "Too many requests, please try again shortly.")
			return
		}
		s = a.sessions.Create()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, s.ID(), int(a.cfg.Assistant.SessionTTL.Seconds()), "/", "", !a.cfg.IsDevelopment(), true)
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"title":     "Portfolio",
		"about":     a.site.About,
		"sessionID": s.ID(),
	})
}

func (a *app) visitorSession(c *gin.Context) (*assistant.Session, bool) {
	id, err := c.Cookie(sessionCookie)
	if err != nil || id == "" {
		return nil, false
	}
	s, err := a.sessions.Get(id)
	if err != nil {
		logger.Debug("Stale assistant session cookie", "session_id", id)
		return nil, false
	}
	return s, true
}
