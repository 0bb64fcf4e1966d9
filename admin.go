// admin.go - privacy-conscious visitor tracking and admin dashboard
package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/assistant"
	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/logger"
	"github.com/Zachkp/folio/internal/store"
)

const visitorCleanupInterval = 24 * time.Hour

// adminAuth holds the per-process admin token and IP hashing salt.
type adminAuth struct {
	creds config.AdminConfig
	token string
	salt  string
}

func newAdminAuth(creds config.AdminConfig) *adminAuth {
	a := &adminAuth{
		creds: creds,
		token: generateAdminToken(),
		salt:  generateAdminToken(),
	}

	logger.Info("Admin access available at: /admin/login")
	if gin.Mode() == gin.DebugMode {
		logger.Debug("Admin token (dev only)", "token", a.token)
	}
	return a
}

func generateAdminToken() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		logger.Fatal("Failed to generate admin token", "error", err)
	}
	return hex.EncodeToString(bytes)
}

// hashIP hashes an IP address with the process salt (consistent per IP).
func (a *adminAuth) hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + a.salt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

func (a *adminAuth) validCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.creds.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.creds.Password)) == 1
	return userOK && passOK
}

// middleware checks the admin cookie.
func (a *adminAuth) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("admin_token")
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// untrackedPrefixes are never recorded as visits.
var untrackedPrefixes = []string{"/static/", "/images/", "/admin/", "/favicon", "/privacy", "/api/", "/assistant/", "/healthz", "/contact-form"}

// visitorTrackingMiddleware records page views with hashed IPs in the background.
func (a *app) visitorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range untrackedPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}
		// HTMX fragments load with the page; only the page counts.
		if strings.HasSuffix(path, "-content") {
			c.Next()
			return
		}

		// Respect Do Not Track header
		if c.GetHeader("DNT") == "1" || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		a.tracker.Visit(store.Visit{
			HashedIP:  a.admin.hashIP(c.ClientIP()),
			UserAgent: c.GetHeader("User-Agent"),
			Path:      path,
			Timestamp: time.Now(),
		})
		c.Next()
	}
}

// cleanupOldVisitorData removes visits older than the retention window.
func (a *app) cleanupOldVisitorData(ctx context.Context) {
	rowsDeleted, err := a.store.CleanupVisitors(ctx, a.cfg.VisitorRetention)
	if err != nil {
		logger.Error("Error cleaning up old visitor data", "error", err)
		return
	}
	if rowsDeleted > 0 {
		logger.Info("Privacy cleanup: removed old visitor records", "count", rowsDeleted, "retention", a.cfg.VisitorRetention)
	}
}

func (a *app) startVisitorCleanup(ctx context.Context) {
	go func() {
		a.cleanupOldVisitorData(ctx)
		ticker := time.NewTicker(visitorCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.cleanupOldVisitorData(ctx)
			}
		}
	}()
}

// Setup all admin routes
func (a *app) registerAdminRoutes(r *gin.Engine) {
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title": "Privacy Policy",
		})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		if a.admin.validCredentials(c.PostForm("username"), c.PostForm("password")) {
			c.SetCookie("admin_token", a.admin.token, 3600*24, "/admin", "", !a.cfg.IsDevelopment(), true)
			logger.Info("Admin login successful", "client", a.admin.hashIP(c.ClientIP()))
			c.Redirect(http.StatusFound, "/admin/dashboard")
			return
		}
		logger.Warn("Failed admin login attempt", "client", a.admin.hashIP(c.ClientIP()))
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"error": "Invalid credentials",
		})
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie("admin_token", "", -1, "/admin", "", false, true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	adminGroup := r.Group("/admin")
	adminGroup.Use(a.admin.middleware())

	adminGroup.GET("/dashboard", func(c *gin.Context) {
		stats, err := a.store.Stats(c.Request.Context(), time.Now())
		if err != nil {
			logger.Error("Error loading admin stats", "error", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"stats":          stats,
			"activeSessions": a.sessions.Len(),
		})
	})

	adminGroup.GET("/api/stats", func(c *gin.Context) {
		stats, err := a.store.Stats(c.Request.Context(), time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	adminGroup.GET("/api/rules", func(c *gin.Context) {
		responder := a.sessions.Responder()
		c.JSON(http.StatusOK, gin.H{
			"rules":    responder.Rules(),
			"fallback": responder.Fallback(),
		})
	})

	adminGroup.POST("/assistant/broadcast-open", func(c *gin.Context) {
		delivered := a.sessions.Bus().Publish(assistant.BroadcastOpen)
		c.JSON(http.StatusOK, gin.H{"delivered": delivered})
	})

	adminGroup.POST("/privacy/cleanup", func(c *gin.Context) {
		go a.cleanupOldVisitorData(context.Background())
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup initiated"})
	})

	adminGroup.GET("/export/stats", func(c *gin.Context) {
		stats, err := a.store.Stats(c.Request.Context(), time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		logger.Info("Admin stats exported", "client", a.admin.hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, stats)
	})
}
