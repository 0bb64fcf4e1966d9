package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/contact"
	"github.com/Zachkp/folio/internal/logger"
	"github.com/Zachkp/folio/internal/store"
)

// Handle contact form submission with HTMX
func (a *app) handleContact(c *gin.Context) {
	var form contact.Form
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "contact-error.html", gin.H{
			"error": "Please provide your name, a valid email address and a message.",
		})
		return
	}

	outcome := a.mailer.Deliver(form)

	status := store.ContactSent
	switch {
	case outcome.Fallback:
		status = store.ContactFallback
	case !outcome.Success:
		status = store.ContactFailed
	}
	a.recordContact(form, status)
	a.tracker.Event(store.Event{Action: "contact_submit", Category: "contact", Label: status})

	if !outcome.Success {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error":  outcome.Error,
			"mailto": outcome.MailTo,
		})
		return
	}

	c.HTML(http.StatusOK, "contact-success.html", gin.H{
		"success": "Thank you for your message! I'll get back to you soon.",
	})
}

func (a *app) recordContact(form contact.Form, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := a.store.RecordContact(ctx, store.ContactMessage{
		Name:    form.Name,
		Email:   form.Email,
		Message: form.Message,
		Status:  status,
	})
	if err != nil {
		logger.Error("Error recording contact message", "error", err)
	}
}
