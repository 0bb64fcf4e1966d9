// Package contact delivers portfolio contact form submissions by email.
package contact

import (
	"errors"
	"fmt"
	"net/smtp"
	"net/url"
	"strings"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/internal/logger"
)

// ErrNotConfigured is returned when SMTP credentials are missing.
var ErrNotConfigured = errors.New("SMTP credentials not configured")

// Form is a contact form submission.
type Form struct {
	Name    string `form:"fullName" json:"name" binding:"required,max=120"`
	Email   string `form:"email" json:"email" binding:"required,email,max=254"`
	Message string `form:"message" json:"message" binding:"required,max=5000"`
}

// Outcome is the result of a delivery attempt.
type Outcome struct {
	Success  bool   `json:"success"`
	Fallback bool   `json:"fallback,omitempty"`
	MailTo   string `json:"mailto,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends contact submissions over SMTP.
type Mailer struct {
	cfg  config.SMTPConfig
	send SendFunc
}

// NewMailer creates a mailer. A nil send uses smtp.SendMail.
func NewMailer(cfg config.SMTPConfig, send SendFunc) *Mailer {
	if send == nil {
		send = smtp.SendMail
	}
	return &Mailer{cfg: cfg, send: send}
}

// Deliver sends the form. When SMTP is not configured the outcome carries a
// mailto link instead; when sending fails it carries both the error and the
// link.
func (m *Mailer) Deliver(f Form) Outcome {
	if !m.cfg.Configured() {
		return Outcome{
			Fallback: true,
			MailTo:   MailToURL(m.cfg.ToEmail, f),
			Error:    "Email delivery is not configured. Opening your email client instead.",
		}
	}

	if err := m.Send(f); err != nil {
		logger.With("contact").Error("Error sending contact email", "error", err)
		return Outcome{
			MailTo: MailToURL(m.cfg.ToEmail, f),
			Error:  "Sorry, there was an error sending your message. Please try again later.",
		}
	}

	logger.With("contact").Info("Contact email sent", "from", f.Name)
	return Outcome{Success: true}
}

// Send composes and sends the message.
func (m *Mailer) Send(f Form) error {
	if !m.cfg.Configured() {
		return ErrNotConfigured
	}

	msg := Compose(m.cfg.User, m.cfg.ToEmail, f)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	if err := m.send(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.User, []string{m.cfg.ToEmail}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// Compose builds the RFC 822 message.
func Compose(from, to string, f Form) []byte {
	subject := fmt.Sprintf("Portfolio Contact: %s", stripCRLF(f.Name))
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, f.Name, f.Email, f.Message)

	return []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"Reply-To: " + stripCRLF(f.Email) + "\r\n" +
		"\r\n" +
		body + "\r\n")
}

// MailToURL builds the mailto fallback link.
func MailToURL(to string, f Form) string {
	subject := url.PathEscape(fmt.Sprintf("Portfolio Contact: %s", f.Name))
	body := url.PathEscape(fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s", f.Name, f.Email, f.Message))
	return fmt.Sprintf("mailto:%s?subject=%s&body=%s", to, subject, body)
}

// stripCRLF keeps user input out of other headers.
func stripCRLF(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
