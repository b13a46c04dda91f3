package alert

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Alerter sends operational alerts, e.g. when the entity loader's circuit
// breaker trips.
type Alerter interface {
	Alert(subject, message string) error
}

// Config holds SMTP settings for email alerting.
type Config struct {
	Enabled  bool
	SMTPHost string
	SMTPPort int
	Username string
	Password string
	From     string
	To       []string
}

// EmailAlerter sends alerts over SMTP.
type EmailAlerter struct {
	cfg Config
}

// NewEmailAlerter creates an email alerter with the given settings.
func NewEmailAlerter(cfg Config) *EmailAlerter {
	return &EmailAlerter{cfg: cfg}
}

// Alert sends an email with the given subject and message. Disabled
// configurations make it a no-op.
func (a *EmailAlerter) Alert(subject, message string) error {
	if !a.cfg.Enabled {
		return nil
	}

	auth := smtp.PlainAuth("", a.cfg.Username, a.cfg.Password, a.cfg.SMTPHost)
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		strings.Join(a.cfg.To, ","), subject, message))
	addr := fmt.Sprintf("%s:%d", a.cfg.SMTPHost, a.cfg.SMTPPort)

	if err := smtp.SendMail(addr, auth, a.cfg.From, a.cfg.To, msg); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	return nil
}

// NoOpAlerter discards alerts. Used when alerting is disabled.
type NoOpAlerter struct{}

func (n *NoOpAlerter) Alert(subject, message string) error { return nil }
