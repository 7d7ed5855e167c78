package mail

import (
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/photoshare/photoshare-api/pkg/config"
)

// Mailer sends transactional email over an SMTP relay using STARTTLS.
type Mailer struct {
	cfg config.MailConfig
}

// NewMailer constructs a Mailer from configuration.
func NewMailer(cfg config.MailConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether outbound mail is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Enabled
}

// SendConfirmation delivers an email-confirmation link carrying the token.
func (m *Mailer) SendConfirmation(toEmail, token string) error {
	confirmURL := fmt.Sprintf("%s/api/v1/auth/confirm?token=%s", m.cfg.BaseURL, token)
	subject := "Confirm your PhotoShare account"
	body := "Follow the link to confirm your email address:\r\n" + confirmURL

	msg := []byte("From: " + m.cfg.From + "\r\n" +
		"To: " + toEmail + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" + body)

	return m.send(toEmail, msg)
}

func (m *Mailer) send(toEmail string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("dial smtp relay: %w", err)
	}
	defer client.Close() //nolint:errcheck

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{ServerName: m.cfg.Host}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}

	return client.Quit()
}
