// Package email formats and sends comment notifications over SMTP.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/smtp"
	"os"
	"strings"

	"github.com/evcraddock/fluent-comments/internal/comment"
	"github.com/evcraddock/fluent-comments/internal/logging"
)

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	From string `yaml:"from"`
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// SMTPConfigFromEnv reads SMTP settings from FC_SMTP_* variables.
func SMTPConfigFromEnv() SMTPConfig {
	port := os.Getenv("FC_SMTP_PORT")
	if port == "" {
		port = "587"
	}
	return SMTPConfig{
		Host: os.Getenv("FC_SMTP_HOST"),
		Port: port,
		User: os.Getenv("FC_SMTP_USER"),
		Pass: os.Getenv("FC_SMTP_PASS"),
		From: os.Getenv("FC_SMTP_FROM"),
	}
}

// FormatNotification builds the plain-text body announcing a new comment.
func FormatNotification(c *comment.Comment, baseURL string) string {
	var buf bytes.Buffer

	target := c.ContentType + " #" + c.ObjectPK
	if c.Target != nil {
		target = fmt.Sprintf("%q (%s #%s)", c.Target.String(), c.ContentType, c.ObjectPK)
	}

	fmt.Fprintf(&buf, "A new comment was posted on %s.\n\n", target)
	fmt.Fprintf(&buf, "Author: %s <%s>\n", c.UserName, c.UserEmail)
	if c.UserURL != "" {
		fmt.Fprintf(&buf, "URL:    %s\n", c.UserURL)
	}
	if c.IPAddress != "" {
		fmt.Fprintf(&buf, "IP:     %s\n", c.IPAddress)
	}
	fmt.Fprintln(&buf)

	for _, line := range strings.Split(c.Body, "\n") {
		fmt.Fprintf(&buf, "> %s\n", line)
	}

	fmt.Fprintf(&buf, "\nComment #%d: %s/comments/%d/\n", c.ID, strings.TrimRight(baseURL, "/"), c.ID)

	return buf.String()
}

// Notifier emails managers after each posted comment.
type Notifier struct {
	cfg      SMTPConfig
	managers []string
	baseURL  string
	send     func(cfg SMTPConfig, to []string, subject, body string) error
}

// NewNotifier creates a notifier. It sends nothing when SMTP is unconfigured
// or there are no managers.
func NewNotifier(cfg SMTPConfig, managers []string, baseURL string) *Notifier {
	return &Notifier{cfg: cfg, managers: managers, baseURL: baseURL, send: Send}
}

// Name implements comment.AfterSaver.
func (n *Notifier) Name() string { return "email_managers" }

// AfterSave implements comment.AfterSaver.
func (n *Notifier) AfterSave(ctx context.Context, c *comment.Comment, r *http.Request) error {
	if !n.cfg.IsConfigured() || len(n.managers) == 0 {
		return nil
	}

	subject := fmt.Sprintf("New comment on %s #%s", c.ContentType, c.ObjectPK)
	if err := n.send(n.cfg, n.managers, subject, FormatNotification(c, n.baseURL)); err != nil {
		return fmt.Errorf("notifying managers: %w", err)
	}

	logging.FromContext(ctx).Debug("managers notified", "comment_id", c.ID, "recipients", len(n.managers))
	return nil
}

// Send sends an email via SMTP.
// Supports both port 465 (implicit TLS) and port 587 (STARTTLS).
func Send(cfg SMTPConfig, to []string, subject, body string) error {
	if !cfg.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		cfg.From,
		strings.Join(to, ", "),
		subject,
		body,
	)

	addr := cfg.Host + ":" + cfg.Port

	if cfg.Port == "465" {
		return sendImplicitTLS(cfg, addr, to, msg)
	}
	return sendSTARTTLS(cfg, addr, to, msg)
}

// sendImplicitTLS connects over TLS directly (port 465/SMTPS).
func sendImplicitTLS(cfg SMTPConfig, addr string, to []string, msg string) (err error) {
	tlsCfg := &tls.Config{ServerName: cfg.Host}
	conn, err := tls.Dial("tcp", addr, tlsCfg)
	if err != nil {
		return fmt.Errorf("TLS dial: %w", err)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer func() {
		if quitErr := c.Quit(); quitErr != nil && err == nil {
			err = fmt.Errorf("quit: %w", quitErr)
		}
	}()

	if cfg.User != "" {
		auth := smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return nil
}

// sendSTARTTLS connects plain then upgrades to TLS (port 587).
func sendSTARTTLS(cfg SMTPConfig, addr string, to []string, msg string) error {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, cfg.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
