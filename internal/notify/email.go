package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ConsoleEmail logs instead of sending. Default in development.
type ConsoleEmail struct {
	log *slog.Logger
}

func (c ConsoleEmail) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	c.log.Info("console email", "to", to, "subject", subject, "body", htmlBody)
	return nil
}

type SendGrid struct {
	log    *slog.Logger
	apiKey string
	from   string
}

func NewSendGrid(log *slog.Logger, apiKey, from string) *SendGrid {
	return &SendGrid{log: log, apiKey: apiKey, from: from}
}

func (s *SendGrid) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if s.apiKey == "" || s.from == "" {
		return ErrNotConfigured
	}
	msg := mail.NewSingleEmail(
		mail.NewEmail("", s.from),
		subject,
		mail.NewEmail("", to),
		htmlBody,
		htmlBody,
	)
	client := sendgrid.NewSendClient(s.apiKey)
	resp, err := client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	s.log.Info("email sent", "provider", "sendgrid", "to", to)
	return nil
}

type Postmark struct {
	log    *slog.Logger
	client *postmark.Client
	from   string
}

func NewPostmark(log *slog.Logger, apiToken, from string) *Postmark {
	return &Postmark{log: log, client: postmark.NewClient(apiToken, ""), from: from}
}

func (p *Postmark) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if p.from == "" {
		return ErrNotConfigured
	}
	_, err := p.client.SendEmail(postmark.Email{
		From:     p.from,
		To:       to,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("postmark: %w", err)
	}
	p.log.Info("email sent", "provider", "postmark", "to", to)
	return nil
}

// Resend wraps the Resend HTTP API (https://api.resend.com/emails).
type Resend struct {
	log     *slog.Logger
	apiKey  string
	from    string
	baseURL string
	http    *http.Client
}

func NewResend(log *slog.Logger, apiKey, from string) *Resend {
	return &Resend{log: log, apiKey: apiKey, from: from, baseURL: "https://api.resend.com", http: httpClient()}
}

func (r *Resend) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if r.apiKey == "" || r.from == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(map[string]any{
		"from":    r.from,
		"to":      []string{to},
		"subject": subject,
		"html":    htmlBody,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("resend: status %d", resp.StatusCode)
	}
	r.log.Info("email sent", "provider", "resend", "to", to)
	return nil
}
