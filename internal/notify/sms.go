package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

type ConsoleSMS struct {
	log *slog.Logger
}

func (c ConsoleSMS) SendSMS(ctx context.Context, phone, message string) error {
	c.log.Info("console sms", "phone", phone, "message", message)
	return nil
}

// Twilio sends through the Messages API with basic auth.
type Twilio struct {
	log        *slog.Logger
	accountSID string
	authToken  string
	from       string
	baseURL    string
	http       *http.Client
}

func NewTwilio(log *slog.Logger, accountSID, authToken, from string) *Twilio {
	return &Twilio{
		log:        log,
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    "https://api.twilio.com",
		http:       httpClient(),
	}
}

func (t *Twilio) SendSMS(ctx context.Context, phone, message string) error {
	if t.accountSID == "" || t.authToken == "" || t.from == "" {
		return ErrNotConfigured
	}
	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", t.from)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, t.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.http.Do(req)
	if err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("twilio: status %d", resp.StatusCode)
	}
	t.log.Info("sms sent", "provider", "twilio", "phone", phone)
	return nil
}

type Fast2SMS struct {
	log     *slog.Logger
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewFast2SMS(log *slog.Logger, apiKey string) *Fast2SMS {
	return &Fast2SMS{log: log, apiKey: apiKey, baseURL: "https://www.fast2sms.com", http: httpClient()}
}

func (f *Fast2SMS) SendSMS(ctx context.Context, phone, message string) error {
	if f.apiKey == "" {
		return ErrNotConfigured
	}
	q := url.Values{}
	q.Set("route", "q")
	q.Set("numbers", strings.TrimPrefix(phone, "+91"))
	q.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/dev/bulkV2?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("authorization", f.apiKey)

	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("fast2sms: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("fast2sms: status %d", resp.StatusCode)
	}
	f.log.Info("sms sent", "provider", "fast2sms", "phone", phone)
	return nil
}

type MSG91 struct {
	log        *slog.Logger
	authKey    string
	templateID string
	baseURL    string
	http       *http.Client
}

func NewMSG91(log *slog.Logger, authKey, templateID string) *MSG91 {
	return &MSG91{log: log, authKey: authKey, templateID: templateID, baseURL: "https://control.msg91.com", http: httpClient()}
}

func (m *MSG91) SendSMS(ctx context.Context, phone, message string) error {
	if m.authKey == "" || m.templateID == "" {
		return ErrNotConfigured
	}
	q := url.Values{}
	q.Set("template_id", m.templateID)
	q.Set("mobile", strings.TrimPrefix(phone, "+"))
	q.Set("otp", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/v5/otp?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("authkey", m.authKey)

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("msg91: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("msg91: status %d", resp.StatusCode)
	}
	m.log.Info("sms sent", "provider", "msg91", "phone", phone)
	return nil
}
