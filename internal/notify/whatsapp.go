package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

type ConsoleWhatsApp struct {
	log *slog.Logger
}

func (c ConsoleWhatsApp) SendWhatsApp(ctx context.Context, phone, code string) error {
	c.log.Info("console whatsapp", "phone", phone, "code", code)
	return nil
}

// MetaWhatsApp sends an OTP template message through the Meta Cloud API.
type MetaWhatsApp struct {
	log      *slog.Logger
	token    string
	phoneID  string
	template string
	baseURL  string
	http     *http.Client
}

func NewMetaWhatsApp(log *slog.Logger, token, phoneID, template string) *MetaWhatsApp {
	if template == "" {
		template = "otp_code"
	}
	return &MetaWhatsApp{
		log:      log,
		token:    token,
		phoneID:  phoneID,
		template: template,
		baseURL:  "https://graph.facebook.com",
		http:     httpClient(),
	}
}

func (m *MetaWhatsApp) SendWhatsApp(ctx context.Context, phone, code string) error {
	if m.token == "" || m.phoneID == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(map[string]any{
		"messaging_product": "whatsapp",
		"to":                phone,
		"type":              "template",
		"template": map[string]any{
			"name":     m.template,
			"language": map[string]string{"code": "en"},
			"components": []map[string]any{
				{
					"type": "body",
					"parameters": []map[string]string{
						{"type": "text", "text": code},
					},
				},
			},
		},
	})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/v19.0/%s/messages", m.baseURL, m.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("meta whatsapp: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("meta whatsapp: status %d", resp.StatusCode)
	}
	m.log.Info("whatsapp sent", "phone", phone)
	return nil
}
