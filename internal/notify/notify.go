// Package notify holds the outbound messaging boundary: email, SMS and
// WhatsApp senders selected at startup by environment variable.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"
)

var ErrNotConfigured = errors.New("notify: provider credentials not configured")

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, phone, code string) error
}

// Senders bundles the three channels used by the OTP flow.
type Senders struct {
	Email    EmailSender
	SMS      SMSSender
	WhatsApp WhatsAppSender
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// FromEnv picks providers by EMAIL_PROVIDER / SMS_PROVIDER / WHATSAPP_PROVIDER.
// Unset or unknown values fall back to the console senders, which only log.
func FromEnv(log *slog.Logger) Senders {
	s := Senders{
		Email:    ConsoleEmail{log: log},
		SMS:      ConsoleSMS{log: log},
		WhatsApp: ConsoleWhatsApp{log: log},
	}

	switch os.Getenv("EMAIL_PROVIDER") {
	case "sendgrid":
		s.Email = NewSendGrid(log, os.Getenv("SENDGRID_API_KEY"), os.Getenv("EMAIL_FROM"))
	case "postmark":
		s.Email = NewPostmark(log, os.Getenv("POSTMARK_API_TOKEN"), os.Getenv("EMAIL_FROM"))
	case "resend":
		s.Email = NewResend(log, os.Getenv("RESEND_API_KEY"), os.Getenv("EMAIL_FROM"))
	}

	switch os.Getenv("SMS_PROVIDER") {
	case "twilio":
		s.SMS = NewTwilio(log, os.Getenv("TWILIO_ACCOUNT_SID"), os.Getenv("TWILIO_AUTH_TOKEN"), os.Getenv("TWILIO_FROM"))
	case "fast2sms":
		s.SMS = NewFast2SMS(log, os.Getenv("FAST2SMS_API_KEY"))
	case "msg91":
		s.SMS = NewMSG91(log, os.Getenv("MSG91_AUTH_KEY"), os.Getenv("MSG91_TEMPLATE_ID"))
	}

	if os.Getenv("WHATSAPP_PROVIDER") == "meta" {
		s.WhatsApp = NewMetaWhatsApp(log, os.Getenv("META_WA_TOKEN"), os.Getenv("META_WA_PHONE_ID"), os.Getenv("META_WA_TEMPLATE"))
	}

	return s
}
