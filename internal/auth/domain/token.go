package domain

import "time"

type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelSMS      Channel = "SMS"
	ChannelWhatsApp Channel = "WHATSAPP"
)

func ValidChannel(c Channel) bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelWhatsApp:
		return true
	}
	return false
}

type Purpose string

const (
	PurposeSignup        Purpose = "SIGNUP"
	PurposeLogin         Purpose = "LOGIN"
	PurposeResetPassword Purpose = "RESET_PASSWORD"
)

func ValidPurpose(p Purpose) bool {
	switch p {
	case PurposeSignup, PurposeLogin, PurposeResetPassword:
		return true
	}
	return false
}

// VerificationToken is an issued OTP. At most one usable token exists per
// (identifier, purpose); issuing a new one replaces the previous row.
type VerificationToken struct {
	ID         string
	Identifier string // email address or phone number
	Channel    Channel
	Purpose    Purpose
	CodeHash   string
	ExpiresAt  time.Time
	Attempts   int
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

func (t VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (t VerificationToken) Consumed() bool {
	return t.ConsumedAt != nil
}
