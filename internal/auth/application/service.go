package application

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/chronoshop/storefront/internal/auth/domain"
	"github.com/chronoshop/storefront/internal/notify"
)

var (
	ErrCooldown         = errors.New("code recently sent, wait before requesting another")
	ErrTokenNotFound    = errors.New("no active code, request a new one")
	ErrTokenExpired     = errors.New("code expired, request a new one")
	ErrTokenConsumed    = errors.New("code already used")
	ErrAttemptsExceeded = errors.New("too many attempts, request a new code")
	ErrBadCredentials   = errors.New("invalid email or password")
	ErrUserNotFound     = errors.New("user not found")
)

// InvalidCodeError reports a wrong code and how many tries remain.
type InvalidCodeError struct {
	Remaining int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid code, %d attempts remaining", e.Remaining)
}

const (
	otpTTL         = 5 * time.Minute
	resendCooldown = 60 * time.Second
	maxAttempts    = 5
)

type Service struct {
	tokens   TokenRepository
	users    UserRepository
	cooldown Cooldown
	senders  notify.Senders
	jwt      *TokenIssuer
}

func NewService(tokens TokenRepository, users UserRepository, cooldown Cooldown, senders notify.Senders, jwt *TokenIssuer) *Service {
	return &Service{tokens: tokens, users: users, cooldown: cooldown, senders: senders, jwt: jwt}
}

// SendOTP issues a 6-digit code for identifier and dispatches it over the
// requested channel. A fresh code replaces any previous one for the same
// (identifier, purpose).
func (s *Service) SendOTP(ctx context.Context, identifier string, channel domain.Channel, purpose domain.Purpose) error {
	if identifier == "" {
		return errors.New("identifier required")
	}
	if !domain.ValidChannel(channel) {
		return fmt.Errorf("unknown channel %q", channel)
	}
	if !domain.ValidPurpose(purpose) {
		return fmt.Errorf("unknown purpose %q", purpose)
	}

	key := fmt.Sprintf("otp:cooldown:%s:%s", identifier, purpose)
	ok, err := s.cooldown.Acquire(ctx, key, resendCooldown)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCooldown
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	token := domain.VerificationToken{
		ID:         uuid.NewString(),
		Identifier: identifier,
		Channel:    channel,
		Purpose:    purpose,
		CodeHash:   string(hash),
		ExpiresAt:  now.Add(otpTTL),
		CreatedAt:  now,
	}
	if err := s.tokens.Upsert(ctx, token); err != nil {
		return err
	}

	return s.dispatch(ctx, identifier, channel, code)
}

func (s *Service) dispatch(ctx context.Context, identifier string, channel domain.Channel, code string) error {
	switch channel {
	case domain.ChannelEmail:
		subject := "Your verification code"
		body := fmt.Sprintf("<p>Your verification code is <strong>%s</strong>. It expires in 5 minutes.</p>", code)
		return s.senders.Email.SendEmail(ctx, identifier, subject, body)
	case domain.ChannelSMS:
		return s.senders.SMS.SendSMS(ctx, identifier, fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code))
	case domain.ChannelWhatsApp:
		return s.senders.WhatsApp.SendWhatsApp(ctx, identifier, code)
	}
	return fmt.Errorf("unknown channel %q", channel)
}

// VerifyOTP checks code against the newest token for identifier, restricted
// to the given purposes when any are named. Expired and exhausted tokens
// never validate; only a successful match consumes the token, so a code
// submitted to the wrong flow stays usable in the right one.
func (s *Service) VerifyOTP(ctx context.Context, identifier, code string, purposes ...domain.Purpose) (domain.VerificationToken, error) {
	token, err := s.tokens.Latest(ctx, identifier, purposes...)
	if err != nil {
		return domain.VerificationToken{}, ErrTokenNotFound
	}
	if token.Consumed() {
		return domain.VerificationToken{}, ErrTokenConsumed
	}
	if token.Expired(time.Now().UTC()) {
		return domain.VerificationToken{}, ErrTokenExpired
	}
	if token.Attempts >= maxAttempts {
		return domain.VerificationToken{}, ErrAttemptsExceeded
	}

	if bcrypt.CompareHashAndPassword([]byte(token.CodeHash), []byte(code)) != nil {
		attempts, err := s.tokens.IncrementAttempts(ctx, token.ID)
		if err != nil {
			return domain.VerificationToken{}, err
		}
		if attempts >= maxAttempts {
			return domain.VerificationToken{}, ErrAttemptsExceeded
		}
		return domain.VerificationToken{}, &InvalidCodeError{Remaining: maxAttempts - attempts}
	}

	if err := s.tokens.MarkConsumed(ctx, token.ID, time.Now().UTC()); err != nil {
		return domain.VerificationToken{}, err
	}
	return token, nil
}

// CompleteOTPLogin verifies the code, then finds or creates the user and
// issues a session token.
func (s *Service) CompleteOTPLogin(ctx context.Context, identifier, code string) (domain.User, string, error) {
	token, err := s.VerifyOTP(ctx, identifier, code, domain.PurposeSignup, domain.PurposeLogin)
	if err != nil {
		return domain.User{}, "", err
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		user = newUser(identifier, token.Channel)
		if err := s.users.Create(ctx, user); err != nil {
			return domain.User{}, "", err
		}
	}
	if err := s.users.MarkVerified(ctx, user.ID, token.Channel); err != nil {
		return domain.User{}, "", err
	}

	jwt, err := s.jwt.Issue(user)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, jwt, nil
}

// Login is the password path for existing accounts.
func (s *Service) Login(ctx context.Context, identifier, password string) (domain.User, string, error) {
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		return domain.User{}, "", ErrBadCredentials
	}
	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return domain.User{}, "", ErrBadCredentials
	}
	jwt, err := s.jwt.Issue(user)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, jwt, nil
}

// ResetPassword sets a new password after an OTP issued for RESET_PASSWORD
// has been verified. Codes issued for other purposes are invisible to this
// flow, so submitting one here neither works nor consumes it.
func (s *Service) ResetPassword(ctx context.Context, identifier, code, newPassword string) error {
	if _, err := s.VerifyOTP(ctx, identifier, code, domain.PurposeResetPassword); err != nil {
		return err
	}
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		return ErrUserNotFound
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, user.ID, string(hash))
}

func newUser(identifier string, channel domain.Channel) domain.User {
	now := time.Now().UTC()
	u := domain.User{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if channel == domain.ChannelEmail {
		u.Email = identifier
	} else {
		u.Phone = identifier
	}
	return u
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
