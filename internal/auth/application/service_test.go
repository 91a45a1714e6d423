package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/chronoshop/storefront/internal/auth/domain"
	"github.com/chronoshop/storefront/internal/notify"
)

type fakeTokens struct {
	byKey map[string]domain.VerificationToken // identifier|purpose
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{byKey: map[string]domain.VerificationToken{}}
}

func tokenKey(identifier string, purpose domain.Purpose) string {
	return identifier + "|" + string(purpose)
}

func (f *fakeTokens) Upsert(ctx context.Context, t domain.VerificationToken) error {
	f.byKey[tokenKey(t.Identifier, t.Purpose)] = t
	return nil
}

func (f *fakeTokens) Latest(ctx context.Context, identifier string, purposes ...domain.Purpose) (domain.VerificationToken, error) {
	var (
		found  bool
		newest domain.VerificationToken
	)
	for _, t := range f.byKey {
		if t.Identifier != identifier {
			continue
		}
		if len(purposes) > 0 {
			match := false
			for _, p := range purposes {
				if t.Purpose == p {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		if !found || t.CreatedAt.After(newest.CreatedAt) {
			found = true
			newest = t
		}
	}
	if !found {
		return domain.VerificationToken{}, errors.New("not found")
	}
	return newest, nil
}

func (f *fakeTokens) IncrementAttempts(ctx context.Context, id string) (int, error) {
	for k, t := range f.byKey {
		if t.ID == id {
			t.Attempts++
			f.byKey[k] = t
			return t.Attempts, nil
		}
	}
	return 0, errors.New("not found")
}

func (f *fakeTokens) MarkConsumed(ctx context.Context, id string, at time.Time) error {
	for k, t := range f.byKey {
		if t.ID == id {
			t.ConsumedAt = &at
			f.byKey[k] = t
			return nil
		}
	}
	return errors.New("not found")
}

type fakeUsers struct {
	byIdentifier map[string]domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byIdentifier: map[string]domain.User{}}
}

func (f *fakeUsers) FindByIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	u, ok := f.byIdentifier[identifier]
	if !ok {
		return domain.User{}, errors.New("not found")
	}
	return u, nil
}

func (f *fakeUsers) Create(ctx context.Context, u domain.User) error {
	if u.Email != "" {
		f.byIdentifier[u.Email] = u
	}
	if u.Phone != "" {
		f.byIdentifier[u.Phone] = u
	}
	return nil
}

func (f *fakeUsers) MarkVerified(ctx context.Context, id string, channel domain.Channel) error {
	return nil
}

func (f *fakeUsers) SetPassword(ctx context.Context, id, passwordHash string) error {
	for k, u := range f.byIdentifier {
		if u.ID == id {
			u.PasswordHash = passwordHash
			f.byIdentifier[k] = u
		}
	}
	return nil
}

type fakeCooldown struct {
	held map[string]bool
}

func (f *fakeCooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if f.held == nil {
		f.held = map[string]bool{}
	}
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

type captureSMS struct {
	last string
}

func (c *captureSMS) SendSMS(ctx context.Context, phone, message string) error {
	c.last = message
	return nil
}

func newTestService(tokens *fakeTokens, users *fakeUsers) (*Service, *captureSMS) {
	sms := &captureSMS{}
	senders := notify.Senders{
		Email:    noopEmail{},
		SMS:      sms,
		WhatsApp: noopWhatsApp{},
	}
	issuer := NewTokenIssuer("test-secret", time.Hour)
	return NewService(tokens, users, &fakeCooldown{}, senders, issuer), sms
}

type noopEmail struct{}

func (noopEmail) SendEmail(ctx context.Context, to, subject, htmlBody string) error { return nil }

type noopWhatsApp struct{}

func (noopWhatsApp) SendWhatsApp(ctx context.Context, phone, code string) error { return nil }

func seedToken(tokens *fakeTokens, identifier, code string, purpose domain.Purpose, expiresAt time.Time, attempts int) domain.VerificationToken {
	hash, _ := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	t := domain.VerificationToken{
		ID:         "tok-" + identifier + "-" + string(purpose),
		Identifier: identifier,
		Channel:    domain.ChannelSMS,
		Purpose:    purpose,
		CodeHash:   string(hash),
		ExpiresAt:  expiresAt,
		Attempts:   attempts,
		CreatedAt:  time.Now().UTC(),
	}
	tokens.byKey[tokenKey(identifier, purpose)] = t
	return t
}

func TestSendOTPEnforcesCooldown(t *testing.T) {
	tokens := newFakeTokens()
	svc, sms := newTestService(tokens, newFakeUsers())
	ctx := context.Background()

	if err := svc.SendOTP(ctx, "+919999999999", domain.ChannelSMS, domain.PurposeLogin); err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	if sms.last == "" {
		t.Fatal("expected sms dispatched")
	}
	if err := svc.SendOTP(ctx, "+919999999999", domain.ChannelSMS, domain.PurposeLogin); !errors.Is(err, ErrCooldown) {
		t.Fatalf("expected ErrCooldown on resend, got %v", err)
	}
}

func TestSendOTPRejectsBadEnums(t *testing.T) {
	svc, _ := newTestService(newFakeTokens(), newFakeUsers())
	ctx := context.Background()

	if err := svc.SendOTP(ctx, "a@b.com", domain.Channel("CARRIER_PIGEON"), domain.PurposeLogin); err == nil {
		t.Fatal("expected error for unknown channel")
	}
	if err := svc.SendOTP(ctx, "a@b.com", domain.ChannelEmail, domain.Purpose("NOPE")); err == nil {
		t.Fatal("expected error for unknown purpose")
	}
}

func TestVerifyOTPExpiredNotConsumed(t *testing.T) {
	tokens := newFakeTokens()
	svc, _ := newTestService(tokens, newFakeUsers())
	seedToken(tokens, "a@b.com", "123456", domain.PurposeLogin, time.Now().UTC().Add(-time.Minute), 0)

	_, err := svc.VerifyOTP(context.Background(), "a@b.com", "123456")
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if tokens.byKey[tokenKey("a@b.com", domain.PurposeLogin)].Consumed() {
		t.Fatal("expired token must not be marked consumed")
	}
}

func TestVerifyOTPWrongCodeCountsDown(t *testing.T) {
	tokens := newFakeTokens()
	svc, _ := newTestService(tokens, newFakeUsers())
	seedToken(tokens, "a@b.com", "123456", domain.PurposeLogin, time.Now().UTC().Add(time.Minute), 0)

	_, err := svc.VerifyOTP(context.Background(), "a@b.com", "000000")
	var invalid *InvalidCodeError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidCodeError, got %v", err)
	}
	if invalid.Remaining != maxAttempts-1 {
		t.Fatalf("remaining = %d, want %d", invalid.Remaining, maxAttempts-1)
	}
}

func TestVerifyOTPExhaustedRejectsCorrectCode(t *testing.T) {
	tokens := newFakeTokens()
	svc, _ := newTestService(tokens, newFakeUsers())
	seedToken(tokens, "a@b.com", "123456", domain.PurposeLogin, time.Now().UTC().Add(time.Minute), 0)
	ctx := context.Background()

	for i := 0; i < maxAttempts; i++ {
		_, _ = svc.VerifyOTP(ctx, "a@b.com", "000000")
	}
	if _, err := svc.VerifyOTP(ctx, "a@b.com", "123456"); !errors.Is(err, ErrAttemptsExceeded) {
		t.Fatalf("expected ErrAttemptsExceeded for correct code after exhaustion, got %v", err)
	}
}

func TestVerifyOTPSuccessConsumesOnce(t *testing.T) {
	tokens := newFakeTokens()
	svc, _ := newTestService(tokens, newFakeUsers())
	seedToken(tokens, "a@b.com", "123456", domain.PurposeLogin, time.Now().UTC().Add(time.Minute), 0)
	ctx := context.Background()

	token, err := svc.VerifyOTP(ctx, "a@b.com", "123456")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if token.Purpose != domain.PurposeLogin {
		t.Fatalf("purpose = %s", token.Purpose)
	}
	if _, err := svc.VerifyOTP(ctx, "a@b.com", "123456"); !errors.Is(err, ErrTokenConsumed) {
		t.Fatalf("expected ErrTokenConsumed on replay, got %v", err)
	}
}

func TestCompleteOTPLoginCreatesUserAndIssuesJWT(t *testing.T) {
	tokens := newFakeTokens()
	users := newFakeUsers()
	svc, _ := newTestService(tokens, users)
	seedToken(tokens, "+919999999999", "123456", domain.PurposeLogin, time.Now().UTC().Add(time.Minute), 0)

	user, jwt, err := svc.CompleteOTPLogin(context.Background(), "+919999999999", "123456")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.Phone != "+919999999999" || user.Role != domain.RoleUser {
		t.Fatalf("unexpected user %+v", user)
	}
	if jwt == "" {
		t.Fatal("expected a session token")
	}

	issuer := NewTokenIssuer("test-secret", time.Hour)
	claims, err := issuer.Parse(jwt)
	if err != nil {
		t.Fatalf("issued token did not parse: %v", err)
	}
	if claims.Subject != user.ID {
		t.Fatalf("claims subject = %s, want %s", claims.Subject, user.ID)
	}
}

func TestResetPasswordWrongPurposeLeavesLoginCodeUsable(t *testing.T) {
	tokens := newFakeTokens()
	users := newFakeUsers()
	svc, _ := newTestService(tokens, users)
	seedToken(tokens, "+919999999999", "123456", domain.PurposeLogin, time.Now().UTC().Add(time.Minute), 0)
	ctx := context.Background()

	if err := svc.ResetPassword(ctx, "+919999999999", "123456", "n3wpassword"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound for a login code, got %v", err)
	}
	if _, _, err := svc.CompleteOTPLogin(ctx, "+919999999999", "123456"); err != nil {
		t.Fatalf("login code unusable after failed reset attempt: %v", err)
	}
}

func TestVerifyOTPSelectsTokenByPurpose(t *testing.T) {
	tokens := newFakeTokens()
	users := newFakeUsers()
	users.byIdentifier["a@b.com"] = domain.User{ID: "u1", Email: "a@b.com", Role: domain.RoleUser}
	svc, _ := newTestService(tokens, users)
	ctx := context.Background()

	seedToken(tokens, "a@b.com", "111111", domain.PurposeLogin, time.Now().UTC().Add(time.Minute), 0)
	seedToken(tokens, "a@b.com", "222222", domain.PurposeResetPassword, time.Now().UTC().Add(time.Minute), 0)

	if err := svc.ResetPassword(ctx, "a@b.com", "222222", "n3wpassword"); err != nil {
		t.Fatalf("reset with its own code failed: %v", err)
	}
	if _, _, err := svc.CompleteOTPLogin(ctx, "a@b.com", "111111"); err != nil {
		t.Fatalf("login code unreachable while reset code active: %v", err)
	}
}

func TestLoginWithPassword(t *testing.T) {
	users := newFakeUsers()
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	users.byIdentifier["a@b.com"] = domain.User{ID: "u1", Email: "a@b.com", Role: domain.RoleUser, PasswordHash: string(hash)}
	svc, _ := newTestService(newFakeTokens(), users)
	ctx := context.Background()

	if _, _, err := svc.Login(ctx, "a@b.com", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
	if _, token, err := svc.Login(ctx, "a@b.com", "hunter2"); err != nil || token == "" {
		t.Fatalf("expected successful login, got token=%q err=%v", token, err)
	}
}
