package application

import (
	"context"
	"time"

	"github.com/chronoshop/storefront/internal/auth/domain"
)

type TokenRepository interface {
	// Upsert replaces any previous token for (identifier, purpose).
	Upsert(ctx context.Context, t domain.VerificationToken) error
	// Latest returns the newest token for identifier, restricted to the
	// given purposes when any are named.
	Latest(ctx context.Context, identifier string, purposes ...domain.Purpose) (domain.VerificationToken, error)
	IncrementAttempts(ctx context.Context, id string) (int, error)
	MarkConsumed(ctx context.Context, id string, at time.Time) error
}

type UserRepository interface {
	FindByIdentifier(ctx context.Context, identifier string) (domain.User, error)
	Create(ctx context.Context, u domain.User) error
	MarkVerified(ctx context.Context, id string, channel domain.Channel) error
	SetPassword(ctx context.Context, id, passwordHash string) error
}

// Cooldown gates OTP resends; Acquire reports false while a previous
// claim on the key is still live.
type Cooldown interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
