package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chronoshop/storefront/internal/auth/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE,
			phone TEXT UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'USER',
			email_verified BOOLEAN NOT NULL DEFAULT FALSE,
			phone_verified BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS verification_tokens (
			id TEXT PRIMARY KEY,
			identifier TEXT NOT NULL,
			channel TEXT NOT NULL,
			purpose TEXT NOT NULL,
			code_hash TEXT NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			attempts INT NOT NULL DEFAULT 0,
			consumed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (identifier, purpose)
		);
	`)
	return err
}

func (r *Repository) Upsert(ctx context.Context, t domain.VerificationToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO verification_tokens (id, identifier, channel, purpose, code_hash, expires_at, attempts, consumed_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,0,NULL,$7)
		ON CONFLICT (identifier, purpose) DO UPDATE
		SET id=$1, channel=$3, code_hash=$5, expires_at=$6, attempts=0, consumed_at=NULL, created_at=$7`,
		t.ID, t.Identifier, t.Channel, t.Purpose, t.CodeHash, t.ExpiresAt, t.CreatedAt)
	return err
}

func (r *Repository) Latest(ctx context.Context, identifier string, purposes ...domain.Purpose) (domain.VerificationToken, error) {
	query := `
		SELECT id, identifier, channel, purpose, code_hash, expires_at, attempts, consumed_at, created_at
		FROM verification_tokens
		WHERE identifier=$1`
	args := []any{identifier}
	if len(purposes) > 0 {
		ps := make([]string, 0, len(purposes))
		for _, p := range purposes {
			ps = append(ps, string(p))
		}
		query += ` AND purpose = ANY($2)`
		args = append(args, ps)
	}
	query += `
		ORDER BY created_at DESC
		LIMIT 1`

	var t domain.VerificationToken
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&t.ID, &t.Identifier, &t.Channel, &t.Purpose, &t.CodeHash, &t.ExpiresAt, &t.Attempts, &t.ConsumedAt, &t.CreatedAt)
	if err != nil {
		return domain.VerificationToken{}, err
	}
	return t, nil
}

func (r *Repository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	var attempts int
	err := r.pool.QueryRow(ctx,
		`UPDATE verification_tokens SET attempts = attempts + 1 WHERE id=$1 RETURNING attempts`, id).
		Scan(&attempts)
	return attempts, err
}

func (r *Repository) MarkConsumed(ctx context.Context, id string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE verification_tokens SET consumed_at=$2 WHERE id=$1`, id, at)
	return err
}

func (r *Repository) FindByIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, COALESCE(email,''), COALESCE(phone,''), name, password_hash, role, email_verified, phone_verified, created_at, updated_at
		FROM users WHERE email=$1 OR phone=$1`, identifier).
		Scan(&u.ID, &u.Email, &u.Phone, &u.Name, &u.PasswordHash, &u.Role, &u.EmailVerified, &u.PhoneVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *Repository) Create(ctx context.Context, u domain.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, phone, name, password_hash, role, email_verified, phone_verified, created_at, updated_at)
		VALUES ($1, NULLIF($2,''), NULLIF($3,''), $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Email, u.Phone, u.Name, u.PasswordHash, u.Role, u.EmailVerified, u.PhoneVerified, u.CreatedAt, u.UpdatedAt)
	return err
}

func (r *Repository) MarkVerified(ctx context.Context, id string, channel domain.Channel) error {
	col := "phone_verified"
	if channel == domain.ChannelEmail {
		col = "email_verified"
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET `+col+`=TRUE, updated_at=$2 WHERE id=$1`, id, time.Now().UTC())
	return err
}

func (r *Repository) SetPassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash=$2, updated_at=$3 WHERE id=$1`, id, passwordHash, time.Now().UTC())
	return err
}
