package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	authority "github.com/halcyonlabs/authority"
)

// uniqueViolation is the PostgreSQL error code raised when the email
// unique constraint rejects an insert.
const uniqueViolation = "23505"

// Postgres is a CredentialStore backed by a pgx connection pool.
//
// Expected schema:
//
//	CREATE TABLE users (
//	    id          UUID PRIMARY KEY,
//	    name        TEXT NOT NULL,
//	    email       TEXT NOT NULL UNIQUE,
//	    secret_hash TEXT NOT NULL,
//	    role        TEXT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing pool. The caller owns the pool's
// lifecycle.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Create inserts a record with a fresh v7 UUID. Email uniqueness is
// enforced by the database constraint, so concurrent inserts of the same
// email cannot both succeed.
func (p *Postgres) Create(ctx context.Context, input authority.CreateUserInput) (authority.UserRecord, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return authority.UserRecord{}, fmt.Errorf("generate user id: %w", err)
	}

	var user authority.UserRecord
	err = p.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, secret_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, email, secret_hash, role, created_at
	`, id.String(), input.Name, input.Email, input.SecretHash, input.Role).
		Scan(&user.ID, &user.Name, &user.Email, &user.SecretHash, &user.Role, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return authority.UserRecord{}, authority.ErrDuplicateEmail
		}
		return authority.UserRecord{}, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

func (p *Postgres) GetByEmail(ctx context.Context, email string) (authority.UserRecord, error) {
	return p.get(ctx, `
		SELECT id, name, email, secret_hash, role, created_at
		FROM users
		WHERE email = $1
	`, email)
}

func (p *Postgres) GetByID(ctx context.Context, id string) (authority.UserRecord, error) {
	return p.get(ctx, `
		SELECT id, name, email, secret_hash, role, created_at
		FROM users
		WHERE id = $1
	`, id)
}

func (p *Postgres) get(ctx context.Context, query, arg string) (authority.UserRecord, error) {
	var user authority.UserRecord
	err := p.pool.QueryRow(ctx, query, arg).
		Scan(&user.ID, &user.Name, &user.Email, &user.SecretHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authority.UserRecord{}, authority.ErrUserNotFound
		}
		return authority.UserRecord{}, fmt.Errorf("query user: %w", err)
	}

	return user, nil
}
