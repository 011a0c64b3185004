package authority

import (
	"context"
	"time"
)

// Built-in role names. The credential store may hold any role string;
// these are the ones the default configuration and examples use.
const (
	RoleMember    = "member"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// UserRecord is the full account record held by a [CredentialStore].
// Records are immutable after creation except Role, which this core never
// mutates.
type UserRecord struct {
	ID         string
	Name       string
	Email      string
	SecretHash string
	Role       string
	CreatedAt  time.Time
}

// CreateUserInput is the input for [CredentialStore.Create]. SecretHash
// is already hashed; plaintext secrets never reach the store.
type CreateUserInput struct {
	Name       string
	Email      string
	SecretHash string
	Role       string
}

// CredentialStore is the contract callers implement to integrate the
// engine with their user database. Email matching is case-sensitive and
// exact. Create must enforce email uniqueness atomically and return
// [ErrDuplicateEmail] on collision; lookups return [ErrUserNotFound]
// when the record is absent.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (UserRecord, error)
	GetByID(ctx context.Context, id string) (UserRecord, error)
	Create(ctx context.Context, input CreateUserInput) (UserRecord, error)
}

// RegisterInput is the input for [Engine.Register]. Role defaults to the
// configured default role when empty.
type RegisterInput struct {
	Name   string
	Email  string
	Secret string
	Role   string
}

// LoginResult is returned by [Engine.Login]: the public user fields plus
// a freshly minted access/refresh pair.
type LoginResult struct {
	UserID       string
	Name         string
	Email        string
	AccessToken  string
	RefreshToken string
}

// TokenPair is returned by [Engine.Refresh].
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Identity is the verified subject attached to a request after
// [Engine.Authenticate] succeeds.
type Identity struct {
	UserID    string
	ExpiresAt time.Time

	// Token is the raw access token the identity was derived from. Logout
	// needs it to revoke the presenting token.
	Token string
}
