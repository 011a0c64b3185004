package authority

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/halcyonlabs/authority/ledger"
	"github.com/halcyonlabs/authority/password"
	"github.com/halcyonlabs/authority/token"
)

// Engine is the token lifecycle engine. It orchestrates issuance,
// rotation, and revocation over the codec, the refresh-token ledger, and
// the revocation list, and makes the two authorization-gate decisions.
// The Engine is the sole writer of the ledger and the revocation list.
//
// Engine instances are built through [Builder.Build] and are safe for
// concurrent use afterwards.
type Engine struct {
	config  Config
	codec   *token.Codec
	hasher  *password.Hasher
	creds   CredentialStore
	ledger  *ledger.Store
	revoked *ledger.RevocationList
}

// Register creates a user record with an irreversibly hashed secret.
// It fails with [ErrMissingField] when name, email, or secret is absent,
// and with [ErrConflict] when the email (exact, case-sensitive match) is
// already registered. Role defaults to the configured default role.
func (e *Engine) Register(ctx context.Context, input RegisterInput) (string, error) {
	if e == nil || e.hasher == nil {
		return "", ErrEngineNotReady
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if input.Name == "" || input.Email == "" || input.Secret == "" {
		return "", ErrMissingField
	}

	role := input.Role
	if role == "" {
		role = e.config.Account.DefaultRole
	}

	hash, err := e.hasher.Hash(input.Secret)
	if err != nil {
		return "", ErrPasswordPolicy
	}

	user, err := e.creds.Create(ctx, CreateUserInput{
		Name:       input.Name,
		Email:      input.Email,
		SecretHash: hash,
		Role:       role,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return "", ErrConflict
		}
		return "", err
	}

	return user.ID, nil
}

// Login verifies the credentials and mints an access/refresh pair,
// persisting the refresh token in the ledger. Lookup and hash failures
// both surface as [ErrInvalidCredentials]; the caller can never tell
// which branch failed.
func (e *Engine) Login(ctx context.Context, email, secret string) (*LoginResult, error) {
	if e == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}

	email = strings.TrimSpace(email)
	if email == "" || secret == "" {
		return nil, ErrMissingField
	}

	user, err := e.creds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := e.hasher.Verify(secret, user.SecretHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	access, refresh, err := e.issuePair(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		UserID:       user.ID,
		Name:         user.Name,
		Email:        user.Email,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Refresh rotates a refresh token: the presented token is consumed
// exactly once and a new pair is issued. A token that is malformed,
// expired, never issued, or already consumed fails with
// [ErrRefreshInvalid] — a stolen-then-rotated token can never succeed
// twice, and of any number of concurrent rotations of the same token
// exactly one wins.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}
	if refreshToken == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := e.codec.Verify(refreshToken, token.PurposeRefresh)
	if err != nil {
		return nil, ErrRefreshInvalid
	}

	nextRefresh, err := e.codec.Issue(claims.Subject, token.PurposeRefresh, e.config.Token.RefreshTTL)
	if err != nil {
		return nil, err
	}

	owner, err := e.ledger.Replace(ctx, refreshToken, nextRefresh, e.config.Token.RefreshTTL)
	if err != nil {
		if errors.Is(err, ledger.ErrTokenNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}
	if owner != claims.Subject {
		// Ledger entry does not belong to the token subject. Treat the
		// whole lineage as compromised.
		if delErr := e.ledger.DeleteAllForUser(ctx, owner); delErr != nil {
			log.Print("authority: ledger cleanup after owner mismatch failed")
		}
		return nil, ErrRefreshInvalid
	}

	access, err := e.codec.Issue(claims.Subject, token.PurposeAccess, e.config.Token.AccessTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: nextRefresh}, nil
}

// Logout terminates all of the user's sessions: every ledger entry for
// userID is deleted, and the presenting access token is placed on the
// revocation list until its natural expiry so it cannot authenticate
// further calls.
func (e *Engine) Logout(ctx context.Context, userID, accessToken string) error {
	if e == nil || e.codec == nil {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrUnauthenticated
	}

	if err := e.ledger.DeleteAllForUser(ctx, userID); err != nil {
		return err
	}

	claims, err := e.codec.Verify(accessToken, token.PurposeAccess)
	if err != nil {
		// An already-expired token needs no revocation record; anything
		// else presented here never authenticated in the first place.
		if errors.Is(err, token.ErrExpired) {
			return nil
		}
		return ErrAccessInvalid
	}

	return e.revoked.Revoke(ctx, accessToken, userID, claims.ExpiresAt.Time)
}

// Authenticate is the first gate stage. It fails with
// [ErrUnauthenticated] when no token is presented, [ErrAccessInvalid]
// when the token is on the revocation list or does not verify, and
// [ErrAccessExpired] when it verified but is past its expiry. On success
// it returns the [Identity] to attach to the request.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (*Identity, error) {
	if e == nil || e.codec == nil {
		return nil, ErrEngineNotReady
	}
	if accessToken == "" {
		return nil, ErrUnauthenticated
	}

	revoked, err := e.revoked.IsRevoked(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrAccessInvalid
	}

	claims, err := e.codec.Verify(accessToken, token.PurposeAccess)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrAccessExpired
		}
		return nil, ErrAccessInvalid
	}

	return &Identity{
		UserID:    claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
		Token:     accessToken,
	}, nil
}

// Authorize is the second gate stage. An empty role set admits any
// authenticated subject. Otherwise the user record is loaded and the
// request fails with [ErrForbidden] when the record is missing or its
// role is not in the set. Authentication always precedes authorization;
// callers must pass an identity produced by [Engine.Authenticate].
func (e *Engine) Authorize(ctx context.Context, identity *Identity, roles ...string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if identity == nil || identity.UserID == "" {
		return ErrUnauthenticated
	}
	if len(roles) == 0 {
		return nil
	}

	user, err := e.creds.GetByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrForbidden
		}
		return err
	}

	for _, role := range roles {
		if user.Role == role {
			return nil
		}
	}

	return ErrForbidden
}

// CurrentUser loads the public fields of the user record for an
// authenticated subject.
func (e *Engine) CurrentUser(ctx context.Context, userID string) (UserRecord, error) {
	if e == nil {
		return UserRecord{}, ErrEngineNotReady
	}
	return e.creds.GetByID(ctx, userID)
}

// Ping reports ledger availability and round-trip latency.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil || e.ledger == nil {
		return 0, ErrEngineNotReady
	}
	return e.ledger.Ping(ctx)
}

func (e *Engine) issuePair(ctx context.Context, userID string) (access, refresh string, err error) {
	access, err = e.codec.Issue(userID, token.PurposeAccess, e.config.Token.AccessTTL)
	if err != nil {
		return "", "", err
	}

	refresh, err = e.codec.Issue(userID, token.PurposeRefresh, e.config.Token.RefreshTTL)
	if err != nil {
		return "", "", err
	}

	if err = e.ledger.Save(ctx, userID, refresh, e.config.Token.RefreshTTL); err != nil {
		return "", "", err
	}

	return access, refresh, nil
}
