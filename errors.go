package authority

import (
	"errors"

	"github.com/halcyonlabs/authority/ledger"
)

var (
	// ErrMissingField is returned when a required input field is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrConflict is returned when the email is already registered.
	ErrConflict = errors.New("email already registered")
	// ErrPasswordPolicy is returned when a secret fails the hashing policy.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrInvalidCredentials is returned for any failed login. The message is
	// uniform on purpose: it never reveals whether the email was unknown or
	// the secret mismatched.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when no token was presented.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrRefreshInvalid is returned for a refresh token that is malformed,
	// expired, never issued, or already consumed.
	ErrRefreshInvalid = errors.New("invalid or expired refresh token")
	// ErrAccessExpired is returned for an access token past its expiry.
	ErrAccessExpired = errors.New("access token expired")
	// ErrAccessInvalid is returned for an access token with a bad signature
	// or one explicitly revoked.
	ErrAccessInvalid = errors.New("access token invalid")
	// ErrForbidden is returned for an authenticated subject whose role is
	// not in the required set.
	ErrForbidden = errors.New("insufficient role")
	// ErrUserNotFound is returned when a user record is absent from the
	// credential store.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned by [CredentialStore.Create] when the
	// email is already taken.
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrEngineNotReady indicates the engine was not built through [Builder].
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Kind classifies an operation error so the boundary layer can map it to
// a response status through a fixed table.
type Kind string

const (
	// KindMissingField marks validation failures on required fields.
	KindMissingField Kind = "missing_field"
	// KindConflict marks duplicate-registration failures.
	KindConflict Kind = "conflict"
	// KindInvalidCredentials marks failed logins.
	KindInvalidCredentials Kind = "invalid_credentials"
	// KindUnauthenticated marks requests presenting no token.
	KindUnauthenticated Kind = "unauthenticated"
	// KindRefreshInvalid marks unusable refresh tokens (including reuse).
	KindRefreshInvalid Kind = "refresh_token_invalid"
	// KindAccessExpired marks naturally expired access tokens; clients may
	// attempt a refresh.
	KindAccessExpired Kind = "access_token_expired"
	// KindAccessInvalid marks bad-signature or revoked access tokens;
	// clients must re-login.
	KindAccessInvalid Kind = "access_token_invalid"
	// KindForbidden marks authenticated requests with insufficient role.
	KindForbidden Kind = "forbidden"
	// KindUserNotFound marks lookups of absent user records.
	KindUserNotFound Kind = "user_not_found"
	// KindStoreFailure marks underlying store I/O errors. Not client
	// recoverable; reported generically.
	KindStoreFailure Kind = "store_failure"
)

// KindOf classifies err into the error taxonomy. Unrecognized errors are
// treated as store failures so the boundary never leaks internals.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrMissingField), errors.Is(err, ErrPasswordPolicy):
		return KindMissingField
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicateEmail):
		return KindConflict
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrRefreshInvalid):
		return KindRefreshInvalid
	case errors.Is(err, ErrAccessExpired):
		return KindAccessExpired
	case errors.Is(err, ErrAccessInvalid):
		return KindAccessInvalid
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrUserNotFound):
		return KindUserNotFound
	case errors.Is(err, ledger.ErrRedisUnavailable):
		return KindStoreFailure
	default:
		return KindStoreFailure
	}
}
