// Package credstore provides authority.CredentialStore implementations:
// an in-memory store for tests and examples, and a PostgreSQL store
// backed by pgx for production deployments.
//
// Both implementations enforce email uniqueness atomically inside Create
// and surface the package-level sentinels authority.ErrDuplicateEmail and
// authority.ErrUserNotFound so callers never depend on driver errors.
package credstore
