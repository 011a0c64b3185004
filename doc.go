// Package authority is a credential-and-session authority: it issues,
// verifies, rotates, and revokes the bearer tokens that authenticate API
// calls, and gates protected operations by role.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Token lifecycle
//
// Login mints a signed access/refresh pair and records the refresh token
// in a Redis-backed ledger. Access tokens are verified statelessly;
// refresh tokens are consumed exactly once — rotation atomically replaces
// the ledger entry, so a replayed refresh token is detected and rejected
// even while it still verifies cryptographically. Logout deletes every
// ledger entry for the user and places the presenting access token on a
// revocation list until its natural expiry.
//
// # Architecture boundaries
//
// authority is the public surface. It exposes [Engine], [Builder],
// [Config], the [CredentialStore] contract, and value types. Signing
// lives in token/, hashing in password/, Redis persistence in ledger/,
// and HTTP adaptation in middleware/ and httpapi/.
//
// # What this package must NOT do
//
//   - Expose Redis clients or key layout in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports authority (no import cycles).
//
// # Performance contract
//
// Authenticate is the hot path: one revocation-list read plus a purely
// cryptographic verification. Login, Refresh, and Logout are allowed one
// Redis round-trip each (Refresh's rotation is a single Lua execution).
package authority
