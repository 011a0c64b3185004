// Package middleware exposes the HTTP adapters for the two-stage
// authorization gate built on top of authority.Engine.
//
// # Guards
//
//   - [Authenticate] — bearer-token verification, identity injection.
//   - [RequireRole] — role membership check on the injected identity.
//
// Authenticate reads the Authorization header, calls Engine.Authenticate,
// and injects the resulting identity into the request context. RequireRole
// must be mounted after Authenticate; authentication always precedes
// authorization.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication or authorization logic itself — all decisions
// are delegated to the Engine.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Access the ledger or revocation list (Engine handles I/O).
//   - Make gate decisions beyond pass/reject from the Engine.
package middleware
