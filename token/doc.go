// Package token creates and verifies compact signed tokens carrying a
// subject id, a purpose tag, and an expiry.
//
// # Purpose isolation
//
// Access and refresh tokens are signed with distinct secrets, and the
// purpose is additionally embedded as a claim and checked structurally on
// verification. Both layers must agree: a refresh token presented where an
// access token is expected fails even if an attacker learns one secret.
//
// # Architecture boundaries
//
// This package owns signing and verification only. Whether a verified
// token is still honored (ledger membership, revocation) is decided by
// the Engine.
//
// # What this package must NOT do
//
//   - Perform any I/O — verification is purely cryptographic.
//   - Import any other authority package.
package token
