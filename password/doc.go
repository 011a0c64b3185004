// Package password implements one-way secret hashing and verification
// with Argon2id and a per-record random salt.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Field validation
// (which inputs are required at registration) is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve secrets — callers supply plaintext and receive hashes.
//   - Import any other authority package.
//   - Log plaintext secrets or hash parameters at runtime.
package password
