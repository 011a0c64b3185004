// Package ledger provides the Redis-backed persistence for the token
// lifecycle: the refresh-token ledger and the access-token revocation
// list.
//
// # Ledger
//
// The [Store] holds the set of currently valid, unconsumed refresh
// tokens. Tokens are keyed by their SHA-256 hash (the raw string is
// never stored) with a per-user index set for bulk deletion. Rotation
// uses a single Lua script so that concurrent rotations of the same
// token have exactly one winner — this is the reuse-detection guarantee.
//
// # Revocation list
//
// The [RevocationList] records access tokens invalidated before their
// natural expiry. Entries carry a Redis TTL equal to the token's
// remaining lifetime, so they prune themselves once recording them no
// longer matters.
//
// # Architecture boundaries
//
// This package owns Redis operations and key layout only. It does NOT
// interpret token contents or decide lifecycle policy — those belong to
// the Engine, which is the sole writer of both structures.
//
// # What this package must NOT do
//
//   - Import authority or token (no upward imports).
//   - Store raw token strings in Redis.
//   - Make authentication decisions.
package ledger
