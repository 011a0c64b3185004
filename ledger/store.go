package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound is returned when a refresh token is absent from the
// ledger: never issued, already rotated, logged out, or expired.
var ErrTokenNotFound = errors.New("refresh token not in ledger")

// ErrRedisUnavailable wraps Redis I/O failures so callers can distinguish
// store outages from lifecycle outcomes.
var ErrRedisUnavailable = errors.New("redis unavailable")

const replaceTokenScript = `
local user = redis.call("GET", KEYS[1])
if not user then
  return {0}
end

local user_key = ARGV[3] .. user
redis.call("DEL", KEYS[1])
redis.call("SREM", user_key, ARGV[1])
redis.call("SET", KEYS[2], user, "PX", ARGV[4])
redis.call("SADD", user_key, ARGV[2])
redis.call("PEXPIRE", user_key, ARGV[4])

return {1, user}
`

var replaceTokenLua = redis.NewScript(replaceTokenScript)

// Store is the Redis-backed refresh-token ledger. Keys:
//
//	<prefix>:rt:<sha256(token)>  -> userID   (PX = refresh TTL)
//	<prefix>:ru:<userID>         -> set of token hashes
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a ledger [Store] backed by the given Redis client.
// prefix sets the Redis key namespace.
func NewStore(redis redis.UniversalClient, prefix string) *Store {
	return &Store{redis: redis, prefix: prefix}
}

func (s *Store) tokenKey(hash string) string {
	return s.prefix + ":rt:" + hash
}

func (s *Store) userKeyPrefix() string {
	return s.prefix + ":ru:"
}

func (s *Store) userKey(userID string) string {
	return s.userKeyPrefix() + userID
}

// HashToken returns the hex SHA-256 digest under which a token is keyed.
// Raw token strings never reach Redis.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Save records a freshly issued refresh token for userID with the given
// lifetime.
func (s *Store) Save(ctx context.Context, userID, token string, ttl time.Duration) error {
	hash := HashToken(token)
	userKey := s.userKey(userID)

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tokenKey(hash), userID, ttl)
		pipe.SAdd(ctx, userKey, hash)
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Replace atomically consumes oldToken and records newToken for the same
// user, returning the owning userID. The consume-and-insert runs as one
// Lua script: of any number of concurrent Replace calls presenting the
// same token, exactly one succeeds and the rest observe [ErrTokenNotFound].
func (s *Store) Replace(ctx context.Context, oldToken, newToken string, ttl time.Duration) (string, error) {
	oldHash := HashToken(oldToken)
	newHash := HashToken(newToken)

	result, err := replaceTokenLua.Run(
		ctx,
		s.redis,
		[]string{s.tokenKey(oldHash), s.tokenKey(newHash)},
		oldHash,
		newHash,
		s.userKeyPrefix(),
		ttl.Milliseconds(),
	).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return "", fmt.Errorf("%w: invalid replace script response", ErrRedisUnavailable)
	}

	code, ok := parts[0].(int64)
	if !ok {
		return "", fmt.Errorf("%w: invalid replace script status", ErrRedisUnavailable)
	}
	if code == 0 {
		return "", ErrTokenNotFound
	}
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: missing replace script payload", ErrRedisUnavailable)
	}

	switch v := parts[1].(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("%w: invalid replace script payload", ErrRedisUnavailable)
	}
}

// Owner returns the userID a token is recorded for, without consuming it.
func (s *Store) Owner(ctx context.Context, token string) (string, error) {
	userID, err := s.redis.Get(ctx, s.tokenKey(HashToken(token))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return userID, nil
}

// DeleteAllForUser removes every ledger entry for userID.
//
// ATOMICITY NOTE: this reads the user's index set (SMembers) and then
// deletes in a transaction pipeline. A token saved between the two phases
// may survive this call; it will expire naturally or be caught by the
// next DeleteAllForUser. This is the accepted logout/login race.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) error {
	userKey := s.userKey(userID)

	hashes, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	keys := make([]string, 0, len(hashes)+1)
	for _, hash := range hashes {
		keys = append(keys, s.tokenKey(hash))
	}
	keys = append(keys, userKey)

	if _, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		return nil
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// ActiveTokenCount returns the number of ledger entries tracked for a user.
func (s *Store) ActiveTokenCount(ctx context.Context, userID string) (int, error) {
	count, err := s.redis.SCard(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(count), nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
