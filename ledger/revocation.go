package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList records access tokens explicitly invalidated before
// their natural expiry. Keys:
//
//	<prefix>:bl:<sha256(token)> -> userID  (PX = remaining token lifetime)
type RevocationList struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRevocationList creates a [RevocationList] backed by the given Redis
// client under the same namespace prefix as the ledger.
func NewRevocationList(redis redis.UniversalClient, prefix string) *RevocationList {
	return &RevocationList{redis: redis, prefix: prefix}
}

func (l *RevocationList) key(hash string) string {
	return l.prefix + ":bl:" + hash
}

// Revoke records token as invalid until expiresAt. A token already past
// its expiry is not recorded; the codec rejects it on its own.
func (l *RevocationList) Revoke(ctx context.Context, token, userID string, expiresAt time.Time) error {
	remaining := time.Until(expiresAt)
	if remaining <= 0 {
		return nil
	}

	if err := l.redis.Set(ctx, l.key(HashToken(token)), userID, remaining).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether token was explicitly invalidated.
func (l *RevocationList) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := l.redis.Exists(ctx, l.key(HashToken(token))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}
