package authority

import (
	"errors"
	"time"
)

// Config is the process-wide engine configuration. It is loaded once at
// startup, validated during [Builder.Build], and immutable thereafter.
// In particular the token secrets are never rotated at runtime: rotation
// would invalidate every outstanding token, which is the documented
// trade-off of a restart, not a supported operation.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Ledger   LedgerConfig
	Account  AccountConfig
}

// TokenConfig carries the signing secrets and the single TTL pair used by
// both login issuance and rotation.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// PasswordConfig carries the Argon2id parameters.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// LedgerConfig controls the Redis key namespace shared by the refresh
// ledger and the revocation list.
type LedgerConfig struct {
	RedisPrefix string
}

// AccountConfig controls registration defaults.
type AccountConfig struct {
	DefaultRole string
}

// DefaultConfig returns a configuration with production-shaped TTLs and
// hashing costs. Callers must still supply both token secrets.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Ledger: LedgerConfig{
			RedisPrefix: "auth",
		},
		Account: AccountConfig{
			DefaultRole: RoleMember,
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if len(c.Token.AccessSecret) == 0 || len(c.Token.RefreshSecret) == 0 {
		return errors.New("both token secrets are required")
	}
	if string(c.Token.AccessSecret) == string(c.Token.RefreshSecret) {
		return errors.New("access and refresh secrets must differ")
	}
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("refresh TTL must not be shorter than access TTL")
	}
	if c.Ledger.RedisPrefix == "" {
		return errors.New("ledger redis prefix required")
	}
	if c.Account.DefaultRole == "" {
		return errors.New("account default role required")
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.AccessSecret = cloneBytes(cfg.Token.AccessSecret)
	out.Token.RefreshSecret = cloneBytes(cfg.Token.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
