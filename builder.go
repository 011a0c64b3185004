package authority

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/halcyonlabs/authority/ledger"
	"github.com/halcyonlabs/authority/password"
	"github.com/halcyonlabs/authority/token"
)

// Builder assembles an [Engine] from its injected dependencies. The three
// stores are explicit constructor inputs, never ambient globals.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	creds  CredentialStore

	built bool
}

// New returns a [Builder] seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the builder configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the ledger and revocation list.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore sets the user-record store.
func (b *Builder) WithCredentialStore(store CredentialStore) *Builder {
	b.creds = store
	return b
}

// Build validates the configuration and dependencies and constructs the
// [Engine]. A builder can be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.creds == nil {
		return nil, errors.New("credential store required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec, err := token.NewCodec(token.Config{
		AccessSecret:  cloneBytes(cfg.Token.AccessSecret),
		RefreshSecret: cloneBytes(cfg.Token.RefreshSecret),
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Params{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	b.built = true

	return &Engine{
		config:  cfg,
		codec:   codec,
		hasher:  hasher,
		creds:   b.creds,
		ledger:  ledger.NewStore(b.redis, cfg.Ledger.RedisPrefix),
		revoked: ledger.NewRevocationList(b.redis, cfg.Ledger.RedisPrefix),
	}, nil
}
