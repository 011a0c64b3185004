package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose tags a token with the single use it is valid for. Access and
// refresh tokens are signed with distinct secrets, so a token of one
// purpose can never be replayed as the other.
type Purpose string

const (
	// PurposeAccess marks short-lived tokens that authenticate API calls.
	PurposeAccess Purpose = "access"
	// PurposeRefresh marks longer-lived tokens exchanged for a new pair.
	PurposeRefresh Purpose = "refresh"
)

var (
	// ErrBadSignature is returned when the token signature does not verify
	// under the secret for the expected purpose.
	ErrBadSignature = errors.New("token signature invalid")
	// ErrExpired is returned when the token is past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrWrongPurpose is returned when the embedded purpose claim does not
	// match the purpose the caller expected.
	ErrWrongPurpose = errors.New("token purpose mismatch")
	// ErrMalformed is returned for tokens that cannot be parsed at all.
	ErrMalformed = errors.New("token malformed")
)

// Config holds the process-wide signing material and validation options.
// Secrets are loaded once at startup and never rotated at runtime;
// rotating them invalidates every outstanding token, which is the
// documented trade-off, not a bug.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	Leeway        time.Duration
}

// Claims is the verified claim set carried by a signed token.
type Claims struct {
	Subject string  `json:"sub"`
	Purpose Purpose `json:"pps"`
	jwt.RegisteredClaims
}

// Codec creates and verifies compact signed tokens carrying a subject id,
// a purpose tag, and an expiry. It is immutable after construction and
// safe for concurrent use.
type Codec struct {
	config Config
}

// NewCodec validates the signing configuration and returns a [Codec].
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 {
		return nil, errors.New("access secret required")
	}
	if len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("refresh secret required")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Codec{config: cfg}, nil
}

// Issue signs a token for subject with the given purpose and lifetime.
func (c *Codec) Issue(subject string, purpose Purpose, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("subject required")
	}
	if ttl <= 0 {
		return "", errors.New("invalid TTL")
	}

	secret, err := c.secretFor(purpose)
	if err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		Subject: subject,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    c.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify parses tokenStr under the secret for the expected purpose and
// returns the claim set. Failures map to the codec taxonomy:
// [ErrExpired] for a valid-but-expired token, [ErrWrongPurpose] when the
// embedded purpose claim differs from expected, [ErrBadSignature] for a
// signature that does not verify, and [ErrMalformed] otherwise.
func (c *Codec) Verify(tokenStr string, purpose Purpose) (*Claims, error) {
	secret, err := c.secretFor(purpose)
	if err != nil {
		return nil, err
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformed
		default:
			return nil, ErrBadSignature
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrBadSignature
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	if claims.Subject == "" {
		return nil, ErrMalformed
	}

	return claims, nil
}

func (c *Codec) secretFor(purpose Purpose) ([]byte, error) {
	switch purpose {
	case PurposeAccess:
		return c.config.AccessSecret, nil
	case PurposeRefresh:
		return c.config.RefreshSecret, nil
	default:
		return nil, fmt.Errorf("unsupported token purpose %q", purpose)
	}
}
