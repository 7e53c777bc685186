package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinKeyLength is the minimum accepted HMAC signing key length in bytes.
const MinKeyLength = 32

// DefaultAlgorithm is the signing algorithm used when none is configured.
const DefaultAlgorithm = "HS256"

// Clock returns the current time. It is injectable for testing.
type Clock func() time.Time

// SystemClock is wall-clock time in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// CodecConfig configures a TokenCodec.
type CodecConfig struct {
	// Key is the process-wide HMAC secret shared by every verifying instance.
	Key []byte

	// Algorithm is one of HS256, HS384, HS512.
	// Default: HS256
	Algorithm string

	// Clock supplies the current time.
	// Default: SystemClock
	Clock Clock
}

// tokenClaims is the JWT payload: registered claims plus the joined
// authority list under "auth".
type tokenClaims struct {
	Authorities string `json:"auth"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies signed bearer tokens.
//
// Contract:
// - Concurrency: safe for concurrent use; it holds no mutable state.
// - Blocking: Issue and Verify are pure in-memory computations.
// - Errors: Verify returns exactly one of ErrMalformedToken, ErrBadSignature
//   or ErrExpired on rejection.
type TokenCodec struct {
	key    []byte
	method *jwt.SigningMethodHMAC
	clock  Clock
	parser *jwt.Parser
}

// NewTokenCodec creates a codec. A missing or short key is a configuration
// error and the process must not start with it.
func NewTokenCodec(cfg CodecConfig) (*TokenCodec, error) {
	if len(cfg.Key) == 0 {
		return nil, ErrMissingSigningKey
	}
	if len(cfg.Key) < MinKeyLength {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrWeakSigningKey, len(cfg.Key), MinKeyLength)
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = DefaultAlgorithm
	}
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("auth: unsupported signing algorithm %q", cfg.Algorithm)
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}

	key := make([]byte, len(cfg.Key))
	copy(key, cfg.Key)

	return &TokenCodec{
		key:    key,
		method: method,
		clock:  cfg.Clock,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{method.Alg()}),
			jwt.WithTimeFunc(cfg.Clock),
			jwt.WithExpirationRequired(),
			jwt.WithStrictDecoding(),
		),
	}, nil
}

// Algorithm returns the JWT alg this codec signs with.
func (c *TokenCodec) Algorithm() string {
	return c.method.Alg()
}

// Issue signs id into a token valid for ttl from now. The expiry is rounded
// up to the next whole second because JWT timestamps have second precision.
func (c *TokenCodec) Issue(id Identity, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("%w: ttl must be positive", ErrInvalidIdentity)
	}
	if err := id.validate(); err != nil {
		return "", err
	}

	now := c.clock()
	exp := now.Add(ttl)
	if whole := exp.Truncate(time.Second); whole.Before(exp) {
		exp = whole.Add(time.Second)
	}

	claims := tokenClaims{
		Authorities: joinAuthorities(id.Authorities),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Principal,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses token, checks its signature against the codec key and its
// expiry against the codec clock, and returns the encoded identity.
func (c *TokenCodec) Verify(token string) (*Identity, error) {
	parts := strings.SplitN(token, ".", 3)
	if len(parts) != 3 {
		return nil, ErrMalformedToken
	}

	// Header and claims must decode on their own before the signature is
	// considered; anything failing after this point is a signature problem.
	unsigned := parts[0] + "." + parts[1] + "."
	if _, _, err := c.parser.ParseUnverified(unsigned, &tokenClaims{}); err != nil {
		if errors.Is(err, jwt.ErrTokenUnverifiable) {
			return nil, ErrBadSignature
		}
		return nil, ErrMalformedToken
	}
	if parts[2] == "" || strings.Contains(parts[2], ".") {
		return nil, ErrBadSignature
	}

	claims := &tokenClaims{}
	_, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	if claims.Subject == "" {
		return nil, ErrMalformedToken
	}

	return &Identity{
		Principal:   claims.Subject,
		Authorities: splitAuthorities(claims.Authorities),
	}, nil
}

// SelfTest round-trips a probe identity through the codec.
func (c *TokenCodec) SelfTest() error {
	probe := NewIdentity("selftest", "ROLE_PROBE")
	token, err := c.Issue(probe, time.Minute)
	if err != nil {
		return err
	}
	got, err := c.Verify(token)
	if err != nil {
		return err
	}
	if !got.Equal(&probe) {
		return errors.New("auth: self-test identity mismatch")
	}
	return nil
}

// classifyParseError maps a golang-jwt error for a structurally valid token
// onto the codec's error taxonomy. Signature checks run before claim checks,
// so a tampered token never reports ErrExpired.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenMalformed):
		return ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformedToken
	}
}
