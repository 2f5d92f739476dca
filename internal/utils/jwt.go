package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/records-service/internal/model"
)

// Verification failures.  Callers at the HTTP boundary collapse all three
// into a single generic rejection.
var (
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
)

// Identity is the subject a token is issued for.
type Identity struct {
	UserID uint64
	Email  string
	Role   model.Role
}

// Claims is the payload carried by both access and refresh tokens.  The
// registered claims provide sub, iat, exp and jti.
type Claims struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject.
func (c *Claims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// IssuedToken is a signed token along with its expiry.
type IssuedToken struct {
	Token   string    // the serialized JWT string
	Expires time.Time // the UTC expiration time
}

// TokenCodec signs and verifies HS256 tokens of one class.  The access and
// refresh classes each get their own codec with a distinct secret, so a token
// of one class never verifies under the other.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec builds a codec for the given secret and lifetime.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source.  Intended for tests.
func (tc *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	tc.now = now
	return tc
}

// TTL returns the lifetime applied to newly signed tokens.
func (tc *TokenCodec) TTL() time.Duration { return tc.ttl }

// Sign issues a token for id expiring ttl from now.  A random jti makes
// tokens issued within the same second for the same user distinct, which the
// refresh store relies on because it looks tokens up by hash.
func (tc *TokenCodec) Sign(id Identity) (IssuedToken, error) {
	now := tc.now().UTC()
	exp := now.Add(tc.ttl)
	claims := Claims{
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tc.secret)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Token: signed, Expires: exp}, nil
}

// Verify parses raw, checks the signature against this codec's secret and
// validates expiry.
func (tc *TokenCodec) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return tc.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tc.now),
	)
	switch {
	case err == nil && tok.Valid:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return nil, ErrTokenInvalidSignature
	default:
		return nil, ErrTokenMalformed
	}
	if _, err := claims.UserID(); err != nil || !claims.Role.Valid() {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// HashRefreshRaw returns the SHA‑256 hash of the raw refresh token as a hex
// string.  Only this digest is persisted.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
