// Package jwt issues and verifies short-lived access tokens.
//
// Tokens are HS256-signed JWTs carrying the account id as subject, a
// "type" discriminator, and integer iat/exp claims. Validity is decided
// entirely by signature and expiry; there is no storage lookup.
package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrTokenMalformed   = errors.New("token malformed")
	ErrNoSubject        = errors.New("token has no subject")
	ErrWrongTokenType   = errors.New("wrong token type")
)

const TypeAccess = "access"

// Claims is the strict payload shape. Absence of a required field is a
// verification failure, not a lookup miss.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"type"`
}

// Payload is the decoded result handed to callers.
type Payload struct {
	UserID    int64
	TokenType string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// TTL reports the configured access token lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

func (m *Manager) Issue(userID int64) (string, error) {
	const op = "jwt.Issue"

	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		TokenType: TypeAccess,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Verify checks signature and expiry and returns the decoded payload.
// Only HS256 is accepted; tokens signed with any other method fail.
func (m *Manager) Verify(tokenString string) (Payload, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Payload{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Payload{}, ErrSignatureInvalid
		default:
			return Payload{}, ErrTokenMalformed
		}
	}
	if !parsed.Valid {
		return Payload{}, ErrSignatureInvalid
	}

	if claims.TokenType != TypeAccess {
		return Payload{}, ErrWrongTokenType
	}

	if claims.Subject == "" {
		return Payload{}, ErrNoSubject
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Payload{}, ErrNoSubject
	}

	p := Payload{
		UserID:    userID,
		TokenType: claims.TokenType,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}

	return p, nil
}
