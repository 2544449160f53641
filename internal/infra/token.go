// README: JWT issuing and verification; the auth middleware consumes TokenVerifier.
package infra

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// AuthToken holds the verified identity used by downstream middleware.
// The core trusts uid and role as already-verified input.
type AuthToken struct {
	UID  string
	Role string
}

// TokenVerifier verifies a raw bearer token string and returns the identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*AuthToken, error)
}

var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	UID  string `json:"uid"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies HS256 tokens with a shared secret.
type JWTManager struct {
	secret []byte
}

func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{secret: []byte(secret)}
}

// Issue signs a token for the given user. Refresh flows are out of scope;
// tokens are issued once at registration.
func (m *JWTManager) Issue(uid, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := &claims{
		UID:  uid,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
}

func (m *JWTManager) Verify(_ context.Context, token string) (*AuthToken, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.UID == "" {
		return nil, ErrInvalidToken
	}
	return &AuthToken{UID: c.UID, Role: c.Role}, nil
}
