// Package auth issues and verifies the HS256 bearer tokens that identify
// dashboard users to the API.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

// ServiceUserID is the identity assigned to callers presenting the static
// service key instead of a user token.
const ServiceUserID = "service"

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	UserID string
	Email  string
}

// Verifier parses and validates identity tokens.
type Verifier struct {
	secret    []byte
	staticKey string
}

// NewVerifier creates a Verifier for the given HMAC secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// SetStaticKey enables a static bearer key for service-to-service callers.
// Callers presenting it are identified as ServiceUserID.
func (v *Verifier) SetStaticKey(key string) {
	v.staticKey = key
}

// Verify parses the token string and returns the caller identity.
func (v *Verifier) Verify(tokenStr string) (Identity, error) {
	if tokenStr == "" {
		return Identity{}, ErrMissingToken
	}

	if v.staticKey != "" &&
		subtle.ConstantTimeCompare([]byte(tokenStr), []byte(v.staticKey)) == 1 {
		return Identity{UserID: ServiceUserID}, nil
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, ErrInvalidToken
	}
	email, _ := claims["email"].(string)

	return Identity{UserID: sub, Email: email}, nil
}

// Mint signs a token for the given identity. Used by the dev token command
// and by tests; production tokens come from the identity provider.
func (v *Verifier) Mint(id Identity, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   id.UserID,
		"email": id.Email,
		"jti":   uuid.NewString(),
		"exp":   time.Now().Add(ttl).Unix(),
	})

	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
