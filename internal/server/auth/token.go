// Package auth implements the signed verification token that carries a
// pending registration between the signup request and the emailed
// confirmation click. The token is the only place the registration exists;
// until it is verified, nothing is written to storage.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/verigate/verigate/internal/common"
)

// RegistrationClaims is the payload of a verification token: the candidate
// user's data plus the standard expiry claim.
//
// The password travels in plaintext inside the token. The token is signed,
// not encrypted, so anyone who decodes the payload recovers the password.
// This mirrors the upstream flow and is recorded as a known weakness; see
// DESIGN.md before changing it, since the emailed token must stay decodable
// back to the original registration data.
type RegistrationClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// SignRegistration mints an HS256 token embedding the registration data,
// valid for ttl from now.
func SignRegistration(email, name, password string, secretKey []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, RegistrationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		Email:    email,
		Name:     name,
		Password: password,
	})

	return token.SignedString(secretKey)
}

// ParseRegistration verifies the token signature and expiry and returns the
// embedded claims. Expired tokens yield common.ErrTokenExpired; any other
// verification failure (tampered, wrong secret, malformed, wrong algorithm)
// yields common.ErrTokenInvalid.
func ParseRegistration(tokenString string, secretKey []byte) (*RegistrationClaims, error) {
	claims := &RegistrationClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrTokenInvalid
	}

	if !token.Valid {
		return nil, common.ErrTokenInvalid
	}

	return claims, nil
}
