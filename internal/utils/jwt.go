package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecret []byte
	jwtIssuer = "tripora"
)

// Claims carries the identity and role set of an authenticated subject.
type Claims struct {
	UserID   string   `json:"uid"`
	Username string   `json:"username"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// SetJWTSecret sets the symmetric signing key used for access tokens.
func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// SetJWTIssuer overrides the issuer claim embedded in minted tokens.
func SetJWTIssuer(issuer string) {
	if issuer != "" {
		jwtIssuer = issuer
	}
}

// GenerateToken mints a signed access token for the given subject.
// The token is valid from now until now + minutes.
func GenerateToken(userID, username, email string, roles []string, minutes int) (string, time.Time, error) {
	if len(jwtSecret) == 0 {
		return "", time.Time{}, errors.New("jwt secret not configured")
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(minutes) * time.Minute)
	claims := Claims{
		UserID:   userID,
		Username: username,
		Email:    email,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken validates a signed access token and returns its claims.
// Expired or tampered tokens are rejected here by the jwt library.
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
