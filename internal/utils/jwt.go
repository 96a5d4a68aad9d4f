package utils // helper functions for token creation and verification

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer and Audience are embedded in every token and enforced on
// verification. A token signed with the right secret but minted for
// another service is rejected.
const (
	Issuer   = "smart-city-api"
	Audience = "smart-city-client"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the payload carried by both access and refresh tokens:
// the authenticated identity plus the registered claim set.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// SignedToken pairs a serialized JWT with its expiry.
type SignedToken struct {
	Token string
	Exp   time.Time
}

// NewSignedToken builds and signs an HS256 JWT embedding the user's
// identity. The same function mints access tokens (short TTL) and
// refresh tokens (long TTL); refresh tokens are additionally stored
// in the sessions table so they can be revoked server-side.
func NewSignedToken(secret, userID, email, role string, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			// Unique jti: two tokens minted for the same user within
			// the same second must still differ, or session rotation
			// could swap a token for an identical one.
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// VerifyToken parses and validates a signed token: HMAC signing
// method, signature, expiry, issuer and audience. Expired tokens are
// reported as ErrTokenExpired so callers can surface a distinct
// error class; every other failure maps to ErrInvalidToken.
func VerifyToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(Issuer), jwt.WithAudience(Audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
