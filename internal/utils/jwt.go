package utils // package utils provides helpers for session tokens and password hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload of a session token: the subject's email and
// the standard exp/iat claims.
type SessionClaims struct {
	Email string `json:"emailAdd"`
	jwt.RegisteredClaims
}

// SessionToken is a signed JWT together with the instants it was issued and
// expires.  The same value is written to the JSON body and to the cookie.
type SessionToken struct {
	Token    string
	IssuedAt time.Time
	Exp      time.Time
}

// ErrInvalidToken is returned for tokens that fail signature, algorithm or
// expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// NewSessionToken builds and signs an HS256 JWT asserting email, valid for
// ttl from now.  Times are truncated to whole seconds because that is the
// precision of the exp claim.
func NewSessionToken(secret, email string, ttl time.Duration) (SessionToken, error) {
	iat := time.Now().UTC().Truncate(time.Second)
	exp := iat.Add(ttl)
	claims := SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, IssuedAt: iat, Exp: exp}, nil
}

// ParseSessionToken verifies raw with secret and returns its claims.  Only
// HMAC-signed tokens carrying an exp claim are accepted.
func ParseSessionToken(secret, raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
