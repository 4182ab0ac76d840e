package utils // package utils provides helper functions for token creation and hashing

import (
	"errors" // errors wraps and classifies verification failures
	"time"   // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Verification failures are collapsed to three kinds so that callers can
// decide how much detail to surface.  The HTTP middleware reports all of
// them identically; tests and logs can still tell them apart.
var (
	// ErrTokenMalformed means the string is not a parseable three-part JWT.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrTokenExpired means the signature checked out but the token is past
	// its embedded expiry.
	ErrTokenExpired = errors.New("expired token")
	// ErrTokenInvalid covers every other failure: bad signature, wrong
	// signing algorithm, missing subject.
	ErrTokenInvalid = errors.New("invalid token")
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the serialized JWT string and Exp the UTC
// expiration time.  Access tokens are presented in the Authorization
// header when calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the subject (the user's id) and a TTL.  The payload
// carries the standard claims: subject (sub), expiration (exp) and issued
// at (iat).  Validity is stateless; nothing is persisted server-side.
func NewAccessToken(secret, subject string, ttl time.Duration) (AccessToken, error) {
	exp := time.Now().UTC().Add(ttl)
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": exp.Unix(),
		"iat": time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// VerifySubject parses and validates a serialized token and returns the
// embedded subject unchanged.  Only HMAC-signed tokens are accepted; a
// token presented with any other algorithm fails as invalid.  Failures map
// to ErrTokenMalformed, ErrTokenExpired or ErrTokenInvalid.
func VerifySubject(secret, raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		default:
			return "", ErrTokenInvalid
		}
	}
	if !tok.Valid {
		return "", ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrTokenInvalid
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrTokenInvalid
	}
	return sub, nil
}
