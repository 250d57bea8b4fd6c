package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"realtime-ws/internal/domain"
)

// ErrInvalidToken is returned for any credential that does not verify:
// bad signature, wrong algorithm, expired, or missing subject.
var ErrInvalidToken = errors.New("invalid token")

// Claims defines the structure of the data stored inside the JWT.
// The subject carries the user id; rctx is the role-context the session
// operates under (e.g. a company membership); did is an optional device id.
type Claims struct {
	RoleContextID string `json:"rctx"`
	DeviceID      string `json:"did,omitempty"`
	jwt.RegisteredClaims
}

// Verifier turns a presented credential into an authenticated identity.
type Verifier interface {
	Verify(tokenString string) (domain.Identity, error)
}

// HS256Verifier validates HMAC-SHA256 signed tokens issued by the auth tier.
type HS256Verifier struct {
	secret []byte
}

func NewHS256Verifier(secret string) *HS256Verifier {
	return &HS256Verifier{secret: []byte(secret)}
}

// Verify parses and validates the signature and expiration of a JWT string
// and binds its claims to an Identity.
func (v *HS256Verifier) Verify(tokenString string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		return domain.Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return domain.Identity{}, ErrInvalidToken
	}

	return domain.Identity{
		UserID:        claims.Subject,
		RoleContextID: claims.RoleContextID,
		DeviceID:      claims.DeviceID,
	}, nil
}

// GenerateToken creates a signed JWT for a user. Used by tests and by the
// local development tooling; production tokens come from the auth tier.
func GenerateToken(secret string, identity domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RoleContextID: identity.RoleContextID,
		DeviceID:      identity.DeviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "realtime-ws",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
