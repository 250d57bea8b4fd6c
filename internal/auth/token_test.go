package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"realtime-ws/internal/domain"
)

const testSecret = "test-secret"

func TestVerifyRoundTrip(t *testing.T) {
	identity := domain.Identity{
		UserID:        "user-1",
		RoleContextID: "company-7",
		DeviceID:      "laptop",
	}

	token, err := GenerateToken(testSecret, identity, time.Minute)
	require.NoError(t, err)

	got, err := NewHS256Verifier(testSecret).Verify(token)
	require.NoError(t, err)
	require.Equal(t, identity, got)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("other-secret", domain.Identity{UserID: "user-1"}, time.Minute)
	require.NoError(t, err)

	_, err = NewHS256Verifier(testSecret).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	token, err := GenerateToken(testSecret, domain.Identity{UserID: "user-1"}, -time.Minute)
	require.NoError(t, err)

	_, err = NewHS256Verifier(testSecret).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	claims := &Claims{RoleContextID: "company-7"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewHS256Verifier(testSecret).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := NewHS256Verifier(testSecret).Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
