package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadcapture/internal/database"
)

func testUser() *database.User {
	return &database.User{ID: uuid.New(), Email: "jane@example.com", Role: database.RoleAdmin}
}

func TestRoundTrip(t *testing.T) {
	u := testUser()

	token, err := GenerateJWT("secret", u, 24*time.Hour)
	require.NoError(t, err)

	claims, err := VerifyJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, database.RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestVerifyRejects(t *testing.T) {
	u := testUser()

	expired, err := GenerateJWT("secret", u, -time.Minute)
	require.NoError(t, err)
	_, err = VerifyJWT("secret", expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	valid, err := GenerateJWT("secret", u, time.Hour)
	require.NoError(t, err)
	_, err = VerifyJWT("other", valid)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = VerifyJWT("secret", "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UserID:           u.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = VerifyJWT("secret", hs512)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
