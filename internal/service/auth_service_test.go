package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitkpi/challenge-app/internal/domain"
)

const testSecret = "test-secret"

func newAuthFixture() (AuthService, *memUserRepo) {
	users := newMemUserRepo()
	return NewAuthService(users, testSecret, time.Hour), users
}

func TestRegisterCreatesPendingAthlete(t *testing.T) {
	svc, _ := newAuthFixture()

	user, err := svc.Register(context.Background(), "An Nguyen", "an@example.com", "password123", domain.GenderFemale)
	require.NoError(t, err)

	assert.Equal(t, domain.RoleAthlete, user.Role)
	assert.Equal(t, domain.StatusPending, user.Status)
	assert.Equal(t, domain.GenderFemale, user.Gender)
	assert.True(t, user.Notify)
	assert.Empty(t, user.PasswordHash, "hash must not leak out of the service")
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), "An", "an@example.com", "password123", domain.GenderMale)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "Binh", "an@example.com", "password456", domain.GenderMale)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegisterRequiresKnownGender(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), "An", "an@example.com", "password123", domain.Gender("other"))
	assert.Error(t, err)
}

func TestLoginReturnsSignedToken(t *testing.T) {
	svc, _ := newAuthFixture()
	_, err := svc.Register(context.Background(), "An", "an@example.com", "password123", domain.GenderMale)
	require.NoError(t, err)

	token, user, err := svc.Login(context.Background(), "an@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, domain.RoleAthlete, claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture()
	_, err := svc.Register(context.Background(), "An", "an@example.com", "password123", domain.GenderMale)
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "an@example.com", "nope")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = svc.Login(context.Background(), "unknown@example.com", "password123")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestApproveMovesAthleteOutOfPendingList(t *testing.T) {
	svc, _ := newAuthFixture()
	user, err := svc.Register(context.Background(), "An", "an@example.com", "password123", domain.GenderMale)
	require.NoError(t, err)

	pending, err := svc.PendingAthletes(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, svc.Approve(context.Background(), user.ID, domain.StatusApproved))

	pending, err = svc.PendingAthletes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestApproveRejectsPendingStatus(t *testing.T) {
	svc, _ := newAuthFixture()
	user, err := svc.Register(context.Background(), "An", "an@example.com", "password123", domain.GenderMale)
	require.NoError(t, err)

	assert.Error(t, svc.Approve(context.Background(), user.ID, domain.StatusPending))
}
