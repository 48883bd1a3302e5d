package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/talentwerk/workshop-planner/internal/models"
	"github.com/talentwerk/workshop-planner/pkg/config"
	appErrors "github.com/talentwerk/workshop-planner/pkg/errors"
)

func newAuthServiceFixture(t *testing.T) *AuthService {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	admin := config.AdminConfig{Username: "planner", PasswordHash: string(hash)}
	jwtCfg := config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "workshop-planner"}
	return NewAuthService(admin, jwtCfg, nil, nil)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	svc := newAuthServiceFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "planner", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "planner", claims.Username)
	assert.Equal(t, "workshop-planner", claims.Issuer)
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthServiceFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "planner", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "intruder", Password: "correct-horse"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginValidatesPayload(t *testing.T) {
	svc := newAuthServiceFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "planner"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthServiceFixture(t)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
