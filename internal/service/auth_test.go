package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/memory"
	"github.com/duncun-ubuntu/financial-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuth(store *memory.Store) *service.AuthService {
	return service.NewAuthService(store, "test-secret", time.Hour, 24*time.Hour, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	store := memory.New()
	auth := newAuth(store)
	ctx := context.Background()

	reg, err := auth.Register(ctx, &domain.RegisterRequest{Username: "admin", Password: "admin123", Email: "a@b.co"})
	require.NoError(t, err)
	assert.NotZero(t, reg.UserID)

	profile, err := store.GetProfile(ctx, reg.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultLanguage, profile.Language)
	assert.Equal(t, "a@b.co", profile.Email)

	login, err := auth.Login(ctx, &domain.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, 3600, login.ExpiresIn)

	claims, err := auth.ValidateAccessToken(login.AccessToken)
	require.NoError(t, err)
	ownerID, err := claims.OwnerID()
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, ownerID)
	assert.Equal(t, "admin", claims.Username)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	auth := newAuth(memory.New())
	ctx := context.Background()

	_, err := auth.Register(ctx, &domain.RegisterRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	_, err = auth.Register(ctx, &domain.RegisterRequest{Username: "admin", Password: "other123"})
	var conflict *domain.ErrConflict
	assert.ErrorAs(t, err, &conflict)
}

func TestLogin_WrongPassword(t *testing.T) {
	auth := newAuth(memory.New())
	ctx := context.Background()
	_, err := auth.Register(ctx, &domain.RegisterRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	_, err = auth.Login(ctx, &domain.LoginRequest{Username: "admin", Password: "nope"})
	var unauthorized *domain.ErrUnauthorized
	assert.ErrorAs(t, err, &unauthorized)

	_, err = auth.Login(ctx, &domain.LoginRequest{Username: "ghost", Password: "admin123"})
	assert.ErrorAs(t, err, &unauthorized)
}

func TestRefresh_RotatesToken(t *testing.T) {
	auth := newAuth(memory.New())
	ctx := context.Background()
	_, err := auth.Register(ctx, &domain.RegisterRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	login, err := auth.Login(ctx, &domain.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	refreshed, err := auth.Refresh(ctx, &domain.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	_, err = auth.Refresh(ctx, &domain.RefreshRequest{RefreshToken: login.RefreshToken})
	var unauthorized *domain.ErrUnauthorized
	assert.ErrorAs(t, err, &unauthorized)
}

func TestLogout_RevokesRefreshTokens(t *testing.T) {
	auth := newAuth(memory.New())
	ctx := context.Background()
	reg, err := auth.Register(ctx, &domain.RegisterRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	login, err := auth.Login(ctx, &domain.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, reg.UserID))

	_, err = auth.Refresh(ctx, &domain.RefreshRequest{RefreshToken: login.RefreshToken})
	var unauthorized *domain.ErrUnauthorized
	assert.ErrorAs(t, err, &unauthorized)
}

func TestChangePassword(t *testing.T) {
	auth := newAuth(memory.New())
	ctx := context.Background()
	reg, err := auth.Register(ctx, &domain.RegisterRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	login, err := auth.Login(ctx, &domain.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	var unauthorized *domain.ErrUnauthorized
	err = auth.ChangePassword(ctx, reg.UserID, &domain.ChangePasswordRequest{CurrentPassword: "wrong123", NewPassword: "newpass1"})
	require.ErrorAs(t, err, &unauthorized)

	var validation *domain.ErrValidation
	err = auth.ChangePassword(ctx, reg.UserID, &domain.ChangePasswordRequest{CurrentPassword: "admin123", NewPassword: "admin123"})
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "new_password", validation.Field)

	require.NoError(t, auth.ChangePassword(ctx, reg.UserID, &domain.ChangePasswordRequest{CurrentPassword: "admin123", NewPassword: "newpass1"}))

	_, err = auth.Login(ctx, &domain.LoginRequest{Username: "admin", Password: "admin123"})
	assert.ErrorAs(t, err, &unauthorized)
	_, err = auth.Login(ctx, &domain.LoginRequest{Username: "admin", Password: "newpass1"})
	assert.NoError(t, err)

	// Sessions opened with the old password cannot refresh.
	_, err = auth.Refresh(ctx, &domain.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorAs(t, err, &unauthorized)
}

func TestValidateAccessToken_Rejects(t *testing.T) {
	auth := newAuth(memory.New())
	other := service.NewAuthService(memory.New(), "other-secret", time.Hour, time.Hour, zap.NewNop())
	ctx := context.Background()

	_, err := other.Register(ctx, &domain.RegisterRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	login, err := other.Login(ctx, &domain.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-jwt",
		"wrong secret": login.AccessToken,
		"refresh":      login.RefreshToken,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ValidateAccessToken(token)
			var unauthorized *domain.ErrUnauthorized
			assert.ErrorAs(t, err, &unauthorized)
		})
	}
}
