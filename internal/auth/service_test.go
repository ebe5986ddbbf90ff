package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/dealdesk/internal/auth"
	"github.com/harper/dealdesk/internal/testutil"
)

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return auth.NewService(db, testutil.CreateTestJWTService())
}

func TestRegister(t *testing.T) {
	service := newAuthService(t)
	ctx := context.Background()

	resp, err := service.Register(ctx, auth.RegisterInput{
		Email:    "new@example.com",
		Password: "correct horse battery",
		Name:     "New User",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	// Sign-up alone buys nothing: no org, no active seat.
	assert.False(t, resp.User.IsActive)
	assert.Nil(t, resp.User.OrganizationID)
	assert.NotEqual(t, "correct horse battery", resp.User.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	service := newAuthService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, auth.RegisterInput{
		Email:    "dup@example.com",
		Password: "password-one",
		Name:     "First",
	})
	require.NoError(t, err)

	_, err = service.Register(ctx, auth.RegisterInput{
		Email:    "Dup@Example.com",
		Password: "password-two",
		Name:     "Second",
	})
	assert.ErrorIs(t, err, auth.ErrUserExists)
}

func TestLogin(t *testing.T) {
	service := newAuthService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, auth.RegisterInput{
		Email:    "login@example.com",
		Password: "swordfish123",
		Name:     "Login User",
	})
	require.NoError(t, err)

	t.Run("succeeds with correct credentials", func(t *testing.T) {
		resp, err := service.Login(ctx, auth.LoginInput{
			Email:    "login@example.com",
			Password: "swordfish123",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("email is case-insensitive", func(t *testing.T) {
		resp, err := service.Login(ctx, auth.LoginInput{
			Email:    "LOGIN@example.com",
			Password: "swordfish123",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		_, err := service.Login(ctx, auth.LoginInput{
			Email:    "login@example.com",
			Password: "wrong",
		})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("rejects unknown email", func(t *testing.T) {
		_, err := service.Login(ctx, auth.LoginInput{
			Email:    "ghost@example.com",
			Password: "whatever",
		})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("inactive users may log in", func(t *testing.T) {
		// The activation gate fences protected routes, not the login
		// path. An inactive user needs a session to request access.
		resp, err := service.Login(ctx, auth.LoginInput{
			Email:    "login@example.com",
			Password: "swordfish123",
		})
		require.NoError(t, err)
		assert.False(t, resp.User.IsActive)
	})
}
