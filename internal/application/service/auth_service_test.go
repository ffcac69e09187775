package service

import (
	"context"
	"testing"

	"github.com/sangkips/kopi-pos/internal/domain/enum"
	"github.com/sangkips/kopi-pos/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.auth.CreateUser(ctx, f.admin, &CreateUserInput{
		Name:     "Sari",
		Email:    " Sari@Kopi.test ",
		Password: "rahasia123",
		Role:     enum.RoleCashier,
	})
	require.NoError(t, err)
	assert.Equal(t, "sari@kopi.test", user.Email)
	assert.NotEqual(t, "rahasia123", user.Password)

	out, err := f.auth.Login(ctx, &LoginInput{Email: "  SARI@kopi.test\t", Password: "rahasia123"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
	assert.NotEmpty(t, out.RefreshToken)
	assert.NotNil(t, out.User.LastLoginAt)

	refreshed, err := f.auth.RefreshToken(ctx, out.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, refreshed.User.ID)

	_, err = f.auth.RefreshToken(ctx, out.AccessToken)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)

	_, err = f.auth.Login(ctx, &LoginInput{Email: "sari@kopi.test", Password: "salah"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, &LoginInput{Email: "nobody@kopi.test", Password: "rahasia123"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestCreateUserRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.CreateUser(ctx, f.cashier, &CreateUserInput{Name: "X", Email: "x@kopi.test", Password: "rahasia123", Role: enum.RoleCashier})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))

	_, err = f.auth.CreateUser(ctx, f.admin, &CreateUserInput{Name: "X", Email: "x@kopi.test", Password: "short", Role: enum.RoleCashier})
	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	require.Len(t, appErr.Errors, 1)
	assert.Equal(t, "Password", appErr.Errors[0].Field)
	assert.Equal(t, "must be at least 8 characters", appErr.Errors[0].Message)

	_, err = f.auth.CreateUser(ctx, f.admin, &CreateUserInput{Name: "X", Email: "x@kopi.test", Password: "rahasia123", Role: "manager"})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = f.auth.CreateUser(ctx, f.admin, &CreateUserInput{Name: "X", Email: "kasir@kopi.test", Password: "rahasia123", Role: enum.RoleCashier})
	assert.True(t, apperror.IsKind(err, apperror.KindDuplicateEntry))
}
