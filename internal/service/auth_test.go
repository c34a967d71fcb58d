package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listkeep/listkeep-server/internal/errors"
)

func registerRequest() RegisterRequest {
	return RegisterRequest{
		Email:        "Ada@Example.com",
		Password:     "correct horse battery",
		DisplayName:  "Ada",
		Organization: "Analytical Engines",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, registerRequest())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)

	_, err = env.auth.Register(ctx, registerRequest())
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)

	login, err := env.auth.Login(ctx, LoginRequest{Email: "ADA@example.com", Password: "correct horse battery"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "ada@example.com", Password: "wrong password"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "bob@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestRegister_Validation(t *testing.T) {
	env := setupTest(t)

	req := registerRequest()
	req.Password = "short"
	_, err := env.auth.Register(context.Background(), req)
	require.ErrorIs(t, err, domainerrors.ErrValidation)

	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Details, "password")
}

func TestResolveIdentity(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()

	resp, err := env.auth.Register(ctx, registerRequest())
	require.NoError(t, err)

	ref, err := env.auth.ResolveIdentity(ctx, resp.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, resp.User.ID, ref.ID)
	assert.Equal(t, "Analytical Engines", ref.Organization)

	for _, token := range []string{"", "v4.local.garbage"} {
		ref, err := env.auth.ResolveIdentity(ctx, token)
		require.NoError(t, err)
		assert.Nil(t, ref, "invalid tokens resolve to anonymous")
	}

	me, err := env.auth.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.DisplayName)
}
