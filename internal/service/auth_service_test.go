package service

import (
	"context"
	"testing"

	"github.com/kinshipapp/kinship/internal/config"
	"github.com/kinshipapp/kinship/pkg/errcode"
	"github.com/kinshipapp/kinship/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireHours = 1
	return NewAuthService(setupTestRepos(t), cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Nickname)

	claims, err := jwt.ParseToken(resp.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, resp.User.Id, claims.UserId)

	// Duplicate username is rejected
	_, err = svc.Register(ctx, &RegisterRequest{Username: "alice", Password: "other"})
	assert.Equal(t, errcode.ErrUserExists, err)

	login, err := svc.Login(ctx, &LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.Id, login.User.Id)

	_, err = svc.Login(ctx, &LoginRequest{Username: "alice", Password: "wrong"})
	assert.Equal(t, errcode.ErrPasswordWrong, err)

	// Unknown user fails the same way as a wrong password
	_, err = svc.Login(ctx, &LoginRequest{Username: "ghost", Password: "secret123"})
	assert.Equal(t, errcode.ErrPasswordWrong, err)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(context.Background(), &RegisterRequest{Username: "", Password: "x"})
	assert.Equal(t, errcode.ErrInvalidParam, err)

	_, err = svc.Register(context.Background(), &RegisterRequest{Username: "x", Password: ""})
	assert.Equal(t, errcode.ErrInvalidParam, err)
}
