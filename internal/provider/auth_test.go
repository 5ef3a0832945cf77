package provider

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/harlequingg/todo-api/internal/apperr"
	"github.com/harlequingg/todo-api/internal/mailer"
	"github.com/harlequingg/todo-api/internal/token"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice", "correct horse")

	t.Run("success", func(t *testing.T) {
		session := &fakeSession{}
		resp, err := f.auth.Login(ctx, session, LoginRequest{Username: "alice", Password: "correct horse"})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, MsgLoginSuccessful, resp.Message)
		assert.Equal(t, alice.ID, resp.User.ID)
		require.NotEmpty(t, resp.Token)
		assert.Equal(t, resp.Token, session.token, "token is stored in the session cookie")

		id, err := f.tokens.UserID(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, alice.ID.String(), id)
	})

	tests := []struct {
		name    string
		req     LoginRequest
		wantMsg string
		wantErr error
	}{
		{name: "wrong password", req: LoginRequest{Username: "alice", Password: "wrong"}, wantMsg: MsgInvalidCredentials, wantErr: apperr.ErrInvalidCredentials},
		{name: "unknown user", req: LoginRequest{Username: "mallory", Password: "x"}, wantMsg: MsgInvalidCredentials, wantErr: apperr.ErrInvalidCredentials},
		{name: "empty password", req: LoginRequest{Username: "alice"}, wantMsg: MsgLoginInvalidPayload, wantErr: apperr.ErrInvalidPayload},
		{name: "empty username", req: LoginRequest{Password: "x"}, wantMsg: MsgLoginInvalidPayload, wantErr: apperr.ErrInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &fakeSession{}
			resp, err := f.auth.Login(ctx, session, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantMsg, resp.Message)
			assert.Empty(t, resp.Token)
			assert.Empty(t, session.token)
		})
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var sent mailer.ConfirmEmailData
	f.mailer.On("Send", mock.Anything, "alice@example.com", mailer.ConfirmEmailTemplate, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(3).(mailer.ConfirmEmailData) }).
		Return(nil).Once()

	resp, err := f.auth.Register(ctx, RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, MsgUserRegistered, resp.Message)
	assert.NotEqual(t, "pw", resp.User.PasswordHash)
	assert.False(t, resp.User.IsEmailConfirmed)
	assert.False(t, resp.User.CreateDate.IsZero())
	f.mailer.AssertExpectations(t)

	assert.Equal(t, "alice", sent.Username)
	assert.True(t, strings.HasPrefix(sent.Link, "http://localhost:5173/verify-email?token="), sent.Link)

	tests := []struct {
		name    string
		req     RegisterRequest
		wantMsg string
		wantErr error
	}{
		{name: "username taken", req: RegisterRequest{Username: "alice", Email: "other@example.com", Password: "pw"}, wantMsg: MsgUsernameTaken, wantErr: apperr.ErrUsernameTaken},
		{name: "email taken", req: RegisterRequest{Username: "alice2", Email: "alice@example.com", Password: "pw"}, wantMsg: MsgEmailTaken, wantErr: apperr.ErrEmailTaken},
		{name: "missing email", req: RegisterRequest{Username: "bob", Password: "pw"}, wantMsg: MsgInvalidPayload, wantErr: apperr.ErrInvalidPayload},
		{name: "missing password", req: RegisterRequest{Username: "bob", Email: "bob@example.com"}, wantMsg: MsgInvalidPayload, wantErr: apperr.ErrInvalidPayload},
		{name: "username too long", req: RegisterRequest{Username: strings.Repeat("b", 61), Email: "bob@example.com", Password: "pw"}, wantMsg: MsgInvalidPayload, wantErr: apperr.ErrInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.auth.Register(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantMsg, resp.Message)
		})
	}
}

func TestRegisterSucceedsWhenMailFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mailer.On("Send", mock.Anything, "bob@example.com", mailer.ConfirmEmailTemplate, mock.Anything).
		Return(errors.New("smtp: connection refused")).Once()

	resp, err := f.auth.Register(ctx, RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	f.mailer.AssertExpectations(t)

	u, err := f.users.ByUsername(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, u)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "alice", "pw")

	resp, err := f.auth.Logout(ctx, &fakeSession{})
	assert.ErrorIs(t, err, apperr.ErrNoSessionCookie)
	assert.Equal(t, MsgNoSessionCookie, resp.Message)

	session := &fakeSession{}
	_, err = f.auth.Login(ctx, session, LoginRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	raw := session.token

	resp, err = f.auth.Logout(ctx, session)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, MsgLogoutSuccessful, resp.Message)
	assert.Empty(t, session.token)

	_, err = f.tokens.Validate(raw)
	assert.ErrorIs(t, err, token.ErrTokenRevoked)

	_, err = f.auth.UserByToken(ctx, &fakeSession{token: raw})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestConfirmEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var link string
	f.mailer.On("Send", mock.Anything, "alice@example.com", mailer.ConfirmEmailTemplate, mock.Anything).
		Run(func(args mock.Arguments) { link = args.Get(3).(mailer.ConfirmEmailData).Link }).
		Return(nil).Once()
	_, err := f.auth.Register(ctx, RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	tok := parsed.Query().Get("token")
	require.NotEmpty(t, tok)

	resp, err := f.auth.ConfirmEmail(ctx, tok)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, MsgEmailConfirmed, resp.Message)

	u, err := f.users.ByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, u.IsEmailConfirmed, "cached lookups see the confirmation")

	resp, err = f.auth.ConfirmEmail(ctx, tok)
	assert.ErrorIs(t, err, apperr.ErrEmailNotConfirmed)
	assert.Equal(t, MsgInvalidConfirmToken, resp.Message)

	_, err = f.auth.ConfirmEmail(ctx, "not-a-token")
	assert.ErrorIs(t, err, apperr.ErrEmailNotConfirmed)
}

func TestUserByToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.register(t, "alice", "pw")

	session := &fakeSession{}
	_, err := f.auth.Login(ctx, session, LoginRequest{Username: "alice", Password: "pw"})
	require.NoError(t, err)

	resp, err := f.auth.UserByToken(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, MsgUserRetrieved, resp.Message)
	assert.Equal(t, alice.ID, resp.User.ID)

	for name, session := range map[string]*fakeSession{
		"no cookie":       {},
		"garbage cookie":  {token: "garbage"},
		"confirmation id": {token: mustGenerate(t, f, "not-a-uuid", "alice")},
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := f.auth.UserByToken(ctx, session)
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
			assert.Equal(t, MsgUnauthorized, resp.Message)
			assert.Nil(t, resp.User)
		})
	}
}

func mustGenerate(t *testing.T, f *fixture, userID, username string) string {
	t.Helper()
	tok, err := f.tokens.Generate(userID, username)
	require.NoError(t, err)
	return tok
}
