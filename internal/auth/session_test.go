package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/db"
	"github.com/tgienger/dash/internal/models"
)

type fakeClient struct {
	login     models.UserInfo
	loginErr  error
	anon      models.UserInfo
	anonErr   error
	anonCalls int
}

func (f *fakeClient) Login(ctx context.Context, in api.LoginInput) (models.UserInfo, error) {
	return f.login, f.loginErr
}

func (f *fakeClient) AnonymousUserInfo(ctx context.Context) (models.UserInfo, error) {
	f.anonCalls++
	return f.anon, f.anonErr
}

func newTestStore(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestSession(t *testing.T, client *fakeClient) (*Session, *db.DB) {
	t.Helper()
	store := newTestStore(t)
	return NewSession(store, client, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret-test-secret-test-secret"))
	require.NoError(t, err)
	return s
}

func TestSession_InitAnonymous(t *testing.T) {
	t.Parallel()

	client := &fakeClient{anon: models.UserInfo{PermissionCodes: []string{"PERM_NOTICE_VIEW"}}}
	s, _ := newTestSession(t, client)

	require.NoError(t, s.Init(context.Background()))
	assert.False(t, s.IsAuthenticated())
	assert.True(t, s.HasPermission("PERM_NOTICE_VIEW"))
	assert.False(t, s.HasPermission("PERM_TODO"))
	assert.Equal(t, 1, client.anonCalls)
}

func TestSession_InitAnonymousFailureLeavesEmptySet(t *testing.T) {
	t.Parallel()

	client := &fakeClient{anonErr: errors.New("connection refused")}
	s, _ := newTestSession(t, client)

	err := s.Init(context.Background())
	require.Error(t, err)
	assert.Empty(t, s.Info().PermissionCodes)
	assert.EqualError(t, s.Err(), "connection refused")
}

func TestSession_LoginPersistsAndRestores(t *testing.T) {
	t.Parallel()

	token := signedToken(t, time.Now().Add(time.Hour))
	client := &fakeClient{login: models.UserInfo{
		User:            &models.User{ID: 1, Username: "admin", Nickname: "Admin"},
		RoleCodes:       []string{"ADMIN"},
		PermissionCodes: []string{"PERM_TODO", "PERM_NOTICE_CREATE"},
		Token:           token,
	}}
	s, store := newTestSession(t, client)

	require.NoError(t, s.Login(context.Background(), "admin", "secret"))
	assert.True(t, s.IsAuthenticated())
	assert.True(t, s.HasPermission("PERM_TODO"))
	assert.Equal(t, "Admin", s.Username())

	stored, err := store.Token()
	require.NoError(t, err)
	assert.Equal(t, token, stored)

	// A new process restores the session without contacting the server.
	restoredClient := &fakeClient{}
	restored := NewSession(store, restoredClient, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, restored.Init(context.Background()))
	assert.True(t, restored.IsAuthenticated())
	assert.Equal(t, []string{"ADMIN"}, restored.Info().RoleCodes)
	assert.Equal(t, 0, restoredClient.anonCalls)
}

func TestSession_LoginFailureKeepsState(t *testing.T) {
	t.Parallel()

	client := &fakeClient{loginErr: &api.BusinessError{Message: "bad credentials"}}
	s, store := newTestSession(t, client)

	err := s.Login(context.Background(), "admin", "wrong")
	assert.Equal(t, "bad credentials", api.Message(err, "login failed"))
	assert.False(t, s.IsAuthenticated())

	tok, err := store.Token()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestSession_LogoutClearsStoreAndRefetchesAnonymous(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		login: models.UserInfo{User: &models.User{ID: 1, Username: "admin"}, Token: "t", PermissionCodes: []string{"PERM_TODO"}},
		anon:  models.UserInfo{PermissionCodes: []string{"PERM_NOTICE_VIEW"}},
	}
	s, store := newTestSession(t, client)
	require.NoError(t, s.Login(context.Background(), "admin", "secret"))

	require.NoError(t, s.Logout(context.Background()))
	assert.False(t, s.IsAuthenticated())
	assert.False(t, s.HasPermission("PERM_TODO"))
	assert.True(t, s.HasPermission("PERM_NOTICE_VIEW"))

	info, err := store.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestSession_CorruptSnapshotIsDiscarded(t *testing.T) {
	t.Parallel()

	client := &fakeClient{anon: models.UserInfo{PermissionCodes: []string{"PERM_NOTICE_VIEW"}}}
	s, store := newTestSession(t, client)
	require.NoError(t, store.SetSetting(db.KeyToken, "t"))
	require.NoError(t, store.SetSetting(db.KeyUserInfo, "{not json"))

	require.NoError(t, s.Init(context.Background()))
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, 1, client.anonCalls)

	tok, err := store.Token()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestSession_TokenExpiry(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	client := &fakeClient{login: models.UserInfo{User: &models.User{ID: 1}, Token: signedToken(t, exp)}}
	s, _ := newTestSession(t, client)

	_, ok := s.TokenExpiry()
	assert.False(t, ok)

	require.NoError(t, s.Login(context.Background(), "admin", "secret"))
	got, ok := s.TokenExpiry()
	require.True(t, ok)
	assert.True(t, exp.Equal(got))
}
