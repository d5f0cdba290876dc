package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/dash/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "dash.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestSettings_RoundTrip(t *testing.T) {
	database := newTestDB(t)

	v, err := database.GetSetting("missing")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, database.SetSetting(KeyLastScreen, "todo"))
	require.NoError(t, database.SetSetting(KeyLastScreen, "activity"))

	v, err = database.GetSetting(KeyLastScreen)
	require.NoError(t, err)
	assert.Equal(t, "activity", v)
}

func TestSession_SaveLoadClear(t *testing.T) {
	database := newTestDB(t)

	info, err := database.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, info)

	err = database.SaveSession(models.UserInfo{
		User:            &models.User{ID: 7, Username: "alice"},
		RoleCodes:       []string{"ADMIN"},
		PermissionCodes: []string{"PERM_TODO"},
		Token:           "tok-1",
	})
	require.NoError(t, err)

	token, err := database.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	raw, err := database.GetSetting(KeyUserInfo)
	require.NoError(t, err)
	assert.NotContains(t, raw, "tok-1", "snapshot must not duplicate the token")

	info, err = database.LoadSession()
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "alice", info.User.Username)
	assert.Equal(t, "tok-1", info.Token)
	assert.Equal(t, []string{"PERM_TODO"}, info.PermissionCodes)

	require.NoError(t, database.ClearSession())
	token, err = database.Token()
	require.NoError(t, err)
	assert.Empty(t, token)
	info, err = database.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestLoadSession_CorruptSnapshot(t *testing.T) {
	database := newTestDB(t)
	require.NoError(t, database.SetSetting(KeyToken, "tok"))
	require.NoError(t, database.SetSetting(KeyUserInfo, "{not json"))

	_, err := database.LoadSession()
	assert.Error(t, err)
}
