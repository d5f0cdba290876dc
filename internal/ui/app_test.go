package ui

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/auth"
	"github.com/tgienger/dash/internal/dashboard"
	"github.com/tgienger/dash/internal/db"
	"github.com/tgienger/dash/internal/mockapi"
	"github.com/tgienger/dash/internal/ui/views"
)

func newTestApp(t *testing.T) (*App, *db.DB, *views.Deps) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := mockapi.New(mockapi.Config{}, logger)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	store, err := db.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client := api.New(ts.URL, store, logger)
	session := auth.NewSession(store, client, logger)
	require.NoError(t, session.Init(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	deps := views.NewDeps(ctx, session, logger)
	t.Cleanup(deps.Close)

	tags := dashboard.NewActivityTagCell(client, logger)
	app := NewApp(store, deps, Controllers{
		Notices:  dashboard.NewNoticeBoard(client, 10, logger),
		Todo:     dashboard.NewTodoBoard(client, logger),
		Activity: dashboard.NewActivityLog(client, tags, logger),
		Access:   dashboard.NewAccessControl(client, logger),
		Games:    dashboard.NewGames(client, 20, logger),
		Health:   dashboard.NewHealth(client, logger),
	})
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return app, store, deps
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestAppHidesGatedScreens(t *testing.T) {
	app, _, deps := newTestApp(t)

	assert.Equal(t, []int{0, 1, 4}, app.visibleScreens())
	view := app.View()
	assert.Contains(t, view, "Notices")
	assert.NotContains(t, view, "Access")

	app.Update(keyPress("4"))
	assert.Equal(t, 0, app.current, "hidden screen cannot be opened")

	require.NoError(t, deps.Session.Login(context.Background(), "admin", "admin123"))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, app.visibleScreens())
	app.Update(keyPress("4"))
	assert.Equal(t, 3, app.current)
}

func TestAppRemembersScreen(t *testing.T) {
	app, store, _ := newTestApp(t)

	app.Update(keyPress("2"))
	assert.Equal(t, 1, app.current)
	name, err := store.GetSetting(db.KeyLastScreen)
	require.NoError(t, err)
	assert.Equal(t, "todo", name)

	app.Update(keyPress("]"))
	assert.Equal(t, 4, app.current, "cycling skips hidden screens")

	restored, _, _ := newTestApp(t)
	require.NoError(t, restored.settings.SetSetting(db.KeyLastScreen, "games"))
	restored.Init()
	assert.Equal(t, 4, restored.current)
}

func TestAppLogoutFallsBackToVisibleScreen(t *testing.T) {
	app, _, deps := newTestApp(t)
	require.NoError(t, deps.Session.Login(context.Background(), "admin", "admin123"))
	app.Update(keyPress("3"))
	require.Equal(t, 2, app.current)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, logoutDoneMsg{}, msg)
	app.Update(msg)

	assert.False(t, deps.Session.IsAuthenticated())
	assert.Equal(t, 0, app.current)
	assert.Contains(t, app.View(), "Logged out")
}

func TestAppLoginOverlay(t *testing.T) {
	app, _, _ := newTestApp(t)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	require.True(t, app.loggingIn)

	// Keys go to the dialog while it is open.
	app.Update(keyPress("q"))
	assert.True(t, app.loggingIn)

	app.Update(views.LoginCancelledMsg{})
	assert.False(t, app.loggingIn)
	assert.Contains(t, app.View(), "anonymous")
}
