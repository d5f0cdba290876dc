package views

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/auth"
	"github.com/tgienger/dash/internal/dashboard"
	"github.com/tgienger/dash/internal/db"
	"github.com/tgienger/dash/internal/mockapi"
	"github.com/tgienger/dash/internal/ui/keys"
	"github.com/tgienger/dash/internal/ui/styles"
)

// outage answers 503 for every path under prefix while one is set.
type outage struct {
	mu     sync.Mutex
	prefix string
}

func (o *outage) set(prefix string) {
	o.mu.Lock()
	o.prefix = prefix
	o.mu.Unlock()
}

func (o *outage) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o.mu.Lock()
		prefix := o.prefix
		o.mu.Unlock()
		if prefix != "" && strings.HasPrefix(r.URL.Path, prefix) {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type testEnv struct {
	srv    *mockapi.Server
	down   *outage
	client *api.Client
	deps   *Deps
	log    *slog.Logger
}

// newTestEnv starts a mock backend with an anonymous session.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := mockapi.New(mockapi.Config{}, logger)
	require.NoError(t, err)
	down := &outage{}
	ts := httptest.NewServer(down.wrap(srv.Router()))
	t.Cleanup(ts.Close)

	store, err := db.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client := api.New(ts.URL, store, logger)
	session := auth.NewSession(store, client, logger)
	require.NoError(t, session.Init(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	deps := NewDeps(ctx, session, logger)
	t.Cleanup(deps.Close)

	return &testEnv{srv: srv, down: down, client: client, deps: deps, log: logger}
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	require.NoError(t, e.deps.Session.Login(context.Background(), "admin", "admin123"))
}

func typeText(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyTab    = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc    = tea.KeyMsg{Type: tea.KeyEsc}
	keyEnter  = tea.KeyMsg{Type: tea.KeyEnter}
	keySave   = tea.KeyMsg{Type: tea.KeyCtrlS}
	keySpace  = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	windowMsg = tea.WindowSizeMsg{Width: 100, Height: 40}
)

// drain runs cmd and feeds what it reports back into m, batches included.
func drain(m tea.Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			drain(m, c)
		}
	default:
		_, next := m.Update(msg)
		drain(m, next)
	}
}

// action runs a command expected to be a background mutation.
func action(t *testing.T, cmd tea.Cmd) ActionDoneMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(ActionDoneMsg)
	require.True(t, ok, "command did not report an action")
	return msg
}

func TestFormNavigation(t *testing.T) {
	km := keys.DefaultKeyMap()
	f := newForm("Test", "Save", styles.NewStyles()).
		input("Name", "", 50).
		choice("Kind", "a", "b", "c")
	f.setWidth(80)
	f.open()

	res, _ := f.update(typeText("bob"), km)
	assert.Equal(t, formEditing, res)
	assert.Equal(t, "bob", f.value(0))

	// Enter on a text input moves to the next field.
	f.update(keyEnter, km)
	assert.Equal(t, 1, f.focus)

	f.update(tea.KeyMsg{Type: tea.KeyRight}, km)
	f.update(tea.KeyMsg{Type: tea.KeyRight}, km)
	assert.Equal(t, 2, f.chosen(1))
	f.update(tea.KeyMsg{Type: tea.KeyRight}, km)
	assert.Equal(t, 0, f.chosen(1), "choice wraps around")

	f.update(keyTab, km)
	assert.Equal(t, 2, f.focus, "tab reaches the submit button")
	res, _ = f.update(keyEnter, km)
	assert.Equal(t, formSubmitted, res)

	res, _ = f.update(keyEsc, km)
	assert.Equal(t, formCancelled, res)

	f.reset()
	f.open()
	assert.Equal(t, "", f.value(0))
	assert.Equal(t, 0, f.focus)
}

func TestFormSetChoicesClampsSelection(t *testing.T) {
	f := newForm("Test", "Save", styles.NewStyles()).choice("Tag")
	f.setChoices(0, []string{"(none)", "work"}, 5)
	assert.Equal(t, 1, f.chosen(0))
	f.setChoices(0, []string{"(none)", "work"}, -1)
	assert.Equal(t, 0, f.chosen(0))
}

func TestNoticesCreateNeedsLogin(t *testing.T) {
	env := newTestEnv(t)
	v := NewNoticesView(env.deps, dashboard.NewNoticeBoard(env.client, 10, env.log))
	v.Update(windowMsg)

	_, cmd := v.Update(typeText("n"))
	assert.Nil(t, cmd)
	assert.False(t, v.Capturing())
	assert.Contains(t, v.View(), "Log in to publish notices")
}

func TestNoticesCreate(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	board := dashboard.NewNoticeBoard(env.client, 10, env.log)
	v := NewNoticesView(env.deps, board)
	v.Update(windowMsg)

	v.Update(typeText("n"))
	require.True(t, v.Capturing())

	// Blank content is rejected before any request.
	v.Update(typeText("Release"))
	_, cmd := v.Update(keySave)
	done := action(t, cmd)
	assert.False(t, done.OK)
	v.Update(done)
	assert.True(t, v.Capturing())
	assert.NotEmpty(t, board.CreateOp.Prompt())

	v.Update(keyTab)
	v.Update(typeText("Version **2** is out"))
	_, cmd = v.Update(keySave)
	done = action(t, cmd)
	require.True(t, done.OK)
	v.Update(done)

	assert.False(t, v.Capturing())
	page := board.Page.Snapshot().Data
	require.NotEmpty(t, page.List)
	assert.Equal(t, "Release", page.List[0].Title)
	assert.Contains(t, v.View(), "Release")
}

func TestNoticesDeleteConfirm(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	board := dashboard.NewNoticeBoard(env.client, 10, env.log)
	require.True(t, board.Create(context.Background(), "Old", "gone soon"))
	v := NewNoticesView(env.deps, board)
	v.Update(windowMsg)

	v.Update(typeText("d"))
	assert.Contains(t, v.View(), "Delete Notice?")

	// Declining leaves the notice in place.
	_, cmd := v.Update(typeText("n"))
	assert.Nil(t, cmd)

	v.Update(typeText("d"))
	_, cmd = v.Update(typeText("y"))
	done := action(t, cmd)
	require.True(t, done.OK)
	assert.Empty(t, board.Page.Snapshot().Data.List)
}

func TestTodoToggle(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	ctx := context.Background()
	board := dashboard.NewTodoBoard(env.client, env.log)
	require.True(t, board.CreateItem(ctx, "write docs", nil))
	board.RefreshAll(ctx)

	v := NewTodoView(env.deps, board)
	v.Update(windowMsg)
	require.Len(t, v.items(), 1)

	_, cmd := v.Update(keySpace)
	done := action(t, cmd)
	require.True(t, done.OK)
	assert.True(t, v.items()[0].Completed)
	assert.Contains(t, v.View(), "write docs")
}

func TestTodoReadOnlyWithoutPermission(t *testing.T) {
	env := newTestEnv(t)
	board := dashboard.NewTodoBoard(env.client, env.log)
	v := NewTodoView(env.deps, board)
	v.Update(windowMsg)

	_, cmd := v.Update(typeText("n"))
	assert.Nil(t, cmd)
	assert.False(t, v.Capturing())
	assert.Contains(t, v.View(), "read-only")
}

func TestTodoCreateWithTag(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	ctx := context.Background()
	board := dashboard.NewTodoBoard(env.client, env.log)
	require.True(t, board.CreateTag(ctx, "work"))
	board.RefreshAll(ctx)

	v := NewTodoView(env.deps, board)
	v.Update(windowMsg)

	v.Update(typeText("n"))
	require.True(t, v.Capturing())
	v.Update(typeText("ship it"))
	v.Update(keyTab)
	v.Update(tea.KeyMsg{Type: tea.KeyRight})
	_, cmd := v.Update(keySave)
	done := action(t, cmd)
	require.True(t, done.OK)
	v.Update(done)

	assert.False(t, v.Capturing())
	items := v.items()
	require.Len(t, items, 1)
	require.NotNil(t, items[0].TagName)
	assert.Equal(t, "work", *items[0].TagName)
}

func TestLoginView(t *testing.T) {
	env := newTestEnv(t)
	v := NewLoginView(env.deps)
	v.Update(windowMsg)
	v.Open()

	// Missing password never reaches the server.
	v.Update(typeText("admin"))
	_, cmd := v.Update(keySave)
	assert.Nil(t, cmd)
	assert.Contains(t, v.View(), "Enter username and password")

	v.Update(keyTab)
	v.Update(typeText("wrong"))
	_, cmd = v.Update(keySave)
	require.NotNil(t, cmd)
	msg, ok := cmd().(LoginDoneMsg)
	require.True(t, ok)
	require.Error(t, msg.Err)
	v.Update(msg)
	assert.False(t, env.deps.Session.IsAuthenticated())

	_, cmd = v.Update(keyEsc)
	require.NotNil(t, cmd)
	assert.IsType(t, LoginCancelledMsg{}, cmd())
}

func TestMoveCursor(t *testing.T) {
	assert.Equal(t, 0, moveCursor(0, -1, 3))
	assert.Equal(t, 2, moveCursor(2, 1, 3))
	assert.Equal(t, 1, moveCursor(0, 1, 3))
	assert.Equal(t, 0, moveCursor(5, 0, 0))
	assert.Equal(t, 1, moveCursor(4, 0, 2))
}

func TestConfirmKey(t *testing.T) {
	yes, decided := confirmKey(typeText("y"))
	assert.True(t, yes)
	assert.True(t, decided)

	yes, decided = confirmKey(keyEsc)
	assert.False(t, yes)
	assert.True(t, decided)

	_, decided = confirmKey(typeText("x"))
	assert.False(t, decided)
}
