package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/dash/internal/models"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticToken(tok string) TokenSource {
	return TokenFunc(func() (string, error) { return tok, nil })
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestClient_AttachesTokenAndRequestID(t *testing.T) {
	t.Parallel()

	var gotAuth, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get(RequestIDHeader)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    []map[string]any{{"id": 1, "name": "Work"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("abc"), newTestLogger())
	tags, err := c.TodoTags(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []models.TodoTag{{ID: 1, Name: "Work"}}, tags)
	assert.Equal(t, "Bearer abc", gotAuth)
	_, err = uuid.Parse(gotReqID)
	assert.NoError(t, err, "request id should be a uuid")
}

func TestClient_TokenReadPerRequest(t *testing.T) {
	t.Parallel()

	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	}))
	defer srv.Close()

	var current atomic.Value
	current.Store("first")
	c := New(srv.URL, TokenFunc(func() (string, error) { return current.Load().(string), nil }), newTestLogger())

	_, err := c.TodoTags(context.Background())
	require.NoError(t, err)
	current.Store("second")
	_, err = c.TodoTags(context.Background())
	require.NoError(t, err)
	current.Store("")
	_, err = c.TodoTags(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer first", "Bearer second", ""}, seen)
}

func TestClient_RequiredAuthWithoutToken_NoNetworkCall(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": 1})
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken(""), newTestLogger())
	_, err := c.CreateNotice(context.Background(), CreateNoticeInput{Title: "t", Content: "c"})

	assert.ErrorIs(t, err, ErrNotLoggedIn)
	assert.Equal(t, MsgNotLoggedIn, Message(err, "fallback"))
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "http status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: "HTTP 500",
		},
		{
			name: "business failure with message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "tag name taken", "traceId": "t-1"})
			},
			want: "tag name taken",
		},
		{
			name: "business failure without message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"success": false})
			},
			want: "create tag failed",
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "jwt expired at 12:00"})
			},
			want: MsgUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := New(srv.URL, staticToken("tok"), newTestLogger())
			_, err := c.CreateTodoTag(context.Background(), CreateTodoTagInput{Name: "Work"})
			require.Error(t, err)
			assert.Equal(t, tt.want, Message(err, "create tag failed"))
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, staticToken("tok"), newTestLogger())
	_, err := c.TodoTags(context.Background())

	var transport *TransportError
	require.True(t, errors.As(err, &transport))
	assert.NotEmpty(t, Message(err, "fallback"))
	assert.NotEqual(t, "fallback", Message(err, "fallback"))
}

// Every endpoint must map a 401 to the fixed message, whatever the server says.
func TestClient_UnauthorizedNormalizedOnEveryEndpoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "raw server text " + r.URL.Path})
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("expired"), newTestLogger())
	ctx := context.Background()
	season := "S1"

	calls := map[string]func() error{
		"NoticePage":            func() error { _, err := c.NoticePage(ctx, 1, 10); return err },
		"CreateNotice":          func() error { _, err := c.CreateNotice(ctx, CreateNoticeInput{Title: "a", Content: "b"}); return err },
		"DeleteNotice":          func() error { return c.DeleteNotice(ctx, 1) },
		"TodoTags":              func() error { _, err := c.TodoTags(ctx); return err },
		"CreateTodoTag":         func() error { _, err := c.CreateTodoTag(ctx, CreateTodoTagInput{Name: "x"}); return err },
		"DeleteTodoTag":         func() error { return c.DeleteTodoTag(ctx, 1) },
		"TodoItems":             func() error { _, err := c.TodoItems(ctx, nil); return err },
		"CreateTodoItem":        func() error { _, err := c.CreateTodoItem(ctx, CreateTodoItemInput{Content: "x"}); return err },
		"UpdateTodoItem":        func() error { return c.UpdateTodoItem(ctx, UpdateTodoItemInput{ID: 1}) },
		"DeleteTodoItem":        func() error { return c.DeleteTodoItem(ctx, 1) },
		"ActivityTags":          func() error { _, err := c.ActivityTags(ctx); return err },
		"CreateActivityTag":     func() error { _, err := c.CreateActivityTag(ctx, ActivityTagInput{Name: "x"}); return err },
		"UpdateActivityTag":     func() error { return c.UpdateActivityTag(ctx, ActivityTagInput{ID: 1, Name: "x"}) },
		"DeleteActivityTag":     func() error { return c.DeleteActivityTag(ctx, 1) },
		"ActivityBlocks":        func() error { _, err := c.ActivityBlocks(ctx, "2026-01-02"); return err },
		"SaveActivityBlock":     func() error { _, err := c.SaveActivityBlock(ctx, SaveActivityBlockInput{TagID: 1}); return err },
		"DeleteActivityBlock":   func() error { return c.DeleteActivityBlock(ctx, 1) },
		"Users":                 func() error { _, err := c.Users(ctx); return err },
		"Roles":                 func() error { _, err := c.Roles(ctx); return err },
		"Permissions":           func() error { _, err := c.Permissions(ctx); return err },
		"RoleCodesByUser":       func() error { _, err := c.RoleCodesByUser(ctx, 1); return err },
		"PermissionCodesByRole": func() error { _, err := c.PermissionCodesByRole(ctx, 1); return err },
		"AssignUserRoles":       func() error { return c.AssignUserRoles(ctx, 1, nil) },
		"AssignRolePermissions": func() error { return c.AssignRolePermissions(ctx, 1, nil) },
		"CreateRole":            func() error { _, err := c.CreateRole(ctx, RoleInput{RoleCode: "A"}); return err },
		"UpdateRole":            func() error { return c.UpdateRole(ctx, RoleInput{ID: 1}) },
		"CreatePermission":      func() error { _, err := c.CreatePermission(ctx, PermissionInput{PermissionCode: "P"}); return err },
		"UpdatePermission":      func() error { return c.UpdatePermission(ctx, PermissionInput{ID: 1}) },
		"MatchGamePage":         func() error { _, err := c.MatchGamePage(ctx, MatchGamePageInput{PageNum: 1, PageSize: 10, Season: &season}); return err },
		"MatchGameDetail":       func() error { _, err := c.MatchGameDetail(ctx, 1); return err },
		"CreateMatchGame":       func() error { _, err := c.CreateMatchGame(ctx, MatchGameInput{Season: "S1"}); return err },
		"UpdateMatchGame":       func() error { return c.UpdateMatchGame(ctx, MatchGameInput{ID: 1}) },
		"DeleteMatchGame":       func() error { return c.DeleteMatchGame(ctx, 1) },
		"MatchGameStats":        func() error { _, err := c.MatchGameStats(ctx, MatchGameStatsInput{Dimension: models.DimensionPlayer}); return err },
		"MatchGameBaseData":     func() error { _, err := c.MatchGameBaseData(ctx); return err },
		"AnonymousUserInfo":     func() error { _, err := c.AnonymousUserInfo(ctx); return err },
		"Health":                func() error { _, err := c.Health(ctx); return err },
	}

	for name, fn := range calls {
		err := fn()
		require.Error(t, err, name)
		assert.ErrorIs(t, err, ErrUnauthorized, name)
		assert.Equal(t, MsgUnauthorized, Message(err, "fallback"), name)
	}
}

func TestClient_UpdateTodoItemPartialBody(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": 1})
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("tok"), newTestLogger())
	done := true
	require.NoError(t, c.UpdateTodoItem(context.Background(), UpdateTodoItemInput{ID: 4, Completed: &done}))

	assert.Equal(t, map[string]any{"id": float64(4), "completed": true}, body)

	require.NoError(t, c.UpdateTodoItem(context.Background(), UpdateTodoItemInput{ID: 4, ClearTag: true}))
	v, ok := body["tagId"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestClient_HealthBareObject(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/system/health", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
	}))
	defer srv.Close()

	h, err := New(srv.URL, nil, newTestLogger()).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "UP", h.Status)
}

func TestClient_Do(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"status": "UP"}})
	}))
	defer srv.Close()

	var out models.Health
	err := New(srv.URL, nil, newTestLogger()).Do(context.Background(), http.MethodGet, "/api/anything", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "UP", out.Status)
}
