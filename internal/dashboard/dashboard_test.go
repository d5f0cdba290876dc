package dashboard

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/mockapi"
)

type tokenBox struct{ token string }

func (b *tokenBox) Token() (string, error) { return b.token, nil }

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
	client *api.Client
	tokens *tokenBox
	down   *outage
	log    *slog.Logger
}

// newTestEnv starts a mock backend and a client logged in as admin.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv, err := mockapi.New(mockapi.Config{}, logger)
	require.NoError(t, err)
	down := &outage{}
	ts := httptest.NewServer(down.wrap(srv.Router()))
	t.Cleanup(ts.Close)

	token, err := srv.AdminToken()
	require.NoError(t, err)
	box := &tokenBox{token: token}

	return &testEnv{
		srv:    srv,
		client: api.New(ts.URL, box, logger),
		tokens: box,
		down:   down,
		log:    logger,
	}
}

func ptr[T any](v T) *T { return &v }

var bg = context.Background()
