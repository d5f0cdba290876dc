package dashboard

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/dash/internal/cache"
	"github.com/tgienger/dash/internal/models"
)

func TestNoticeBoard_DeleteInvalidatesPage(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	board := NewNoticeBoard(env.client, 10, env.log)

	require.True(t, board.Create(bg, "First", "one"))
	require.True(t, board.Create(bg, "Second", "two"))
	page := board.Page.Snapshot().Data
	require.Len(t, page.List, 2)

	before := env.srv.Hits(http.MethodPost, "/api/notice/page")
	require.True(t, board.Delete(bg, page.List[0].ID))
	assert.False(t, board.Page.Snapshot().Loaded, "deleted notice still cached")

	page, err := board.Page.Load(bg)
	require.NoError(t, err)
	assert.Len(t, page.List, 1)
	assert.Equal(t, before+1, env.srv.Hits(http.MethodPost, "/api/notice/page"))
}

func TestNoticeBoard_DeleteReloadsWatchedPage(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	board := NewNoticeBoard(env.client, 10, env.log)

	require.True(t, board.Create(bg, "Only", "one"))
	unsubscribe := board.Page.Subscribe(func(cache.State[models.NoticePage]) {})
	defer unsubscribe()
	id := board.Page.Snapshot().Data.List[0].ID

	require.True(t, board.Delete(bg, id))
	require.Eventually(t, func() bool {
		st := board.Page.Snapshot()
		return st.Loaded && st.Data.Total == 0
	}, time.Second, time.Millisecond)
}

func TestNoticeBoard_FailedDeleteKeepsPage(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	board := NewNoticeBoard(env.client, 10, env.log)

	require.True(t, board.Create(bg, "Kept", "still here"))
	assert.False(t, board.Delete(bg, 999999))
	assert.NotEmpty(t, board.DeleteOp.Error())
	st := board.Page.Snapshot()
	assert.True(t, st.Loaded)
	assert.Len(t, st.Data.List, 1)
}
