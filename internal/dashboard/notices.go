package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/cache"
	"github.com/tgienger/dash/internal/models"
)

// NoticeBoard is the paged notice widget.
type NoticeBoard struct {
	Page *cache.Cell[models.NoticePage]

	CreateOp *Mutation[api.CreateNoticeInput]
	DeleteOp *Mutation[int64]

	pageSize int

	mu      sync.Mutex
	pageNum int
}

// NewNoticeBoard wires the notice widget to client.
func NewNoticeBoard(client *api.Client, pageSize int, logger *slog.Logger) *NoticeBoard {
	log := logger.With("screen", "notices")
	if pageSize < 1 {
		pageSize = 10
	}
	b := &NoticeBoard{pageSize: pageSize, pageNum: 1}

	b.Page = cache.New("notices.page", func(ctx context.Context) (models.NoticePage, error) {
		return client.NoticePage(ctx, b.PageNum(), b.pageSize)
	}, cache.WithLogger(log))

	b.CreateOp = NewMutation("create notice", "create notice failed",
		func(ctx context.Context, in api.CreateNoticeInput) error {
			_, err := client.CreateNotice(ctx, in)
			return err
		}, log).
		Validate(func(in api.CreateNoticeInput) string {
			return required("title", in.Title, "content", in.Content)
		})

	b.DeleteOp = NewMutation("delete notice", "delete notice failed", client.DeleteNotice, log).
		Invalidates(b.Page)
	return b
}

// PageNum is the current page, starting at 1.
func (b *NoticeBoard) PageNum() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pageNum
}

// TotalPages derives the page count from the last loaded page.
func (b *NoticeBoard) TotalPages() int {
	st := b.Page.Snapshot()
	if st.Data.Total == 0 {
		return 1
	}
	return int((st.Data.Total + int64(b.pageSize) - 1) / int64(b.pageSize))
}

// SetPage moves to page n, clamped to the known range, and reloads.
func (b *NoticeBoard) SetPage(ctx context.Context, n int) {
	n = max(1, min(n, b.TotalPages()))
	b.mu.Lock()
	b.pageNum = n
	b.mu.Unlock()
	b.Page.Refresh(ctx)
}

// NextPage moves forward one page.
func (b *NoticeBoard) NextPage(ctx context.Context) { b.SetPage(ctx, b.PageNum()+1) }

// PrevPage moves back one page.
func (b *NoticeBoard) PrevPage(ctx context.Context) { b.SetPage(ctx, b.PageNum()-1) }

// Create publishes a notice and returns to the first page, where it appears.
func (b *NoticeBoard) Create(ctx context.Context, title, content string) bool {
	if !b.CreateOp.Run(ctx, api.CreateNoticeInput{Title: title, Content: content}) {
		return false
	}
	b.mu.Lock()
	b.pageNum = 1
	b.mu.Unlock()
	b.Page.Refresh(ctx)
	return true
}

// Delete removes a notice. The current page is invalidated, so a watched
// board reloads it in the background and an unwatched one on its next Load.
func (b *NoticeBoard) Delete(ctx context.Context, id int64) bool {
	return b.DeleteOp.Run(ctx, id)
}
