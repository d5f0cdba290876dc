package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tgienger/dash/internal/models"
)

// NoticePage fetches one page of notices. pageNum starts at 1.
func (c *Client) NoticePage(ctx context.Context, pageNum, pageSize int) (models.NoticePage, error) {
	body := map[string]int{"pageNum": pageNum, "pageSize": pageSize}
	return call[models.NoticePage](ctx, c, http.MethodPost, "/api/notice/page", body, authOptional)
}

// CreateNoticeInput is the payload of CreateNotice.
type CreateNoticeInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreateNotice creates a notice and returns its id.
func (c *Client) CreateNotice(ctx context.Context, in CreateNoticeInput) (int64, error) {
	return call[int64](ctx, c, http.MethodPost, "/api/notice/create", in, authRequired)
}

// DeleteNotice deletes a notice by id.
func (c *Client) DeleteNotice(ctx context.Context, id int64) error {
	_, err := call[any](ctx, c, http.MethodDelete, fmt.Sprintf("/api/notice/%d", id), nil, authRequired)
	return err
}
