package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tgienger/dash/internal/models"
)

// TodoTags lists all todo tags.
func (c *Client) TodoTags(ctx context.Context) ([]models.TodoTag, error) {
	tags, err := call[[]models.TodoTag](ctx, c, http.MethodGet, "/api/todo/tag/list", nil, authOptional)
	if tags == nil {
		tags = []models.TodoTag{}
	}
	return tags, err
}

// CreateTodoTagInput is the payload of CreateTodoTag.
type CreateTodoTagInput struct {
	Name string `json:"name"`
}

// CreateTodoTag creates a tag and returns its id.
func (c *Client) CreateTodoTag(ctx context.Context, in CreateTodoTagInput) (int64, error) {
	return call[int64](ctx, c, http.MethodPost, "/api/todo/tag/create", in, authRequired)
}

// DeleteTodoTag deletes a tag. The server detaches items that reference it.
func (c *Client) DeleteTodoTag(ctx context.Context, id int64) error {
	_, err := call[any](ctx, c, http.MethodDelete, fmt.Sprintf("/api/todo/tag/%d", id), nil, authRequired)
	return err
}

// TodoItems lists todo items, restricted to one tag when tagID is non-nil.
func (c *Client) TodoItems(ctx context.Context, tagID *int64) ([]models.TodoItem, error) {
	path := "/api/todo/item/list"
	if tagID != nil {
		path = fmt.Sprintf("/api/todo/item/listByTag?tagId=%d", *tagID)
	}
	items, err := call[[]models.TodoItem](ctx, c, http.MethodGet, path, nil, authOptional)
	if items == nil {
		items = []models.TodoItem{}
	}
	return items, err
}

// CreateTodoItemInput is the payload of CreateTodoItem.
type CreateTodoItemInput struct {
	Content string `json:"content"`
	TagID   *int64 `json:"tagId"`
}

// CreateTodoItem creates an item and returns its id.
func (c *Client) CreateTodoItem(ctx context.Context, in CreateTodoItemInput) (int64, error) {
	return call[int64](ctx, c, http.MethodPost, "/api/todo/item/create", in, authRequired)
}

// UpdateTodoItemInput is a partial update; nil fields are left unchanged.
// ClearTag detaches the item from its tag.
type UpdateTodoItemInput struct {
	ID        int64
	Content   *string
	Completed *bool
	TagID     *int64
	ClearTag  bool
}

// UpdateTodoItem applies a partial update to an item.
func (c *Client) UpdateTodoItem(ctx context.Context, in UpdateTodoItemInput) error {
	body := map[string]any{"id": in.ID}
	if in.Content != nil {
		body["content"] = *in.Content
	}
	if in.Completed != nil {
		body["completed"] = *in.Completed
	}
	if in.ClearTag {
		body["tagId"] = nil
	} else if in.TagID != nil {
		body["tagId"] = *in.TagID
	}
	_, err := call[any](ctx, c, http.MethodPost, "/api/todo/item/update", body, authRequired)
	return err
}

// DeleteTodoItem deletes an item by id.
func (c *Client) DeleteTodoItem(ctx context.Context, id int64) error {
	_, err := call[any](ctx, c, http.MethodDelete, fmt.Sprintf("/api/todo/item/%d", id), nil, authRequired)
	return err
}
