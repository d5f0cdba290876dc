package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tgienger/dash/internal/models"
)

// ActivityTags lists the current user's activity tags.
func (c *Client) ActivityTags(ctx context.Context) ([]models.ActivityTag, error) {
	tags, err := call[[]models.ActivityTag](ctx, c, http.MethodGet, "/api/activity/tag/list", nil, authOptional)
	if tags == nil {
		tags = []models.ActivityTag{}
	}
	return tags, err
}

// ActivityTagInput is the payload of tag create and update. ID is ignored on create.
type ActivityTagInput struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CreateActivityTag creates a tag and returns its id.
func (c *Client) CreateActivityTag(ctx context.Context, in ActivityTagInput) (int64, error) {
	in.ID = 0
	return call[int64](ctx, c, http.MethodPost, "/api/activity/tag/create", in, authRequired)
}

// UpdateActivityTag renames or recolours a tag.
func (c *Client) UpdateActivityTag(ctx context.Context, in ActivityTagInput) error {
	_, err := call[any](ctx, c, http.MethodPost, "/api/activity/tag/update", in, authRequired)
	return err
}

// DeleteActivityTag deletes a tag. Blocks that reference it keep the dangling id.
func (c *Client) DeleteActivityTag(ctx context.Context, id int64) error {
	_, err := call[any](ctx, c, http.MethodPost, "/api/activity/tag/delete", map[string]int64{"id": id}, authRequired)
	return err
}

// ActivityBlocks lists the blocks of one day (YYYY-MM-DD). Tags are referenced by id.
func (c *Client) ActivityBlocks(ctx context.Context, date string) ([]models.ActivityBlockRecord, error) {
	path := "/api/activity/block/listByDate?date=" + url.QueryEscape(date)
	blocks, err := call[[]models.ActivityBlockRecord](ctx, c, http.MethodGet, path, nil, authOptional)
	if blocks == nil {
		blocks = []models.ActivityBlockRecord{}
	}
	return blocks, err
}

// SaveActivityBlockInput creates a block, or updates it when ID is set.
type SaveActivityBlockInput struct {
	ID           int64   `json:"id,omitempty"`
	TagID        int64   `json:"tagId"`
	ActivityDate string  `json:"activityDate"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	Detail       *string `json:"detail"`
}

// SaveActivityBlock creates or updates a block and returns its id.
func (c *Client) SaveActivityBlock(ctx context.Context, in SaveActivityBlockInput) (int64, error) {
	return call[int64](ctx, c, http.MethodPost, "/api/activity/block/createOrUpdate", in, authRequired)
}

// DeleteActivityBlock deletes a block by id.
func (c *Client) DeleteActivityBlock(ctx context.Context, id int64) error {
	_, err := call[any](ctx, c, http.MethodPost, "/api/activity/block/delete", map[string]int64{"id": id}, authRequired)
	return err
}
