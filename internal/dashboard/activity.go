package dashboard

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/cache"
	"github.com/tgienger/dash/internal/models"
)

// DefaultTagColor is preselected when creating an activity tag.
const DefaultTagColor = "#3b82f6"

// NewActivityTagCell creates the activity tag cache. One instance is shared
// by every screen that shows activity tags.
func NewActivityTagCell(client *api.Client, logger *slog.Logger) *cache.Cell[[]models.ActivityTag] {
	return cache.New("activity.tags", client.ActivityTags, cache.WithLogger(logger.With("cell", "activity.tags")))
}

// ActivityLog is the per-day activity screen.
type ActivityLog struct {
	Tags   *cache.Cell[[]models.ActivityTag]
	Blocks *cache.Cell[[]models.ActivityBlockRecord]

	CreateTagOp   *Mutation[api.ActivityTagInput]
	UpdateTagOp   *Mutation[api.ActivityTagInput]
	DeleteTagOp   *Mutation[int64]
	SaveBlockOp   *Mutation[api.SaveActivityBlockInput]
	DeleteBlockOp *Mutation[int64]

	mu   sync.Mutex
	date time.Time
}

// NewActivityLog wires the activity screen to client, sharing tags.
func NewActivityLog(client *api.Client, tags *cache.Cell[[]models.ActivityTag], logger *slog.Logger) *ActivityLog {
	log := logger.With("screen", "activity")
	a := &ActivityLog{Tags: tags, date: today()}

	a.Blocks = cache.New("activity.blocks", func(ctx context.Context) ([]models.ActivityBlockRecord, error) {
		return client.ActivityBlocks(ctx, a.DateString())
	}, cache.WithLogger(log))

	validateTag := func(in api.ActivityTagInput) string {
		if msg := required("tag name", in.Name); msg != "" {
			return msg
		}
		if !hexColor.MatchString(in.Color) {
			return "color must look like #RRGGBB"
		}
		return ""
	}

	a.CreateTagOp = NewMutation("create activity tag", "create tag failed",
		func(ctx context.Context, in api.ActivityTagInput) error {
			_, err := client.CreateActivityTag(ctx, in)
			return err
		}, log).Validate(validateTag)
	a.UpdateTagOp = NewMutation("update activity tag", "update tag failed", client.UpdateActivityTag, log).
		Validate(validateTag)
	a.DeleteTagOp = NewMutation("delete activity tag", "delete tag failed", client.DeleteActivityTag, log)

	a.SaveBlockOp = NewMutation("save activity block", "save activity failed",
		func(ctx context.Context, in api.SaveActivityBlockInput) error {
			_, err := client.SaveActivityBlock(ctx, in)
			return err
		}, log).Validate(validateBlock)
	a.DeleteBlockOp = NewMutation("delete activity block", "delete activity failed", client.DeleteActivityBlock, log)
	return a
}

func validateBlock(in api.SaveActivityBlockInput) string {
	if in.TagID == 0 {
		return "select a tag"
	}
	start, ok := clockSeconds(in.StartTime)
	if !ok {
		return "start time must be HH:mm"
	}
	end, ok := clockSeconds(in.EndTime)
	if !ok {
		return "end time must be HH:mm"
	}
	if end <= start {
		return "end time must be after start time"
	}
	return ""
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// Date is the day being shown.
func (a *ActivityLog) Date() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.date
}

// DateString is the day being shown as YYYY-MM-DD.
func (a *ActivityLog) DateString() string {
	return a.Date().Format(time.DateOnly)
}

// SetDate switches to day and reloads its blocks.
func (a *ActivityLog) SetDate(ctx context.Context, day time.Time) {
	y, m, d := day.Date()
	a.mu.Lock()
	a.date = time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	a.mu.Unlock()
	a.Blocks.Refresh(ctx)
}

// ShiftDays moves the shown day by n days.
func (a *ActivityLog) ShiftDays(ctx context.Context, n int) {
	a.SetDate(ctx, a.Date().AddDate(0, 0, n))
}

// View joins the loaded blocks with the loaded tags. Blocks whose tag is
// unknown get a placeholder tag.
func (a *ActivityLog) View() []models.ActivityBlock {
	records := a.Blocks.Snapshot().Data
	tags := cache.IndexTags(a.Tags.Snapshot().Data)
	return cache.JoinBlocks(records, tags)
}

// Block returns the joined block with id.
func (a *ActivityLog) Block(id int64) (models.ActivityBlock, bool) {
	for _, b := range a.View() {
		if b.ID == id {
			return b, true
		}
	}
	return models.ActivityBlock{}, false
}

// CreateTag adds a tag and reloads the shared tag list.
func (a *ActivityLog) CreateTag(ctx context.Context, name, color string) bool {
	if color == "" {
		color = DefaultTagColor
	}
	if !a.CreateTagOp.Run(ctx, api.ActivityTagInput{Name: strings.TrimSpace(name), Color: color}) {
		return false
	}
	a.Tags.Refresh(ctx)
	return true
}

// UpdateTag renames or recolours a tag.
func (a *ActivityLog) UpdateTag(ctx context.Context, tag models.ActivityTag) bool {
	in := api.ActivityTagInput{ID: tag.ID, Name: strings.TrimSpace(tag.Name), Color: tag.Color}
	if !a.UpdateTagOp.Run(ctx, in) {
		return false
	}
	a.Tags.Refresh(ctx)
	return true
}

// DeleteTag removes a tag. Blocks that used it fall back to the placeholder.
func (a *ActivityLog) DeleteTag(ctx context.Context, id int64) bool {
	if !a.DeleteTagOp.Run(ctx, id) {
		return false
	}
	a.Tags.Refresh(ctx)
	return true
}

// BlockInput describes a block being created (ID zero) or edited.
type BlockInput struct {
	ID        int64
	TagID     int64
	StartTime string
	EndTime   string
	Detail    string
}

// SaveBlock creates or updates a block on the shown day.
func (a *ActivityLog) SaveBlock(ctx context.Context, in BlockInput) bool {
	req := api.SaveActivityBlockInput{
		ID:           in.ID,
		TagID:        in.TagID,
		ActivityDate: a.DateString(),
		StartTime:    strings.TrimSpace(in.StartTime),
		EndTime:      strings.TrimSpace(in.EndTime),
	}
	if d := strings.TrimSpace(in.Detail); d != "" {
		req.Detail = &d
	}
	if !a.SaveBlockOp.Run(ctx, req) {
		return false
	}
	a.Blocks.Refresh(ctx)
	return true
}

// DeleteBlock removes a block and reloads the day.
func (a *ActivityLog) DeleteBlock(ctx context.Context, id int64) bool {
	if !a.DeleteBlockOp.Run(ctx, id) {
		return false
	}
	a.Blocks.Refresh(ctx)
	return true
}
