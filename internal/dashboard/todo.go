package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/cache"
	"github.com/tgienger/dash/internal/models"
)

// TodoBoard is the todo widget: a tag filter over a list of items.
type TodoBoard struct {
	Tags  *cache.Cell[[]models.TodoTag]
	Items *cache.Cell[[]models.TodoItem]

	CreateTagOp  *Mutation[api.CreateTodoTagInput]
	DeleteTagOp  *Mutation[int64]
	CreateItemOp *Mutation[api.CreateTodoItemInput]
	UpdateItemOp *Mutation[api.UpdateTodoItemInput]
	DeleteItemOp *Mutation[int64]

	mu       sync.Mutex
	selected *int64
}

// NewTodoBoard wires the todo widget to client.
func NewTodoBoard(client *api.Client, logger *slog.Logger) *TodoBoard {
	log := logger.With("screen", "todo")
	b := &TodoBoard{}

	b.Tags = cache.New("todo.tags", client.TodoTags, cache.WithLogger(log))
	b.Items = cache.New("todo.items", func(ctx context.Context) ([]models.TodoItem, error) {
		return client.TodoItems(ctx, b.SelectedTag())
	}, cache.WithLogger(log))

	b.CreateTagOp = NewMutation("create todo tag", "create tag failed",
		func(ctx context.Context, in api.CreateTodoTagInput) error {
			_, err := client.CreateTodoTag(ctx, in)
			return err
		}, log).
		Validate(func(in api.CreateTodoTagInput) string { return required("tag name", in.Name) })

	b.DeleteTagOp = NewMutation("delete todo tag", "delete tag failed", client.DeleteTodoTag, log)

	b.CreateItemOp = NewMutation("create todo item", "create todo failed",
		func(ctx context.Context, in api.CreateTodoItemInput) error {
			_, err := client.CreateTodoItem(ctx, in)
			return err
		}, log).
		Validate(func(in api.CreateTodoItemInput) string { return required("content", in.Content) })

	b.UpdateItemOp = NewMutation("update todo item", "update todo failed", client.UpdateTodoItem, log).
		Validate(func(in api.UpdateTodoItemInput) string {
			if in.Content != nil {
				return required("content", *in.Content)
			}
			return ""
		})

	b.DeleteItemOp = NewMutation("delete todo item", "delete todo failed", client.DeleteTodoItem, log)
	return b
}

// SelectedTag returns the tag filter, nil for all items.
func (b *TodoBoard) SelectedTag() *int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.selected == nil {
		return nil
	}
	id := *b.selected
	return &id
}

// SelectTag changes the filter and reloads the items.
func (b *TodoBoard) SelectTag(ctx context.Context, tagID *int64) {
	b.mu.Lock()
	if tagID != nil {
		id := *tagID
		tagID = &id
	}
	b.selected = tagID
	b.mu.Unlock()
	b.RefreshItems(ctx)
}

// CreateTag creates a tag and reloads the tag list.
func (b *TodoBoard) CreateTag(ctx context.Context, name string) bool {
	if !b.CreateTagOp.Run(ctx, api.CreateTodoTagInput{Name: name}) {
		return false
	}
	b.Tags.Refresh(ctx)
	return true
}

// DeleteTag deletes a tag. Items lose their tag name, so both lists reload;
// a filter pointing at the deleted tag is cleared first.
func (b *TodoBoard) DeleteTag(ctx context.Context, id int64) bool {
	if !b.DeleteTagOp.Run(ctx, id) {
		return false
	}
	b.mu.Lock()
	if b.selected != nil && *b.selected == id {
		b.selected = nil
	}
	b.mu.Unlock()
	b.RefreshAll(ctx)
	return true
}

// CreateItem adds an item, optionally tagged, and reloads the items.
func (b *TodoBoard) CreateItem(ctx context.Context, content string, tagID *int64) bool {
	if !b.CreateItemOp.Run(ctx, api.CreateTodoItemInput{Content: content, TagID: tagID}) {
		return false
	}
	b.RefreshItems(ctx)
	return true
}

// UpdateItem applies a partial update and reloads the items.
func (b *TodoBoard) UpdateItem(ctx context.Context, in api.UpdateTodoItemInput) bool {
	if !b.UpdateItemOp.Run(ctx, in) {
		return false
	}
	b.RefreshItems(ctx)
	return true
}

// ToggleComplete flips the completion flag of item.
func (b *TodoBoard) ToggleComplete(ctx context.Context, item models.TodoItem) bool {
	done := !item.Completed
	return b.UpdateItem(ctx, api.UpdateTodoItemInput{ID: item.ID, Completed: &done})
}

// DeleteItem deletes an item and reloads the items.
func (b *TodoBoard) DeleteItem(ctx context.Context, id int64) bool {
	if !b.DeleteItemOp.Run(ctx, id) {
		return false
	}
	b.RefreshItems(ctx)
	return true
}

// RefreshItems reloads the item list.
func (b *TodoBoard) RefreshItems(ctx context.Context) {
	b.Items.Refresh(ctx)
}

// RefreshAll reloads tags and items concurrently.
func (b *TodoBoard) RefreshAll(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error { _, err := b.Tags.Refresh(ctx); return err })
	g.Go(func() error { _, err := b.Items.Refresh(ctx); return err })
	_ = g.Wait()
}
