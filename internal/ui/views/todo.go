package views

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/dashboard"
	"github.com/tgienger/dash/internal/models"
	"github.com/tgienger/dash/internal/ui/styles"
)

const (
	actionSaveTodo      = "todo.save"
	actionToggleTodo    = "todo.toggle"
	actionDeleteTodo    = "todo.delete"
	actionCreateTodoTag = "todo.tag.create"
	actionDeleteTodoTag = "todo.tag.delete"
)

type todoMode int

const (
	todoBrowsing todoMode = iota
	todoEditingItem
	todoCreatingTag
	todoConfirmItem
	todoConfirmTag
)

// TodoView shows todo items filtered by tag.
type TodoView struct {
	deps  *Deps
	board *dashboard.TodoBoard

	width  int
	height int
	cursor int
	mode   todoMode

	itemForm *form
	tagForm  *form
	editing  *models.TodoItem // nil while creating

	deleteItem models.TodoItem
	deleteTag  models.TodoTag
}

// NewTodoView creates the todo screen over board.
func NewTodoView(deps *Deps, board *dashboard.TodoBoard) *TodoView {
	Watch(deps, board.Tags)
	Watch(deps, board.Items)
	return &TodoView{
		deps:  deps,
		board: board,
		itemForm: newForm("New Todo", "Save", deps.Styles).
			input("Content", "What needs doing?", 500).
			choice("Tag"),
		tagForm: newForm("New Tag", "Create", deps.Styles).
			input("Name", "Tag name", 50),
	}
}

func (v *TodoView) Name() string  { return "todo" }
func (v *TodoView) Title() string { return "Todo" }

func (v *TodoView) Capturing() bool {
	return v.mode == todoEditingItem || v.mode == todoCreatingTag
}

func (v *TodoView) Init() tea.Cmd {
	return refresh(v.deps.Ctx,
		func(ctx context.Context) { v.board.Tags.Load(ctx) },
		func(ctx context.Context) { v.board.Items.Load(ctx) },
	)
}

func (v *TodoView) Reload() tea.Cmd {
	return refresh(v.deps.Ctx, v.board.RefreshAll)
}

func (v *TodoView) canWrite() bool {
	return dashboard.Gate(v.deps.Session, dashboard.PermTodo, false) == dashboard.ControlEnabled
}

func (v *TodoView) items() []models.TodoItem { return v.board.Items.Snapshot().Data }
func (v *TodoView) tags() []models.TodoTag   { return v.board.Tags.Snapshot().Data }

// filterIndex is the position of the selected tag in the filter bar, 0 for "All".
func (v *TodoView) filterIndex() int {
	sel := v.board.SelectedTag()
	if sel == nil {
		return 0
	}
	for i, t := range v.tags() {
		if t.ID == *sel {
			return i + 1
		}
	}
	return 0
}

func (v *TodoView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.itemForm.setWidth(styles.ContentWidth(msg.Width))
		v.tagForm.setWidth(styles.ContentWidth(msg.Width))
		return v, nil

	case ActionDoneMsg:
		switch msg.Action {
		case actionSaveTodo:
			if msg.OK {
				v.mode = todoBrowsing
			}
		case actionCreateTodoTag:
			if msg.OK {
				v.mode = todoBrowsing
			}
		case actionDeleteTodo, actionDeleteTodoTag:
			v.cursor = moveCursor(v.cursor, 0, len(v.items()))
		}
		return v, nil

	case tea.KeyMsg:
		switch v.mode {
		case todoEditingItem:
			return v.updateItemForm(msg)
		case todoCreatingTag:
			return v.updateTagForm(msg)
		case todoConfirmItem:
			if yes, decided := confirmKey(msg); decided {
				v.mode = todoBrowsing
				if yes {
					id := v.deleteItem.ID
					return v, run(actionDeleteTodo, func() bool { return v.board.DeleteItem(v.deps.Ctx, id) })
				}
			}
			return v, nil
		case todoConfirmTag:
			if yes, decided := confirmKey(msg); decided {
				v.mode = todoBrowsing
				if yes {
					id := v.deleteTag.ID
					return v, run(actionDeleteTodoTag, func() bool { return v.board.DeleteTag(v.deps.Ctx, id) })
				}
			}
			return v, nil
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *TodoView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := v.deps.Keys
	items := v.items()

	switch {
	case key.Matches(msg, km.Up):
		v.cursor = moveCursor(v.cursor, -1, len(items))
	case key.Matches(msg, km.Down):
		v.cursor = moveCursor(v.cursor, 1, len(items))
	case key.Matches(msg, km.Left), key.Matches(msg, km.Right):
		delta := 1
		if key.Matches(msg, km.Left) {
			delta = -1
		}
		return v, v.cycleFilter(delta)
	case key.Matches(msg, km.Refresh):
		return v, v.Reload()
	}

	if !v.canWrite() {
		return v, nil
	}

	switch {
	case key.Matches(msg, km.Toggle):
		if v.cursor < len(items) {
			item := items[v.cursor]
			return v, run(actionToggleTodo, func() bool { return v.board.ToggleComplete(v.deps.Ctx, item) })
		}
	case key.Matches(msg, km.New):
		return v, v.startItem(nil)
	case key.Matches(msg, km.Edit):
		if v.cursor < len(items) {
			item := items[v.cursor]
			return v, v.startItem(&item)
		}
	case key.Matches(msg, km.Delete):
		if v.cursor < len(items) {
			v.board.DeleteItemOp.Reset()
			v.deleteItem = items[v.cursor]
			v.mode = todoConfirmItem
		}
	case key.Matches(msg, km.NewTag):
		v.board.CreateTagOp.Reset()
		v.tagForm.reset()
		v.mode = todoCreatingTag
		return v, v.tagForm.open()
	case key.Matches(msg, km.DeleteTag):
		if i := v.filterIndex(); i > 0 {
			v.board.DeleteTagOp.Reset()
			v.deleteTag = v.tags()[i-1]
			v.mode = todoConfirmTag
		}
	}
	return v, nil
}

func (v *TodoView) cycleFilter(delta int) tea.Cmd {
	tags := v.tags()
	n := len(tags) + 1
	next := (v.filterIndex() + delta + n) % n
	var tagID *int64
	if next > 0 {
		id := tags[next-1].ID
		tagID = &id
	}
	v.cursor = 0
	return refresh(v.deps.Ctx, func(ctx context.Context) { v.board.SelectTag(ctx, tagID) })
}

// tagChoices lists "(none)" followed by the tag names.
func (v *TodoView) tagChoices() []string {
	names := []string{"(none)"}
	for _, t := range v.tags() {
		names = append(names, t.Name)
	}
	return names
}

func (v *TodoView) startItem(item *models.TodoItem) tea.Cmd {
	v.board.CreateItemOp.Reset()
	v.board.UpdateItemOp.Reset()
	v.itemForm.reset()
	v.editing = item

	selected := v.filterIndex()
	v.itemForm.title = "New Todo"
	if item != nil {
		v.itemForm.title = "Edit Todo"
		v.itemForm.set(0, item.Content)
		selected = 0
		for i, t := range v.tags() {
			if item.TagID != nil && t.ID == *item.TagID {
				selected = i + 1
			}
		}
	}
	v.itemForm.setChoices(1, v.tagChoices(), selected)
	v.mode = todoEditingItem
	return v.itemForm.open()
}

func (v *TodoView) updateItemForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	res, cmd := v.itemForm.update(msg, v.deps.Keys)
	switch res {
	case formCancelled:
		v.mode = todoBrowsing
		return v, nil
	case formSubmitted:
		content := v.itemForm.value(0)
		var tagID *int64
		if i := v.itemForm.chosen(1); i > 0 && i <= len(v.tags()) {
			id := v.tags()[i-1].ID
			tagID = &id
		}
		if v.editing == nil {
			return v, run(actionSaveTodo, func() bool { return v.board.CreateItem(v.deps.Ctx, content, tagID) })
		}
		in := api.UpdateTodoItemInput{ID: v.editing.ID, Content: &content, TagID: tagID, ClearTag: tagID == nil}
		return v, run(actionSaveTodo, func() bool { return v.board.UpdateItem(v.deps.Ctx, in) })
	}
	return v, cmd
}

func (v *TodoView) updateTagForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	res, cmd := v.tagForm.update(msg, v.deps.Keys)
	switch res {
	case formCancelled:
		v.mode = todoBrowsing
		return v, nil
	case formSubmitted:
		name := v.tagForm.value(0)
		return v, run(actionCreateTodoTag, func() bool { return v.board.CreateTag(v.deps.Ctx, name) })
	}
	return v, cmd
}

// View renders the view
func (v *TodoView) View() string {
	s := v.deps.Styles
	switch v.mode {
	case todoEditingItem:
		return v.itemForm.view(opStatus(s, v.board.CreateItemOp, v.board.UpdateItemOp), v.height)
	case todoCreatingTag:
		return v.tagForm.view(opStatus(s, v.board.CreateTagOp), v.height)
	case todoConfirmItem:
		return confirmDelete(s, "Todo", v.deleteItem.Content, v.width, v.height)
	case todoConfirmTag:
		return confirmDelete(s, "Tag", v.deleteTag.Name+" (items keep their text)", v.width, v.height)
	}

	contentWidth := styles.ContentWidth(v.width)
	tagState := v.board.Tags.Snapshot()
	itemState := v.board.Items.Snapshot()

	rows := []string{s.Title.Render("Todo"), v.renderFilter(tagState.Data)}
	for _, line := range []string{
		cellStatus(s, tagState),
		cellStatus(s, itemState),
		opStatus(s, v.board.UpdateItemOp, v.board.DeleteItemOp, v.board.DeleteTagOp),
	} {
		if line != "" {
			rows = append(rows, line)
		}
	}

	if itemState.Loaded && len(itemState.Data) == 0 {
		rows = append(rows, s.TitleMuted.Render("Nothing to do"))
	}
	for i, item := range itemState.Data {
		rows = append(rows, v.renderItem(item, i == v.cursor, contentWidth))
	}

	if v.canWrite() {
		rows = append(rows, helpLine(s, "←/→", "filter", "space", "done", "n", "new", "e", "edit", "d", "delete", "T", "new tag", "D", "delete tag"))
	} else {
		rows = append(rows, helpLine(s, "←/→", "filter", "r", "refresh"), s.TitleMuted.Render("  read-only"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *TodoView) renderFilter(tags []models.TodoTag) string {
	s := v.deps.Styles
	selected := v.filterIndex()
	parts := []string{}
	label := func(i int, name string) string {
		if i == selected {
			return s.TagActive.Render(name)
		}
		return s.Tag.Render(name)
	}
	parts = append(parts, label(0, "All"))
	for i, t := range tags {
		parts = append(parts, label(i+1, t.Name))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...) + "\n"
}

func (v *TodoView) renderItem(item models.TodoItem, selected bool, width int) string {
	s := v.deps.Styles
	box := "[ ] "
	rowStyle := s.Row
	if item.Completed {
		box = "[x] "
		rowStyle = s.RowDone
	}
	if selected {
		rowStyle = s.RowSelected
	}
	line := rowStyle.Render(box + item.Content)
	if item.TagName != nil && *item.TagName != "" {
		line += " " + styles.Badge(*item.TagName, string(styles.Current.Secondary))
	}
	return lipgloss.NewStyle().MaxWidth(max(width, 20)).Render(line)
}
