package views

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/dash/internal/dashboard"
	"github.com/tgienger/dash/internal/models"
	"github.com/tgienger/dash/internal/ui/styles"
)

const (
	actionSaveBlock   = "activity.block.save"
	actionDeleteBlock = "activity.block.delete"
	actionSaveTag     = "activity.tag.save"
	actionDeleteTag   = "activity.tag.delete"
)

type activityFocus int

const (
	focusBlocks activityFocus = iota
	focusTags
)

type activityMode int

const (
	activityBrowsing activityMode = iota
	activityEditingBlock
	activityEditingTag
	activityConfirmBlock
	activityConfirmTag
)

// ActivityView is the daily activity log.
type ActivityView struct {
	deps *Deps
	log  *dashboard.ActivityLog

	width  int
	height int

	focus     activityFocus
	mode      activityMode
	blockCur  int
	tagCur    int
	blockForm *form
	tagForm   *form
	editBlock int64 // zero while creating
	editTag   int64

	deleteBlock models.ActivityBlock
	deleteTag   models.ActivityTag
}

// NewActivityView creates the activity screen over log.
func NewActivityView(deps *Deps, log *dashboard.ActivityLog) *ActivityView {
	Watch(deps, log.Tags)
	Watch(deps, log.Blocks)
	return &ActivityView{
		deps: deps,
		log:  log,
		blockForm: newForm("New Activity", "Save", deps.Styles).
			input("Start (HH:mm)", "09:00", 8).
			input("End (HH:mm)", "10:30", 8).
			choice("Tag").
			area("Detail", "Optional notes", 500, 3),
		tagForm: newForm("New Tag", "Save", deps.Styles).
			input("Name", "Tag name", 50).
			input("Color", dashboard.DefaultTagColor, 7),
	}
}

func (v *ActivityView) Name() string  { return "activity" }
func (v *ActivityView) Title() string { return "Activity" }

func (v *ActivityView) Capturing() bool {
	return v.mode == activityEditingBlock || v.mode == activityEditingTag
}

func (v *ActivityView) Init() tea.Cmd {
	return refresh(v.deps.Ctx,
		func(ctx context.Context) { v.log.Tags.Load(ctx) },
		func(ctx context.Context) { v.log.Blocks.Load(ctx) },
	)
}

func (v *ActivityView) Reload() tea.Cmd {
	return refresh(v.deps.Ctx, reloadCell(v.log.Tags), reloadCell(v.log.Blocks))
}

func (v *ActivityView) canWrite() bool {
	return dashboard.Gate(v.deps.Session, dashboard.PermActivity, false) == dashboard.ControlEnabled
}

// blocks returns the day's joined blocks ordered by start time.
func (v *ActivityView) blocks() []models.ActivityBlock {
	blocks := v.log.View()
	slices.SortStableFunc(blocks, func(a, b models.ActivityBlock) int {
		return strings.Compare(a.StartTime, b.StartTime)
	})
	return blocks
}

func (v *ActivityView) tags() []models.ActivityTag { return v.log.Tags.Snapshot().Data }

func (v *ActivityView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.blockForm.setWidth(styles.ContentWidth(msg.Width))
		v.tagForm.setWidth(styles.ContentWidth(msg.Width))
		return v, nil

	case ActionDoneMsg:
		switch msg.Action {
		case actionSaveBlock, actionSaveTag:
			if msg.OK {
				v.mode = activityBrowsing
			}
		case actionDeleteBlock:
			v.blockCur = moveCursor(v.blockCur, 0, len(v.blocks()))
		case actionDeleteTag:
			v.tagCur = moveCursor(v.tagCur, 0, len(v.tags()))
		}
		return v, nil

	case tea.KeyMsg:
		switch v.mode {
		case activityEditingBlock:
			return v.updateBlockForm(msg)
		case activityEditingTag:
			return v.updateTagForm(msg)
		case activityConfirmBlock:
			if yes, decided := confirmKey(msg); decided {
				v.mode = activityBrowsing
				if yes {
					id := v.deleteBlock.ID
					return v, run(actionDeleteBlock, func() bool { return v.log.DeleteBlock(v.deps.Ctx, id) })
				}
			}
			return v, nil
		case activityConfirmTag:
			if yes, decided := confirmKey(msg); decided {
				v.mode = activityBrowsing
				if yes {
					id := v.deleteTag.ID
					return v, run(actionDeleteTag, func() bool { return v.log.DeleteTag(v.deps.Ctx, id) })
				}
			}
			return v, nil
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *ActivityView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := v.deps.Keys
	blocks := v.blocks()
	tags := v.tags()

	switch {
	case key.Matches(msg, km.Tab), key.Matches(msg, km.ShiftTab):
		if v.focus == focusBlocks {
			v.focus = focusTags
		} else {
			v.focus = focusBlocks
		}
		return v, nil
	case key.Matches(msg, km.Up):
		if v.focus == focusBlocks {
			v.blockCur = moveCursor(v.blockCur, -1, len(blocks))
		} else {
			v.tagCur = moveCursor(v.tagCur, -1, len(tags))
		}
		return v, nil
	case key.Matches(msg, km.Down):
		if v.focus == focusBlocks {
			v.blockCur = moveCursor(v.blockCur, 1, len(blocks))
		} else {
			v.tagCur = moveCursor(v.tagCur, 1, len(tags))
		}
		return v, nil
	case key.Matches(msg, km.Left):
		v.blockCur = 0
		return v, refresh(v.deps.Ctx, func(ctx context.Context) { v.log.ShiftDays(ctx, -1) })
	case key.Matches(msg, km.Right):
		v.blockCur = 0
		return v, refresh(v.deps.Ctx, func(ctx context.Context) { v.log.ShiftDays(ctx, 1) })
	case key.Matches(msg, km.Today):
		v.blockCur = 0
		return v, refresh(v.deps.Ctx, func(ctx context.Context) { v.log.SetDate(ctx, time.Now()) })
	case key.Matches(msg, km.Refresh):
		return v, v.Reload()
	}

	if !v.canWrite() {
		return v, nil
	}

	if v.focus == focusTags {
		switch {
		case key.Matches(msg, km.New):
			return v, v.startTag(nil)
		case key.Matches(msg, km.Edit):
			if v.tagCur < len(tags) {
				return v, v.startTag(&tags[v.tagCur])
			}
		case key.Matches(msg, km.Delete):
			if v.tagCur < len(tags) {
				v.log.DeleteTagOp.Reset()
				v.deleteTag = tags[v.tagCur]
				v.mode = activityConfirmTag
			}
		}
		return v, nil
	}

	switch {
	case key.Matches(msg, km.New):
		return v, v.startBlock(nil)
	case key.Matches(msg, km.Edit), key.Matches(msg, km.Enter):
		if v.blockCur < len(blocks) {
			return v, v.startBlock(&blocks[v.blockCur])
		}
	case key.Matches(msg, km.Delete):
		if v.blockCur < len(blocks) {
			v.log.DeleteBlockOp.Reset()
			v.deleteBlock = blocks[v.blockCur]
			v.mode = activityConfirmBlock
		}
	}
	return v, nil
}

func (v *ActivityView) startBlock(b *models.ActivityBlock) tea.Cmd {
	v.log.SaveBlockOp.Reset()
	v.blockForm.reset()
	tags := v.tags()
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}

	v.editBlock = 0
	v.blockForm.title = "New Activity"
	selected := 0
	if b != nil {
		v.editBlock = b.ID
		v.blockForm.title = "Edit Activity"
		v.blockForm.set(0, shortClock(b.StartTime))
		v.blockForm.set(1, shortClock(b.EndTime))
		v.blockForm.set(3, b.Detail)
		for i, t := range tags {
			if t.ID == b.Tag.ID {
				selected = i
			}
		}
	}
	v.blockForm.setChoices(2, names, selected)
	v.mode = activityEditingBlock
	return v.blockForm.open()
}

func (v *ActivityView) updateBlockForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	res, cmd := v.blockForm.update(msg, v.deps.Keys)
	switch res {
	case formCancelled:
		v.mode = activityBrowsing
		return v, nil
	case formSubmitted:
		in := dashboard.BlockInput{
			ID:        v.editBlock,
			StartTime: v.blockForm.value(0),
			EndTime:   v.blockForm.value(1),
			Detail:    v.blockForm.value(3),
		}
		if tags := v.tags(); len(tags) > 0 {
			in.TagID = tags[v.blockForm.chosen(2)].ID
		}
		return v, run(actionSaveBlock, func() bool { return v.log.SaveBlock(v.deps.Ctx, in) })
	}
	return v, cmd
}

func (v *ActivityView) startTag(t *models.ActivityTag) tea.Cmd {
	v.log.CreateTagOp.Reset()
	v.log.UpdateTagOp.Reset()
	v.tagForm.reset()
	v.editTag = 0
	v.tagForm.title = "New Tag"
	if t != nil {
		v.editTag = t.ID
		v.tagForm.title = "Edit Tag"
		v.tagForm.set(0, t.Name)
		v.tagForm.set(1, t.Color)
	}
	v.mode = activityEditingTag
	return v.tagForm.open()
}

func (v *ActivityView) updateTagForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	res, cmd := v.tagForm.update(msg, v.deps.Keys)
	switch res {
	case formCancelled:
		v.mode = activityBrowsing
		return v, nil
	case formSubmitted:
		name, color := v.tagForm.value(0), v.tagForm.value(1)
		if v.editTag == 0 {
			return v, run(actionSaveTag, func() bool { return v.log.CreateTag(v.deps.Ctx, name, color) })
		}
		tag := models.ActivityTag{ID: v.editTag, Name: name, Color: color}
		return v, run(actionSaveTag, func() bool { return v.log.UpdateTag(v.deps.Ctx, tag) })
	}
	return v, cmd
}

// View renders the view
func (v *ActivityView) View() string {
	s := v.deps.Styles
	switch v.mode {
	case activityEditingBlock:
		return v.blockForm.view(opStatus(s, v.log.SaveBlockOp), v.height)
	case activityEditingTag:
		return v.tagForm.view(opStatus(s, v.log.CreateTagOp, v.log.UpdateTagOp), v.height)
	case activityConfirmBlock:
		b := v.deleteBlock
		return confirmDelete(s, "Activity", shortClock(b.StartTime)+"–"+shortClock(b.EndTime)+" "+b.Tag.Name, v.width, v.height)
	case activityConfirmTag:
		return confirmDelete(s, "Tag", v.deleteTag.Name, v.width, v.height)
	}

	contentWidth := styles.ContentWidth(v.width)
	date := v.log.Date()
	header := s.Title.Render("Activity") + "  " + date.Format("Mon 2006-01-02")
	if y, m, d := time.Now().Date(); date.Equal(time.Date(y, m, d, 0, 0, 0, 0, time.Local)) {
		header += s.TitleMuted.Render("  today")
	}

	blocks := v.blocks()
	rows := []string{header, v.renderTimeline(blocks, contentWidth-2), ""}
	for _, line := range []string{
		cellStatus(s, v.log.Tags.Snapshot()),
		cellStatus(s, v.log.Blocks.Snapshot()),
		opStatus(s, v.log.DeleteBlockOp, v.log.DeleteTagOp),
	} {
		if line != "" {
			rows = append(rows, line)
		}
	}

	blockPane := v.renderBlocks(blocks)
	tagPane := v.renderTags()
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, blockPane, "  ", tagPane))

	if v.canWrite() {
		rows = append(rows, helpLine(s, "←/→", "day", "t", "today", "tab", "blocks/tags", "n", "new", "e", "edit", "d", "delete"))
	} else {
		rows = append(rows, helpLine(s, "←/→", "day", "t", "today", "r", "refresh"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *ActivityView) renderBlocks(blocks []models.ActivityBlock) string {
	s := v.deps.Styles
	st := s.Panel
	if v.focus == focusBlocks {
		st = st.BorderForeground(styles.Current.BorderFocus)
	}
	lines := []string{s.Title.Render("Blocks")}
	if len(blocks) == 0 && v.log.Blocks.Snapshot().Loaded {
		lines = append(lines, s.TitleMuted.Render("Nothing logged"))
	}
	for i, b := range blocks {
		row := shortClock(b.StartTime) + "–" + shortClock(b.EndTime) + " " + styles.Swatch(b.Tag.Color) + " " + b.Tag.Name
		if b.Detail != "" {
			row += s.TitleMuted.Render("  " + b.Detail)
		}
		if v.focus == focusBlocks && i == v.blockCur {
			row = s.RowSelected.Render(row)
		} else {
			row = s.Row.Render(row)
		}
		lines = append(lines, row)
	}
	return st.Width(max(styles.ContentWidth(v.width)*2/3, 30)).Render(strings.Join(lines, "\n"))
}

func (v *ActivityView) renderTags() string {
	s := v.deps.Styles
	st := s.Panel
	if v.focus == focusTags {
		st = st.BorderForeground(styles.Current.BorderFocus)
	}
	lines := []string{s.Title.Render("Tags")}
	for i, t := range v.tags() {
		row := styles.Swatch(t.Color) + " " + t.Name
		if v.focus == focusTags && i == v.tagCur {
			row = s.RowSelected.Render(row)
		} else {
			row = s.Row.Render(row)
		}
		lines = append(lines, row)
	}
	return st.Render(strings.Join(lines, "\n"))
}

// renderTimeline draws the day as a bar of width cells, each colored by the
// block covering it.
func (v *ActivityView) renderTimeline(blocks []models.ActivityBlock, width int) string {
	width = max(width, 24)
	const day = 24 * 60
	var b strings.Builder
	for cell := 0; cell < width; cell++ {
		minute := cell * day / width
		glyph := lipgloss.NewStyle().Foreground(styles.Current.Border).Render("·")
		for _, blk := range blocks {
			start, ok1 := clockMinutes(blk.StartTime)
			end, ok2 := clockMinutes(blk.EndTime)
			if ok1 && ok2 && minute >= start && minute < end {
				glyph = styles.Swatch(blk.Tag.Color)
				break
			}
		}
		b.WriteString(glyph)
	}
	return b.String()
}

// shortClock trims seconds from HH:mm:ss.
func shortClock(v string) string {
	if len(v) > 5 {
		return v[:5]
	}
	return v
}

func clockMinutes(v string) (int, bool) {
	t, err := time.Parse("15:04", shortClock(v))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
