package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/dash/internal/dashboard"
	"github.com/tgienger/dash/internal/models"
	"github.com/tgienger/dash/internal/ui/markdown"
	"github.com/tgienger/dash/internal/ui/styles"
)

const (
	actionCreateNotice = "notice.create"
	actionDeleteNotice = "notice.delete"
)

// NoticesView lists announcements and opens them for reading.
type NoticesView struct {
	deps  *Deps
	board *dashboard.NoticeBoard

	width  int
	height int
	cursor int

	reading bool
	reader  viewport.Model

	creating bool
	editor   *form
	hint     string

	confirmingDelete bool
	deleteTarget     models.Notice
}

// NewNoticesView creates the notice screen over board.
func NewNoticesView(deps *Deps, board *dashboard.NoticeBoard) *NoticesView {
	Watch(deps, board.Page)
	editor := newForm("New Notice", "Publish", deps.Styles).
		input("Title", "Notice title", 200).
		area("Content (Markdown)", "What's new?", 5000, 8)
	return &NoticesView{
		deps:   deps,
		board:  board,
		reader: viewport.New(0, 0),
		editor: editor,
	}
}

func (v *NoticesView) Name() string  { return "notices" }
func (v *NoticesView) Title() string { return "Notices" }

func (v *NoticesView) Capturing() bool { return v.creating }

func (v *NoticesView) Init() tea.Cmd {
	return refresh(v.deps.Ctx, func(ctx context.Context) { v.board.Page.Load(ctx) })
}

func (v *NoticesView) Reload() tea.Cmd {
	return refresh(v.deps.Ctx, reloadCell(v.board.Page))
}

func (v *NoticesView) notices() []models.Notice {
	return v.board.Page.Snapshot().Data.List
}

func (v *NoticesView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.reader.Width = contentWidth - 2
		v.reader.Height = max(msg.Height-6, 3)
		v.editor.setWidth(contentWidth)
		return v, nil

	case ActionDoneMsg:
		switch msg.Action {
		case actionCreateNotice:
			if msg.OK {
				v.creating = false
				v.cursor = 0
			}
		case actionDeleteNotice:
			v.cursor = moveCursor(v.cursor, 0, len(v.notices()))
		}
		return v, nil

	case tea.KeyMsg:
		if v.confirmingDelete {
			if yes, decided := confirmKey(msg); decided {
				v.confirmingDelete = false
				if yes {
					id := v.deleteTarget.ID
					return v, run(actionDeleteNotice, func() bool { return v.board.Delete(v.deps.Ctx, id) })
				}
			}
			return v, nil
		}
		if v.creating {
			return v.updateCreating(msg)
		}
		if v.reading {
			return v.updateReading(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *NoticesView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := v.deps.Keys
	notices := v.notices()
	v.hint = ""

	switch {
	case key.Matches(msg, km.Up):
		v.cursor = moveCursor(v.cursor, -1, len(notices))
	case key.Matches(msg, km.Down):
		v.cursor = moveCursor(v.cursor, 1, len(notices))
	case key.Matches(msg, km.Left):
		v.cursor = 0
		return v, refresh(v.deps.Ctx, v.board.PrevPage)
	case key.Matches(msg, km.Right):
		v.cursor = 0
		return v, refresh(v.deps.Ctx, v.board.NextPage)
	case key.Matches(msg, km.Refresh):
		return v, v.Reload()
	case key.Matches(msg, km.Enter):
		if v.cursor < len(notices) {
			v.open(notices[v.cursor])
		}
	case key.Matches(msg, km.New):
		switch dashboard.Gate(v.deps.Session, dashboard.PermNoticeCreate, true) {
		case dashboard.ControlEnabled:
			v.board.CreateOp.Reset()
			v.editor.reset()
			v.creating = true
			return v, v.editor.open()
		case dashboard.ControlDisabled:
			v.hint = "Log in to publish notices"
		}
	case key.Matches(msg, km.Delete):
		if v.deps.Session.IsAuthenticated() && v.cursor < len(notices) {
			v.board.DeleteOp.Reset()
			v.deleteTarget = notices[v.cursor]
			v.confirmingDelete = true
		}
	}
	return v, nil
}

func (v *NoticesView) open(n models.Notice) {
	body := markdown.Render(n.Content, v.reader.Width)
	header := v.deps.Styles.Title.Render(n.Title) + "\n" +
		v.deps.Styles.TitleMuted.Render(dashboard.FormatDatetime(n.CreateTime)) + "\n\n"
	v.reader.SetContent(header + body)
	v.reader.GotoTop()
	v.reading = true
}

func (v *NoticesView) updateReading(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, v.deps.Keys.Back) || key.Matches(msg, v.deps.Keys.Enter) {
		v.reading = false
		return v, nil
	}
	var cmd tea.Cmd
	v.reader, cmd = v.reader.Update(msg)
	return v, cmd
}

func (v *NoticesView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	res, cmd := v.editor.update(msg, v.deps.Keys)
	switch res {
	case formCancelled:
		v.creating = false
		return v, nil
	case formSubmitted:
		title, content := v.editor.value(0), v.editor.value(1)
		return v, run(actionCreateNotice, func() bool { return v.board.Create(v.deps.Ctx, title, content) })
	}
	return v, cmd
}

// View renders the view
func (v *NoticesView) View() string {
	s := v.deps.Styles
	switch {
	case v.confirmingDelete:
		return confirmDelete(s, "Notice", v.deleteTarget.Title, v.width, v.height)
	case v.creating:
		return v.editor.view(opStatus(s, v.board.CreateOp), v.height)
	case v.reading:
		return v.reader.View() + "\n" + helpLine(s, "↑/↓", "scroll", "esc", "back")
	}

	contentWidth := styles.ContentWidth(v.width)
	st := v.board.Page.Snapshot()

	header := s.Title.Render("Notices") + "  " +
		s.TitleMuted.Render(fmt.Sprintf("page %d/%d", v.board.PageNum(), v.board.TotalPages()))
	switch dashboard.Gate(v.deps.Session, dashboard.PermNoticeCreate, true) {
	case dashboard.ControlEnabled:
		header += "  " + s.HelpKey.Render("n") + s.TitleMuted.Render(" new")
	case dashboard.ControlDisabled:
		header += "  " + s.TitleMuted.Render("(log in to publish)")
	}

	rows := []string{header, ""}
	if line := cellStatus(s, st); line != "" {
		rows = append(rows, line)
	}
	if status := opStatus(s, v.board.DeleteOp); status != "" {
		rows = append(rows, status)
	}
	if v.hint != "" {
		rows = append(rows, s.Warning.Render(v.hint))
	}

	notices := st.Data.List
	if st.Loaded && len(notices) == 0 {
		rows = append(rows, s.TitleMuted.Render("No notices yet"))
	}
	for i, n := range notices {
		rows = append(rows, v.renderNotice(n, i == v.cursor, contentWidth))
	}

	rows = append(rows, helpLine(s, "↵", "read", "←/→", "page", "n", "new", "d", "delete", "r", "refresh"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *NoticesView) renderNotice(n models.Notice, selected bool, width int) string {
	s := v.deps.Styles
	rowStyle := s.Row
	if selected {
		rowStyle = s.RowSelected
	}
	width = max(width-4, 20)
	inner := width - 2
	when := relativeTime(n.CreateTime)
	title := n.Title
	if room := inner - len([]rune(when)) - 1; len([]rune(title)) > room && room > 1 {
		title = string([]rune(title)[:room-1]) + "…"
	}
	gap := max(inner-lipgloss.Width(title)-lipgloss.Width(when), 1)
	line := title + strings.Repeat(" ", gap) + s.TitleMuted.Render(when)
	excerpt := s.TitleMuted.Render(markdown.Excerpt(n.Content, inner))
	return rowStyle.Width(width).Render(line) + "\n" + s.Row.Render(excerpt)
}
