package views

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/dashboard"
	"github.com/tgienger/dash/internal/ui/styles"
)

const (
	actionAssign         = "access.assign"
	actionSaveRole       = "access.role.save"
	actionSavePermission = "access.permission.save"
)

type accessPane int

const (
	paneUsers accessPane = iota
	paneRoles
	panePermissions
)

var paneTitles = []string{"Users", "Roles", "Permissions"}

// assignLoadedMsg carries the current assignment of a user or role.
type assignLoadedMsg struct {
	pane    accessPane
	ownerID int64
	ids     []int64
	err     error
}

type checkItem struct {
	id    int64
	label string
}

// AccessView manages users, roles and permissions.
type AccessView struct {
	deps *Deps
	ac   *dashboard.AccessControl

	width  int
	height int

	pane    accessPane
	cursors [3]int

	// assignment checklist
	assigning   bool
	assignPane  accessPane
	assignOwner string
	assignID    int64
	assignItems []checkItem
	assignSel   []int64
	assignCur   int
	assignErr   error

	editing  bool
	editID   int64
	roleForm *form
	permForm *form
}

// NewAccessView creates the access management screen over ac.
func NewAccessView(deps *Deps, ac *dashboard.AccessControl) *AccessView {
	Watch(deps, ac.Users)
	Watch(deps, ac.Roles)
	Watch(deps, ac.Permissions)
	return &AccessView{
		deps: deps,
		ac:   ac,
		roleForm: newForm("New Role", "Save", deps.Styles).
			input("Code", "ROLE_EDITOR", 64).
			input("Name", "Editor", 64).
			choice("Status", "Enabled", "Disabled"),
		permForm: newForm("New Permission", "Save", deps.Styles).
			input("Code", "PERM_SOMETHING", 64).
			input("Name", "Something", 64),
	}
}

func (v *AccessView) Name() string  { return "access" }
func (v *AccessView) Title() string { return "Access" }

func (v *AccessView) Capturing() bool { return v.editing }

func (v *AccessView) Init() tea.Cmd {
	return refresh(v.deps.Ctx,
		func(ctx context.Context) { v.ac.Users.Load(ctx) },
		func(ctx context.Context) { v.ac.Roles.Load(ctx) },
		func(ctx context.Context) { v.ac.Permissions.Load(ctx) },
	)
}

func (v *AccessView) Reload() tea.Cmd {
	v.ac.RoleCodes.ClearAll()
	v.ac.PermissionCodes.ClearAll()
	return refresh(v.deps.Ctx, reloadCell(v.ac.Users), reloadCell(v.ac.Roles), reloadCell(v.ac.Permissions))
}

func (v *AccessView) rowCount() int {
	switch v.pane {
	case paneUsers:
		return len(v.ac.Users.Snapshot().Data)
	case paneRoles:
		return len(v.ac.Roles.Snapshot().Data)
	}
	return len(v.ac.Permissions.Snapshot().Data)
}

func (v *AccessView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.roleForm.setWidth(styles.ContentWidth(msg.Width))
		v.permForm.setWidth(styles.ContentWidth(msg.Width))
		return v, nil

	case assignLoadedMsg:
		if !v.assigning || msg.pane != v.assignPane || msg.ownerID != v.assignID {
			return v, nil
		}
		v.assignErr = msg.err
		v.assignSel = msg.ids
		return v, nil

	case ActionDoneMsg:
		switch msg.Action {
		case actionAssign:
			if msg.OK {
				v.assigning = false
			}
		case actionSaveRole, actionSavePermission:
			if msg.OK {
				v.editing = false
			}
		}
		return v, nil

	case tea.KeyMsg:
		if v.editing {
			return v.updateForm(msg)
		}
		if v.assigning {
			return v.updateAssign(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *AccessView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := v.deps.Keys
	cur := &v.cursors[v.pane]

	switch {
	case key.Matches(msg, km.Tab), key.Matches(msg, km.Right):
		v.pane = (v.pane + 1) % 3
	case key.Matches(msg, km.ShiftTab), key.Matches(msg, km.Left):
		v.pane = (v.pane + 2) % 3
	case key.Matches(msg, km.Up):
		*cur = moveCursor(*cur, -1, v.rowCount())
	case key.Matches(msg, km.Down):
		*cur = moveCursor(*cur, 1, v.rowCount())
	case key.Matches(msg, km.Refresh):
		return v, v.Reload()
	case key.Matches(msg, km.Enter):
		return v, v.startAssign()
	case key.Matches(msg, km.New):
		return v, v.startEdit(false)
	case key.Matches(msg, km.Edit):
		return v, v.startEdit(true)
	}
	return v, nil
}

func (v *AccessView) startAssign() tea.Cmd {
	cur := v.cursors[v.pane]
	ctx := v.deps.Ctx
	var load func() ([]int64, error)

	switch v.pane {
	case paneUsers:
		users := v.ac.Users.Snapshot().Data
		if cur >= len(users) {
			return nil
		}
		u := users[cur]
		v.assignID, v.assignOwner = u.ID, u.Username
		v.assignItems = nil
		for _, r := range v.ac.Roles.Snapshot().Data {
			v.assignItems = append(v.assignItems, checkItem{id: r.ID, label: r.RoleCode + "  " + r.RoleName})
		}
		load = func() ([]int64, error) { return v.ac.RoleIDsOfUser(ctx, u.ID) }
	case paneRoles:
		roles := v.ac.Roles.Snapshot().Data
		if cur >= len(roles) {
			return nil
		}
		r := roles[cur]
		v.assignID, v.assignOwner = r.ID, r.RoleCode
		v.assignItems = nil
		for _, p := range v.ac.Permissions.Snapshot().Data {
			v.assignItems = append(v.assignItems, checkItem{id: p.ID, label: p.PermissionCode + "  " + p.PermissionName})
		}
		load = func() ([]int64, error) { return v.ac.PermissionIDsOfRole(ctx, r.ID) }
	default:
		return nil
	}

	v.ac.AssignRolesOp.Reset()
	v.ac.AssignPermissionsOp.Reset()
	v.assigning = true
	v.assignPane = v.pane
	v.assignSel = nil
	v.assignCur = 0
	v.assignErr = nil
	pane, owner := v.pane, v.assignID
	return func() tea.Msg {
		ids, err := load()
		return assignLoadedMsg{pane: pane, ownerID: owner, ids: ids, err: err}
	}
}

func (v *AccessView) updateAssign(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := v.deps.Keys
	switch {
	case key.Matches(msg, km.Back):
		v.assigning = false
	case key.Matches(msg, km.Up):
		v.assignCur = moveCursor(v.assignCur, -1, len(v.assignItems))
	case key.Matches(msg, km.Down):
		v.assignCur = moveCursor(v.assignCur, 1, len(v.assignItems))
	case key.Matches(msg, km.Toggle), key.Matches(msg, km.Enter):
		if v.assignCur < len(v.assignItems) {
			v.assignSel = dashboard.Toggle(v.assignSel, v.assignItems[v.assignCur].id)
		}
	case key.Matches(msg, km.Save):
		owner, ids := v.assignID, slices.Clone(v.assignSel)
		if v.assignPane == paneUsers {
			return v, run(actionAssign, func() bool { return v.ac.AssignRoles(v.deps.Ctx, owner, ids) })
		}
		return v, run(actionAssign, func() bool { return v.ac.AssignPermissions(v.deps.Ctx, owner, ids) })
	}
	return v, nil
}

func (v *AccessView) startEdit(existing bool) tea.Cmd {
	cur := v.cursors[v.pane]
	v.editID = 0
	switch v.pane {
	case paneRoles:
		v.ac.SaveRoleOp.Reset()
		v.roleForm.reset()
		v.roleForm.title = "New Role"
		if existing {
			roles := v.ac.Roles.Snapshot().Data
			if cur >= len(roles) {
				return nil
			}
			r := roles[cur]
			v.editID = r.ID
			v.roleForm.title = "Edit Role"
			v.roleForm.set(0, r.RoleCode)
			v.roleForm.set(1, r.RoleName)
			if r.Status == 0 {
				v.roleForm.set(2, "Disabled")
			}
		}
		v.editing = true
		return v.roleForm.open()
	case panePermissions:
		v.ac.SavePermissionOp.Reset()
		v.permForm.reset()
		v.permForm.title = "New Permission"
		if existing {
			perms := v.ac.Permissions.Snapshot().Data
			if cur >= len(perms) {
				return nil
			}
			p := perms[cur]
			v.editID = p.ID
			v.permForm.title = "Edit Permission"
			v.permForm.set(0, p.PermissionCode)
			v.permForm.set(1, p.PermissionName)
		}
		v.editing = true
		return v.permForm.open()
	}
	return nil
}

func (v *AccessView) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := v.permForm
	if v.pane == paneRoles {
		f = v.roleForm
	}
	res, cmd := f.update(msg, v.deps.Keys)
	switch res {
	case formCancelled:
		v.editing = false
		return v, nil
	case formSubmitted:
		if v.pane == paneRoles {
			in := api.RoleInput{ID: v.editID, RoleCode: f.value(0), RoleName: f.value(1), Status: 1}
			if f.chosen(2) == 1 {
				in.Status = 0
			}
			return v, run(actionSaveRole, func() bool { return v.ac.SaveRole(v.deps.Ctx, in) })
		}
		in := api.PermissionInput{ID: v.editID, PermissionCode: f.value(0), PermissionName: f.value(1)}
		return v, run(actionSavePermission, func() bool { return v.ac.SavePermission(v.deps.Ctx, in) })
	}
	return v, cmd
}

// View renders the view
func (v *AccessView) View() string {
	s := v.deps.Styles
	if v.editing {
		if v.pane == paneRoles {
			return v.roleForm.view(opStatus(s, v.ac.SaveRoleOp), v.height)
		}
		return v.permForm.view(opStatus(s, v.ac.SavePermissionOp), v.height)
	}
	if v.assigning {
		return v.renderAssign()
	}

	tabs := make([]string, len(paneTitles))
	for i, t := range paneTitles {
		if accessPane(i) == v.pane {
			tabs[i] = s.TagActive.Render(t)
		} else {
			tabs[i] = s.Tag.Render(t)
		}
	}
	rows := []string{s.Title.Render("Access Control"), lipgloss.JoinHorizontal(lipgloss.Top, tabs...), ""}

	var lines []string
	switch v.pane {
	case paneUsers:
		st := v.ac.Users.Snapshot()
		lines = append(lines, cellStatus(s, st))
		for _, u := range st.Data {
			status := s.Success.Render("enabled")
			if u.Status == 0 {
				status = s.Error.Render("disabled")
			}
			lines = append(lines, fmt.Sprintf("%-20s %-20s %s", u.Username, u.Nickname, status))
		}
	case paneRoles:
		st := v.ac.Roles.Snapshot()
		lines = append(lines, cellStatus(s, st))
		for _, r := range st.Data {
			status := s.Success.Render("enabled")
			if r.Status == 0 {
				status = s.Error.Render("disabled")
			}
			lines = append(lines, fmt.Sprintf("%-28s %-20s %s", r.RoleCode, r.RoleName, status))
		}
	case panePermissions:
		st := v.ac.Permissions.Snapshot()
		lines = append(lines, cellStatus(s, st))
		for _, p := range st.Data {
			lines = append(lines, fmt.Sprintf("%-32s %s", p.PermissionCode, p.PermissionName))
		}
	}

	status, body := lines[0], lines[1:]
	if status != "" {
		rows = append(rows, status)
	}
	width := max(styles.ContentWidth(v.width)-2, 20)
	for i, line := range body {
		if i == v.cursors[v.pane] {
			rows = append(rows, s.RowSelected.Width(width).Render(line))
		} else {
			rows = append(rows, s.Row.Render(line))
		}
	}

	switch v.pane {
	case paneUsers:
		rows = append(rows, helpLine(s, "tab", "pane", "↵", "assign roles", "r", "refresh"))
	case paneRoles:
		rows = append(rows, helpLine(s, "tab", "pane", "↵", "assign permissions", "n", "new", "e", "edit"))
	default:
		rows = append(rows, helpLine(s, "tab", "pane", "n", "new", "e", "edit"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *AccessView) renderAssign() string {
	s := v.deps.Styles
	what := "Roles of "
	op := v.ac.AssignRolesOp
	if v.assignPane == paneRoles {
		what = "Permissions of "
		op = v.ac.AssignPermissionsOp
	}

	rows := []string{s.Title.Render(what + v.assignOwner), ""}
	if v.assignErr != nil {
		rows = append(rows, s.Error.Render("⚠ "+v.assignErr.Error()))
	}
	if status := opStatus(s, op); status != "" {
		rows = append(rows, status)
	}
	if len(v.assignItems) == 0 {
		rows = append(rows, s.TitleMuted.Render("Nothing to assign"))
	}
	for i, item := range v.assignItems {
		box := "[ ] "
		if slices.Contains(v.assignSel, item.id) {
			box = "[x] "
		}
		line := box + item.label
		if i == v.assignCur {
			rows = append(rows, s.RowSelected.Render(line))
		} else {
			rows = append(rows, s.Row.Render(line))
		}
	}
	rows = append(rows, helpLine(s, "space", "toggle", "C-s", "save", "esc", "cancel"))
	return strings.Join(rows, "\n")
}
