package ui

import (
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tgienger/dash/internal/cache"
	"github.com/tgienger/dash/internal/dashboard"
	"github.com/tgienger/dash/internal/db"
	"github.com/tgienger/dash/internal/models"
	"github.com/tgienger/dash/internal/ui/styles"
	"github.com/tgienger/dash/internal/ui/views"
)

// HealthInterval is how often the status bar re-checks the backend.
const HealthInterval = 30 * time.Second

// chrome is the number of lines taken by the tab bar and status bar.
const chrome = 4

// Settings is the subset of local storage the app uses.
type Settings interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// Controllers are the screen controllers the app renders.
type Controllers struct {
	Notices  *dashboard.NoticeBoard
	Todo     *dashboard.TodoBoard
	Activity *dashboard.ActivityLog
	Access   *dashboard.AccessControl
	Games    *dashboard.Games
	Health   *cache.Cell[models.Health]
}

type healthTickMsg struct{}

type logoutDoneMsg struct{ err error }

type App struct {
	settings Settings
	deps     *views.Deps
	health   *cache.Cell[models.Health]

	screens []views.Screen
	// perms lists the permission needed to see each screen; "" for none.
	perms   []string
	started map[int]bool
	current int

	login     *views.LoginView
	loggingIn bool
	notice    string

	spinner spinner.Model
	width   int
	height  int
}

// NewApp creates the dashboard program model.
func NewApp(settings Settings, deps *views.Deps, c Controllers) *App {
	views.Watch(deps, c.Health)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Current.Primary)

	return &App{
		settings: settings,
		deps:     deps,
		health:   c.Health,
		screens: []views.Screen{
			views.NewNoticesView(deps, c.Notices),
			views.NewTodoView(deps, c.Todo),
			views.NewActivityView(deps, c.Activity),
			views.NewAccessView(deps, c.Access),
			views.NewGamesView(deps, c.Games),
		},
		perms: []string{
			"",
			"",
			dashboard.PermActivity,
			dashboard.PermUserPermissionMgmt,
			"",
		},
		started: make(map[int]bool),
		login:   views.NewLoginView(deps),
		spinner: sp,
	}
}

func (a *App) Init() tea.Cmd {
	// Reopen the screen used last
	if name, err := a.settings.GetSetting(db.KeyLastScreen); err == nil && name != "" {
		for i, s := range a.screens {
			if s.Name() == name && a.visible(i) {
				a.current = i
			}
		}
	}

	return tea.Batch(
		a.deps.WaitForUpdate(),
		a.spinner.Tick,
		a.checkHealth(),
		healthTick(),
		a.start(a.current),
	)
}

func (a *App) checkHealth() tea.Cmd {
	return func() tea.Msg {
		a.health.Refresh(a.deps.Ctx)
		return nil
	}
}

// start runs a screen's Init the first time it is shown.
func (a *App) start(i int) tea.Cmd {
	if a.started[i] {
		return nil
	}
	a.started[i] = true
	return a.screens[i].Init()
}

// visible reports whether the session may see screen i.
func (a *App) visible(i int) bool {
	perm := a.perms[i]
	return perm == "" || a.deps.Session.HasPermission(perm)
}

func (a *App) visibleScreens() []int {
	var out []int
	for i := range a.screens {
		if a.visible(i) {
			out = append(out, i)
		}
	}
	return out
}

func (a *App) switchTo(i int) tea.Cmd {
	if i < 0 || i >= len(a.screens) || !a.visible(i) {
		return nil
	}
	a.current = i
	a.notice = ""
	if err := a.settings.SetSetting(db.KeyLastScreen, a.screens[i].Name()); err != nil {
		a.deps.Log.Warn("saving last screen", "error", err)
	}
	return a.start(i)
}

// cycle moves to the next or previous visible screen.
func (a *App) cycle(delta int) tea.Cmd {
	vis := a.visibleScreens()
	if len(vis) == 0 {
		return nil
	}
	pos := slices.Index(vis, a.current)
	if pos < 0 {
		pos = 0
	}
	n := len(vis)
	return a.switchTo(vis[(pos+delta+n)%n])
}

// sessionChanged re-checks screen visibility and reloads what was shown.
func (a *App) sessionChanged() tea.Cmd {
	if !a.visible(a.current) {
		a.current = 0
	}
	var cmds []tea.Cmd
	for i, s := range a.screens {
		if a.started[i] && a.visible(i) {
			cmds = append(cmds, s.Reload())
		}
	}
	cmds = append(cmds, a.start(a.current))
	return tea.Batch(cmds...)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		inner := tea.WindowSizeMsg{Width: msg.Width, Height: max(msg.Height-chrome, 0)}
		var cmds []tea.Cmd
		for _, s := range a.screens {
			_, cmd := s.Update(inner)
			cmds = append(cmds, cmd)
		}
		a.login.Update(inner)
		return a, tea.Batch(cmds...)

	case views.StateChangedMsg:
		return a, a.deps.WaitForUpdate()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case healthTickMsg:
		return a, tea.Batch(a.checkHealth(), healthTick())

	case views.ActionDoneMsg:
		var cmds []tea.Cmd
		for _, s := range a.screens {
			_, cmd := s.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case views.LoginDoneMsg:
		a.login.Update(msg)
		if msg.Err != nil {
			return a, nil
		}
		a.loggingIn = false
		a.notice = "Logged in as " + a.deps.Session.Username()
		return a, a.sessionChanged()

	case views.LoginCancelledMsg:
		a.loggingIn = false
		return a, nil

	case logoutDoneMsg:
		if msg.err != nil {
			a.notice = "Logout: " + msg.err.Error()
		} else {
			a.notice = "Logged out"
		}
		return a, a.sessionChanged()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.loggingIn {
			_, cmd := a.login.Update(msg)
			return a, cmd
		}
		if !a.screens[a.current].Capturing() {
			if cmd, handled := a.globalKey(msg); handled {
				return a, cmd
			}
		}
	}

	_, cmd := a.screens[a.current].Update(msg)
	return a, cmd
}

func healthTick() tea.Cmd {
	return tea.Tick(HealthInterval, func(time.Time) tea.Msg { return healthTickMsg{} })
}

// globalKey handles keys that apply on every screen.
func (a *App) globalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	km := a.deps.Keys
	for i, b := range km.Screens() {
		if key.Matches(msg, b) {
			return a.switchTo(i), true
		}
	}

	switch {
	case key.Matches(msg, km.Quit):
		return tea.Quit, true
	case key.Matches(msg, km.NextScreen):
		return a.cycle(1), true
	case key.Matches(msg, km.PrevScreen):
		return a.cycle(-1), true
	case key.Matches(msg, km.Login):
		if a.deps.Session.IsAuthenticated() {
			return nil, true
		}
		a.loggingIn = true
		return a.login.Open(), true
	case key.Matches(msg, km.Logout):
		if !a.deps.Session.IsAuthenticated() {
			return nil, true
		}
		ctx := a.deps.Ctx
		return func() tea.Msg {
			return logoutDoneMsg{err: a.deps.Session.Logout(ctx)}
		}, true
	}
	return nil, false
}

func (a *App) View() string {
	var body string
	if a.loggingIn {
		body = a.login.View()
	} else {
		body = a.screens[a.current].View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderTabs(),
		body,
		a.renderStatus(),
	)
}

func (a *App) renderTabs() string {
	s := a.deps.Styles
	var tabs []string
	for _, i := range a.visibleScreens() {
		label := a.screens[i].Title()
		if i == a.current {
			tabs = append(tabs, s.TabActive.Render(label))
		} else {
			tabs = append(tabs, s.Tab.Render(label))
		}
	}
	return s.Tabs.Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

func (a *App) renderStatus() string {
	s := a.deps.Styles
	session := a.deps.Session
	var parts []string

	hs := a.health.Snapshot()
	switch {
	case hs.Loading && !hs.Loaded:
		parts = append(parts, a.spinner.View()+" checking API")
	case hs.Err != nil:
		parts = append(parts, s.Error.Render("● API down: "+hs.Err.Error()))
	case hs.Loaded:
		parts = append(parts, s.Success.Render("● API "+strings.ToLower(hs.Data.Status)))
	}

	if session.IsAuthenticated() {
		user := session.Username()
		if exp, ok := session.TokenExpiry(); ok {
			user += " (token expires " + humanize.Time(exp) + ")"
		}
		parts = append(parts, user)
	} else {
		parts = append(parts, "anonymous "+s.HelpKey.Render("ctrl+l")+" log in")
	}

	if err := session.Err(); err != nil {
		parts = append(parts, s.Warning.Render(err.Error()))
	}
	if a.notice != "" {
		parts = append(parts, s.TitleMuted.Render(a.notice))
	}

	return s.StatusBar.Width(styles.ContentWidth(a.width)).Render(strings.Join(parts, "  │  "))
}
