package views

import (
	"context"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tgienger/dash/internal/auth"
	"github.com/tgienger/dash/internal/cache"
	"github.com/tgienger/dash/internal/models"
	"github.com/tgienger/dash/internal/ui/keys"
	"github.com/tgienger/dash/internal/ui/styles"
)

// Screen is one tab of the dashboard.
type Screen interface {
	tea.Model
	// Name identifies the screen in saved settings.
	Name() string
	Title() string
	// Capturing reports that a text field has focus, so global keys must
	// be passed through.
	Capturing() bool
	// Reload refetches everything the screen shows.
	Reload() tea.Cmd
}

// StateChangedMsg is sent after any watched cache changes.
type StateChangedMsg struct{}

// ActionDoneMsg reports the end of a background mutation.
type ActionDoneMsg struct {
	Action string
	OK     bool
}

// Deps is what every screen needs from the app.
type Deps struct {
	Ctx     context.Context
	Session *auth.Session
	Log     *slog.Logger
	Styles  *styles.Styles
	Keys    keys.KeyMap

	updates chan struct{}
	mu      sync.Mutex
	unsubs  []func()
}

// NewDeps creates the shared screen dependencies.
func NewDeps(ctx context.Context, session *auth.Session, logger *slog.Logger) *Deps {
	return &Deps{
		Ctx:     ctx,
		Session: session,
		Log:     logger,
		Styles:  styles.NewStyles(),
		Keys:    keys.DefaultKeyMap(),
		updates: make(chan struct{}, 1),
	}
}

func (d *Deps) changed() {
	select {
	case d.updates <- struct{}{}:
	default:
	}
}

// WaitForUpdate blocks until a watched cell changes. The app re-issues it
// after every StateChangedMsg.
func (d *Deps) WaitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-d.updates:
			return StateChangedMsg{}
		case <-d.Ctx.Done():
			return nil
		}
	}
}

// Close drops every cell subscription.
func (d *Deps) Close() {
	d.mu.Lock()
	unsubs := d.unsubs
	d.unsubs = nil
	d.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
}

// Watch re-renders the program whenever c changes.
func Watch[T any](d *Deps, c *cache.Cell[T]) {
	u := c.Subscribe(func(cache.State[T]) { d.changed() })
	d.mu.Lock()
	d.unsubs = append(d.unsubs, u)
	d.mu.Unlock()
}

// run performs fn off the UI goroutine and reports its outcome.
func run(action string, fn func() bool) tea.Cmd {
	return func() tea.Msg {
		return ActionDoneMsg{Action: action, OK: fn()}
	}
}

// refresh reloads cells off the UI goroutine. Results arrive through Watch.
func refresh(ctx context.Context, fns ...func(context.Context)) tea.Cmd {
	cmds := make([]tea.Cmd, len(fns))
	for i, fn := range fns {
		cmds[i] = func() tea.Msg {
			fn(ctx)
			return nil
		}
	}
	return tea.Batch(cmds...)
}

func reloadCell[T any](c *cache.Cell[T]) func(context.Context) {
	return func(ctx context.Context) { c.Refresh(ctx) }
}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// moveCursor applies up/down to a cursor over n rows.
func moveCursor(cursor, delta, n int) int {
	if n == 0 {
		return 0
	}
	return clamp(cursor+delta, 0, n-1)
}

// relativeTime renders a server timestamp as "3 hours ago".
func relativeTime(value string) string {
	t := models.ParseTime(value)
	if t.IsZero() {
		return value
	}
	return humanize.Time(t)
}

// cellStatus renders the loading or error line of a cell.
func cellStatus[T any](s *styles.Styles, st cache.State[T]) string {
	switch {
	case st.Err != nil:
		return s.Error.Render("⚠ " + st.Err.Error())
	case st.Loading && !st.Loaded:
		return s.TitleMuted.Render("Loading...")
	}
	return ""
}

// outcome is the display state of a dashboard mutation.
type outcome interface {
	Loading() bool
	Error() string
	Prompt() string
}

// opStatus renders the first pending, rejected or failed run among ops.
func opStatus(s *styles.Styles, ops ...outcome) string {
	for _, op := range ops {
		switch {
		case op.Loading():
			return s.TitleMuted.Render("Saving...")
		case op.Prompt() != "":
			return s.Warning.Render(op.Prompt())
		case op.Error() != "":
			return s.Error.Render(op.Error())
		}
	}
	return ""
}

// helpLine renders "key desc • key desc" pairs.
func helpLine(s *styles.Styles, pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, s.HelpKey.Render(pairs[i])+" "+pairs[i+1])
	}
	return s.Help.Render(lipgloss.JoinHorizontal(lipgloss.Top, joinSep(parts, " • ")...))
}

func joinSep(parts []string, sep string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p)
	}
	return out
}

// confirmDelete renders the yes/no prompt shown before a delete.
func confirmDelete(s *styles.Styles, what, name string, width, height int) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete "+what+"?"),
		"",
		s.TitleMuted.Render(name),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	return lipgloss.Place(styles.ContentWidth(width), max(height, 8),
		lipgloss.Center, lipgloss.Center,
		content,
	)
}

// confirmKey interprets a key while a delete confirmation is shown.
// decided is false for keys that neither confirm nor cancel.
func confirmKey(msg tea.KeyMsg) (yes, decided bool) {
	switch msg.String() {
	case "y", "Y":
		return true, true
	case "n", "N", "esc":
		return false, true
	}
	return false, false
}
