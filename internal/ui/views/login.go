package views

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/ui/styles"
)

// LoginDoneMsg reports the outcome of a login attempt.
type LoginDoneMsg struct {
	Err error
}

// LoginCancelledMsg is sent when the login dialog is dismissed.
type LoginCancelledMsg struct{}

// LoginView is the username/password dialog.
type LoginView struct {
	deps   *Deps
	form   *form
	width  int
	height int
	busy   bool
	err    string
}

// NewLoginView creates the login dialog.
func NewLoginView(deps *Deps) *LoginView {
	return &LoginView{
		deps: deps,
		form: newForm("Log In", "Log in", deps.Styles).
			input("Username", "admin", 64).
			password("Password"),
	}
}

// Open clears the dialog and focuses the username.
func (v *LoginView) Open() tea.Cmd {
	v.form.reset()
	v.busy = false
	v.err = ""
	return v.form.open()
}

func (v *LoginView) Init() tea.Cmd { return nil }

func (v *LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.form.setWidth(styles.ContentWidth(msg.Width))

	case LoginDoneMsg:
		v.busy = false
		if msg.Err != nil {
			v.err = loginError(msg.Err)
		}

	case tea.KeyMsg:
		if v.busy {
			return v, nil
		}
		res, cmd := v.form.update(msg, v.deps.Keys)
		switch res {
		case formCancelled:
			return v, func() tea.Msg { return LoginCancelledMsg{} }
		case formSubmitted:
			username, password := v.form.value(0), v.form.value(1)
			if username == "" || password == "" {
				v.err = "Enter username and password"
				return v, nil
			}
			v.busy = true
			v.err = ""
			return v, func() tea.Msg {
				return LoginDoneMsg{Err: v.deps.Session.Login(v.deps.Ctx, username, password)}
			}
		}
		return v, cmd
	}
	return v, nil
}

func loginError(err error) string {
	return api.Message(err, "login failed")
}

func (v *LoginView) View() string {
	s := v.deps.Styles
	status := ""
	switch {
	case v.busy:
		status = s.TitleMuted.Render("Logging in...")
	case v.err != "":
		status = s.Error.Render(v.err)
	}
	return v.form.view(status, v.height)
}
