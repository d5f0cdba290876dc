package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/dash/internal/ui/keys"
	"github.com/tgienger/dash/internal/ui/styles"
)

type fieldKind int

const (
	fieldInput fieldKind = iota
	fieldArea
	fieldChoice
)

type field struct {
	label   string
	kind    fieldKind
	input   textinput.Model
	area    textarea.Model
	options []string
	choice  int
}

// form is a modal edit dialog: text inputs, text areas and choice fields
// followed by a submit button.
type form struct {
	title  string
	fields []field
	focus  int // len(fields) is the submit button
	submit string
	styles *styles.Styles
	width  int
}

type formResult int

const (
	formEditing formResult = iota
	formSubmitted
	formCancelled
)

func newForm(title, submit string, s *styles.Styles) *form {
	return &form{title: title, submit: submit, styles: s}
}

func (f *form) input(label, placeholder string, limit int) *form {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	f.fields = append(f.fields, field{label: label, kind: fieldInput, input: in})
	return f
}

func (f *form) password(label string) *form {
	f.input(label, "", 128)
	in := &f.fields[len(f.fields)-1].input
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'
	return f
}

func (f *form) area(label, placeholder string, limit, height int) *form {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.CharLimit = limit
	ta.SetWidth(50)
	ta.SetHeight(height)
	ta.ShowLineNumbers = false
	f.fields = append(f.fields, field{label: label, kind: fieldArea, area: ta})
	return f
}

func (f *form) choice(label string, options ...string) *form {
	f.fields = append(f.fields, field{label: label, kind: fieldChoice, options: options})
	return f
}

// open resets focus to the first field.
func (f *form) open() tea.Cmd {
	f.focus = 0
	f.updateFocus()
	return textinput.Blink
}

func (f *form) value(i int) string {
	fd := &f.fields[i]
	switch fd.kind {
	case fieldArea:
		return strings.TrimSpace(fd.area.Value())
	case fieldChoice:
		if len(fd.options) == 0 {
			return ""
		}
		return fd.options[fd.choice]
	}
	return strings.TrimSpace(fd.input.Value())
}

func (f *form) chosen(i int) int {
	return f.fields[i].choice
}

func (f *form) set(i int, v string) {
	fd := &f.fields[i]
	switch fd.kind {
	case fieldArea:
		fd.area.SetValue(v)
	case fieldChoice:
		for j, o := range fd.options {
			if o == v {
				fd.choice = j
			}
		}
	default:
		fd.input.SetValue(v)
	}
}

func (f *form) setChoices(i int, options []string, selected int) {
	fd := &f.fields[i]
	fd.options = options
	fd.choice = clamp(selected, 0, max(len(options)-1, 0))
}

// suggest offers options as completions for text input i.
func (f *form) suggest(i int, options []string) {
	in := &f.fields[i].input
	in.ShowSuggestions = true
	in.SetSuggestions(options)
}

func (f *form) reset() {
	for i := range f.fields {
		fd := &f.fields[i]
		switch fd.kind {
		case fieldInput:
			fd.input.Reset()
		case fieldArea:
			fd.area.Reset()
		}
		fd.choice = 0
	}
}

func (f *form) setWidth(contentWidth int) {
	f.width = contentWidth
	w := clamp(contentWidth-10, 20, 60)
	for i := range f.fields {
		switch fd := &f.fields[i]; fd.kind {
		case fieldInput:
			fd.input.Width = w - 2
		case fieldArea:
			fd.area.SetWidth(w)
		}
	}
}

func (f *form) updateFocus() {
	for i := range f.fields {
		fd := &f.fields[i]
		switch fd.kind {
		case fieldInput:
			if i == f.focus {
				fd.input.Focus()
			} else {
				fd.input.Blur()
			}
		case fieldArea:
			if i == f.focus {
				fd.area.Focus()
			} else {
				fd.area.Blur()
			}
		}
	}
}

func (f *form) cycle(dir int) {
	n := len(f.fields) + 1
	f.focus = (f.focus + dir + n) % n
	f.updateFocus()
}

func (f *form) update(msg tea.KeyMsg, km keys.KeyMap) (formResult, tea.Cmd) {
	if f.focus < len(f.fields) && f.fields[f.focus].kind == fieldInput &&
		(key.Matches(msg, km.Tab) || key.Matches(msg, km.Enter)) {
		acceptSuggestion(&f.fields[f.focus].input)
	}

	switch {
	case key.Matches(msg, km.Back):
		return formCancelled, nil
	case key.Matches(msg, km.Save):
		return formSubmitted, nil
	case key.Matches(msg, km.Tab):
		f.cycle(1)
		return formEditing, nil
	case key.Matches(msg, km.ShiftTab):
		f.cycle(-1)
		return formEditing, nil
	}

	if f.focus == len(f.fields) {
		if key.Matches(msg, km.Enter) {
			return formSubmitted, nil
		}
		return formEditing, nil
	}

	fd := &f.fields[f.focus]
	var cmd tea.Cmd
	switch fd.kind {
	case fieldInput:
		if key.Matches(msg, km.Enter) {
			f.cycle(1)
			return formEditing, nil
		}
		fd.input, cmd = fd.input.Update(msg)
	case fieldArea:
		fd.area, cmd = fd.area.Update(msg)
	case fieldChoice:
		switch {
		case key.Matches(msg, km.Enter):
			f.cycle(1)
		case len(fd.options) == 0:
		case msg.String() == "left", msg.String() == "h", msg.String() == "up", msg.String() == "k":
			fd.choice = (fd.choice + len(fd.options) - 1) % len(fd.options)
		case msg.String() == "right", msg.String() == "l", msg.String() == "down", msg.String() == "j", msg.String() == " ":
			fd.choice = (fd.choice + 1) % len(fd.options)
		}
	}
	return formEditing, cmd
}

func (f *form) view(status string, height int) string {
	s := f.styles
	contentWidth := styles.ContentWidth(f.width)
	inputWidth := clamp(contentWidth-6, 20, 62)

	rows := []string{s.Title.Render(f.title), ""}
	for i, fd := range f.fields {
		st := s.Input
		if i == f.focus {
			st = s.InputFocused
		}
		var body string
		switch fd.kind {
		case fieldInput:
			body = fd.input.View()
		case fieldArea:
			body = fd.area.View()
		case fieldChoice:
			body = renderChoice(s, fd, i == f.focus)
		}
		rows = append(rows, fd.label+":", st.Width(inputWidth).Render(body))
	}

	btn := s.Button
	if f.focus == len(f.fields) {
		btn = s.ButtonFocused
	}
	rows = append(rows, "", btn.Render(" "+f.submit+" "))
	if status != "" {
		rows = append(rows, "", status)
	}
	rows = append(rows, "", s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"))

	return lipgloss.Place(contentWidth, max(height, len(rows)),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func renderChoice(s *styles.Styles, fd field, focused bool) string {
	if len(fd.options) == 0 {
		return s.TitleMuted.Render("(none available)")
	}
	label := fd.options[fd.choice]
	if focused {
		return s.HelpKey.Render("‹ ") + label + s.HelpKey.Render(" ›")
	}
	return label
}
