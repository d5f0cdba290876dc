// Package markdown renders notice bodies for the terminal.
package markdown

import (
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/tgienger/dash/internal/ui/styles"
)

var (
	parser     goldmark.Markdown
	parserOnce sync.Once
)

func getParser() goldmark.Markdown {
	parserOnce.Do(func() {
		parser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return parser
}

func parse(src string) (ast.Node, []byte) {
	source := []byte(src)
	return getParser().Parser().Parse(text.NewReader(source)), source
}

// Render converts markdown to styled text wrapped at width. Soft line
// breaks become spaces so hard-wrapped source reflows.
func Render(src string, width int) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	doc, source := parse(src)
	r := &renderer{source: source, width: max(width, 10), theme: styles.Current}
	_ = ast.Walk(doc, r.walk)
	return strings.TrimRight(r.out.String(), "\n")
}

// Excerpt returns the plain text of src collapsed onto one line and cut to
// at most n runes, with an ellipsis when cut.
func Excerpt(src string, n int) string {
	doc, source := parse(src)
	var b strings.Builder
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if node.Type() == ast.TypeBlock {
				b.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(source))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	plain := strings.Join(strings.Fields(b.String()), " ")
	if n <= 0 || utf8.RuneCountInString(plain) <= n {
		return plain
	}
	runes := []rune(plain)
	return strings.TrimSpace(string(runes[:max(n-1, 0)])) + "…"
}

type listState struct {
	ordered bool
	next    int
}

// renderer walks the AST collecting inline content per block and wraps it
// when the block closes.
type renderer struct {
	source []byte
	width  int
	theme  styles.Theme

	out    strings.Builder
	inline strings.Builder

	prefix  string
	bullet  string // replaces prefix on the next emitted line
	lists   []listState
	bold    int
	italic  int
	strike  int
	tightLI bool
}

func (r *renderer) blankLine() {
	s := r.out.String()
	if s == "" || strings.HasSuffix(s, "\n\n") {
		return
	}
	if strings.HasSuffix(s, "\n") {
		r.out.WriteString("\n")
		return
	}
	r.out.WriteString("\n\n")
}

func (r *renderer) emit(block string) {
	inner := max(r.width-lipgloss.Width(r.prefix), 10)
	wrapped := lipgloss.NewStyle().Width(inner).Render(block)
	for i, line := range strings.Split(wrapped, "\n") {
		if i == 0 && r.bullet != "" {
			r.out.WriteString(r.bullet)
			r.bullet = ""
		} else {
			r.out.WriteString(r.prefix)
		}
		r.out.WriteString(strings.TrimRight(line, " "))
		r.out.WriteString("\n")
	}
}

func (r *renderer) styled(s string) string {
	st := lipgloss.NewStyle().Foreground(r.theme.Foreground)
	if r.bold > 0 {
		st = st.Bold(true)
	}
	if r.italic > 0 {
		st = st.Italic(true)
	}
	if r.strike > 0 {
		st = st.Strikethrough(true)
	}
	return st.Render(s)
}

func (r *renderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if entering {
			r.inline.Reset()
			return ast.WalkContinue, nil
		}
		if content := r.inline.String(); content != "" {
			r.inline.Reset()
			r.emit(content)
			if !r.tightLI {
				r.blankLine()
			}
		}

	case *ast.Heading:
		if entering {
			r.inline.Reset()
			return ast.WalkContinue, nil
		}
		st := lipgloss.NewStyle().Bold(true).Foreground(r.theme.Foreground)
		if n.Level <= 2 {
			st = st.Foreground(r.theme.Primary)
		}
		content := plainText(n, r.source)
		r.inline.Reset()
		r.blankLine()
		r.emit(st.Render(content))
		r.blankLine()

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			r.codeBlock(node)
		}
		return ast.WalkSkipChildren, nil

	case *ast.Blockquote:
		if entering {
			r.prefix += "│ "
		} else {
			r.prefix = strings.TrimSuffix(r.prefix, "│ ")
			r.blankLine()
		}

	case *ast.List:
		if entering {
			r.lists = append(r.lists, listState{ordered: n.IsOrdered(), next: n.Start})
			r.tightLI = n.IsTight
		} else {
			r.lists = r.lists[:len(r.lists)-1]
			r.tightLI = len(r.lists) > 0
			if len(r.lists) == 0 {
				r.blankLine()
			}
		}

	case *ast.ListItem:
		top := &r.lists[len(r.lists)-1]
		if entering {
			marker := "• "
			if top.ordered {
				marker = strconv.Itoa(top.next) + ". "
				top.next++
			}
			r.bullet = r.prefix + lipgloss.NewStyle().Foreground(r.theme.Accent).Render(marker)
			r.prefix += strings.Repeat(" ", lipgloss.Width(marker))
		} else {
			r.prefix = r.prefix[:len(r.prefix)-indentWidth(top.ordered, top.next-1)]
		}

	case *ast.ThematicBreak:
		if entering {
			r.blankLine()
			r.out.WriteString(lipgloss.NewStyle().Foreground(r.theme.Border).Render(strings.Repeat("─", r.width)))
			r.out.WriteString("\n")
			r.blankLine()
		}

	case *ast.Text:
		if entering {
			r.inline.WriteString(r.styled(string(n.Segment.Value(r.source))))
			switch {
			case n.HardLineBreak():
				r.inline.WriteString("\n")
			case n.SoftLineBreak():
				r.inline.WriteString(" ")
			}
		}

	case *ast.String:
		if entering {
			r.inline.WriteString(r.styled(string(n.Value)))
		}

	case *ast.Emphasis:
		d := 1
		if !entering {
			d = -1
		}
		if n.Level >= 2 {
			r.bold += d
		} else {
			r.italic += d
		}

	case *ast.CodeSpan:
		if entering {
			code := plainText(n, r.source)
			r.inline.WriteString(lipgloss.NewStyle().Foreground(r.theme.Warning).Render(code))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Link:
		if entering {
			label := plainText(n, r.source)
			r.inline.WriteString(lipgloss.NewStyle().Foreground(r.theme.Primary).Underline(true).Render(label))
			if dest := string(n.Destination); dest != "" && dest != label {
				r.inline.WriteString(lipgloss.NewStyle().Foreground(r.theme.ForegroundDim).Render(" (" + dest + ")"))
			}
		}
		return ast.WalkSkipChildren, nil

	case *ast.AutoLink:
		if entering {
			r.inline.WriteString(lipgloss.NewStyle().Foreground(r.theme.Primary).Underline(true).Render(string(n.URL(r.source))))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Image:
		if entering {
			r.inline.WriteString(lipgloss.NewStyle().Foreground(r.theme.ForegroundDim).Render("[image: " + plainText(n, r.source) + "]"))
		}
		return ast.WalkSkipChildren, nil

	case *extast.Strikethrough:
		if entering {
			r.strike++
		} else {
			r.strike--
		}

	case *extast.TaskCheckBox:
		if entering {
			if n.IsChecked {
				r.inline.WriteString(lipgloss.NewStyle().Foreground(r.theme.Success).Render("[x]") + " ")
			} else {
				r.inline.WriteString(r.styled("[ ] "))
			}
		}
	}
	return ast.WalkContinue, nil
}

func (r *renderer) codeBlock(node ast.Node) {
	st := lipgloss.NewStyle().Foreground(r.theme.ForegroundDim)
	lines := node.Lines()
	r.blankLine()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(r.source)), "\n")
		r.out.WriteString(r.prefix + "  " + st.Render(line) + "\n")
	}
	r.blankLine()
}

// indentWidth is the width of the list marker pushed for an item numbered n.
func indentWidth(ordered bool, n int) int {
	if !ordered {
		return 2
	}
	return len(strconv.Itoa(n)) + 2
}

func plainText(node ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
