package markdown

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name string
		src  string
		n    int
		want string
	}{
		{"plain", "hello world", 20, "hello world"},
		{"strips markup", "# Title\n\nSome **bold** and `code`.", 40, "Title Some bold and code."},
		{"collapses lines", "line one\nline two\n\n- item", 40, "line one line two item"},
		{"cuts with ellipsis", "abcdefghij", 5, "abcd…"},
		{"no limit", "abc def", 0, "abc def"},
		{"empty", "", 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Excerpt(tt.src, tt.n))
		})
	}
}

func TestRenderEmpty(t *testing.T) {
	assert.Equal(t, "", Render("   \n", 40))
}

func TestRenderKeepsText(t *testing.T) {
	out := Render("# Release\n\nThe **new** build ships today.\n\n1. first\n2. second\n\n- [x] done", 60)

	for _, want := range []string{"Release", "new", "ships today", "1. ", "first", "2. ", "second", "[x]", "done"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderWraps(t *testing.T) {
	src := strings.Repeat("word ", 40)
	out := Render(src, 30)

	lines := strings.Split(out, "\n")
	assert.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.LessOrEqual(t, lipgloss.Width(line), 30)
	}
}

func TestRenderLinkShowsDestination(t *testing.T) {
	out := Render("see [docs](https://example.com/docs)", 80)
	assert.Contains(t, out, "docs")
	assert.Contains(t, out, "(https://example.com/docs)")
}
