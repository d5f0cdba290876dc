package views

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/dash/internal/models"
	"github.com/tgienger/dash/internal/ui/keys"
	"github.com/tgienger/dash/internal/ui/styles"
)

type cellKind int

const (
	cellCount  cellKind = iota // whole number, blank reads as 0
	cellRating                 // decimal
	cellName                   // text completed from known names
	cellSide                   // us or them
	cellFlag                   // yes or no
)

// statColumn binds a grid column to one field of a stats row.
type statColumn[T any] struct {
	label string
	width int
	kind  cellKind
	// field returns a pointer into row: *int for counts and sides, *float64
	// for ratings, *string for names and *bool for flags.
	field func(row *T) any
	// suggest lists completions for a name cell on a row of the given side.
	suggest func(d models.MatchGameBaseData, opponent bool) []string
}

type statCell struct {
	input textinput.Model
	on    bool
}

// statGrid edits a list of stats rows as a table of text cells.
type statGrid[T any] struct {
	title   string
	columns []statColumn[T]
	base    func() models.MatchGameBaseData
	styles  *styles.Styles

	rows   [][]statCell
	row    int
	col    int
	offset int // first visible column
	active bool
}

func newStatGrid[T any](title string, s *styles.Styles, base func() models.MatchGameBaseData, columns ...statColumn[T]) *statGrid[T] {
	return &statGrid[T]{title: title, columns: columns, base: base, styles: s}
}

// parseCount reads a non-negative whole number. Blank reads as 0.
func parseCount(label, text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a whole number, got %q", label, text)
	}
	return n, nil
}

func (g *statGrid[T]) newRow(item T) []statCell {
	cells := make([]statCell, len(g.columns))
	for i, col := range g.columns {
		c := &cells[i]
		switch v := col.field(&item).(type) {
		case *int:
			if col.kind == cellSide {
				c.on = *v == models.TeamOpponent
				continue
			}
			c.input = newCellInput(col.width, "0")
			if *v != 0 {
				c.input.SetValue(strconv.Itoa(*v))
			}
		case *float64:
			c.input = newCellInput(col.width, "0")
			if *v != 0 {
				c.input.SetValue(strconv.FormatFloat(*v, 'f', -1, 64))
			}
		case *string:
			c.input = newCellInput(col.width, "")
			c.input.CharLimit = 64
			c.input.ShowSuggestions = true
			c.input.SetValue(*v)
		case *bool:
			c.on = *v
		}
	}
	return cells
}

func newCellInput(width int, placeholder string) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = 8
	in.Width = width - 1
	return in
}

// load replaces the rows with items and moves to the first cell.
func (g *statGrid[T]) load(items []T) {
	g.rows = g.rows[:0]
	for _, item := range items {
		g.rows = append(g.rows, g.newRow(item))
	}
	g.row, g.col, g.offset = 0, 0, 0
	g.updateFocus()
}

// collect parses every row. The first unreadable cell is reported.
func (g *statGrid[T]) collect() ([]T, error) {
	out := make([]T, 0, len(g.rows))
	for r, cells := range g.rows {
		var item T
		for i, col := range g.columns {
			c := cells[i]
			switch v := col.field(&item).(type) {
			case *int:
				if col.kind == cellSide {
					*v = models.TeamSelf
					if c.on {
						*v = models.TeamOpponent
					}
					continue
				}
				n, err := parseCount(col.label, c.input.Value())
				if err != nil {
					return nil, fmt.Errorf("%s row %d: %w", g.title, r+1, err)
				}
				*v = n
			case *float64:
				text := strings.TrimSpace(c.input.Value())
				if text == "" {
					continue
				}
				f, err := strconv.ParseFloat(text, 64)
				if err != nil {
					return nil, fmt.Errorf("%s row %d: %s must be a number, got %q", g.title, r+1, col.label, text)
				}
				*v = f
			case *string:
				*v = strings.TrimSpace(c.input.Value())
			case *bool:
				*v = c.on
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (g *statGrid[T]) opponent(r int) bool {
	for i, col := range g.columns {
		if col.kind == cellSide {
			return g.rows[r][i].on
		}
	}
	return false
}

// setActive focuses the current cell, or blurs every cell.
func (g *statGrid[T]) setActive(on bool) {
	g.active = on
	g.updateFocus()
}

func (g *statGrid[T]) updateFocus() {
	for r := range g.rows {
		for i, col := range g.columns {
			if col.kind == cellSide || col.kind == cellFlag {
				continue
			}
			in := &g.rows[r][i].input
			if g.active && r == g.row && i == g.col {
				in.Focus()
			} else {
				in.Blur()
			}
		}
	}
}

// move steps the focus through cells in reading order, wrapping at the ends.
func (g *statGrid[T]) move(dir int) {
	if len(g.rows) == 0 {
		return
	}
	n := len(g.rows) * len(g.columns)
	pos := (g.row*len(g.columns) + g.col + dir + n) % n
	g.row, g.col = pos/len(g.columns), pos%len(g.columns)
	g.updateFocus()
}

func (g *statGrid[T]) addRow() {
	var item T
	g.rows = append(g.rows, g.newRow(item))
	g.row, g.col = len(g.rows)-1, 0
	g.updateFocus()
}

func (g *statGrid[T]) removeRow() {
	if len(g.rows) == 0 {
		return
	}
	g.rows = slices.Delete(g.rows, g.row, g.row+1)
	g.row = moveCursor(g.row, 0, len(g.rows))
	g.updateFocus()
}

func (g *statGrid[T]) update(msg tea.KeyMsg, km keys.KeyMap) tea.Cmd {
	switch {
	case key.Matches(msg, km.AddRow):
		g.addRow()
		return textinput.Blink
	case key.Matches(msg, km.RemoveRow):
		g.removeRow()
		return nil
	}
	if len(g.rows) == 0 {
		return nil
	}

	cell := &g.rows[g.row][g.col]
	col := g.columns[g.col]
	switch {
	case key.Matches(msg, km.Tab), key.Matches(msg, km.Enter):
		acceptSuggestion(&cell.input)
		g.move(1)
		return nil
	case key.Matches(msg, km.ShiftTab):
		g.move(-1)
		return nil
	case msg.Type == tea.KeyUp:
		g.row = moveCursor(g.row, -1, len(g.rows))
		g.updateFocus()
		return nil
	case msg.Type == tea.KeyDown:
		g.row = moveCursor(g.row, 1, len(g.rows))
		g.updateFocus()
		return nil
	}

	switch col.kind {
	case cellSide, cellFlag:
		switch msg.Type {
		case tea.KeySpace, tea.KeyLeft, tea.KeyRight:
			cell.on = !cell.on
		}
		return nil
	case cellName:
		if col.suggest != nil {
			cell.input.SetSuggestions(col.suggest(g.base(), g.opponent(g.row)))
		}
	}
	var cmd tea.Cmd
	cell.input, cmd = cell.input.Update(msg)
	return cmd
}

// visibleColumns scrolls horizontally so the focused column fits in width.
func (g *statGrid[T]) visibleColumns(width int) (first, last int) {
	if g.col < g.offset {
		g.offset = g.col
	}
	for {
		used := 0
		for i := g.offset; i <= g.col; i++ {
			used += g.columns[i].width + 1
		}
		if used <= width || g.offset == g.col {
			break
		}
		g.offset++
	}
	used := 0
	last = g.offset
	for i := g.offset; i < len(g.columns); i++ {
		used += g.columns[i].width + 1
		if used > width && i > g.offset {
			break
		}
		last = i
	}
	return g.offset, last
}

func (g *statGrid[T]) view(width int) string {
	s := g.styles
	first, last := g.visibleColumns(max(width-4, 10))

	header := make([]string, 0, last-first+1)
	for _, col := range g.columns[first : last+1] {
		header = append(header, fixed(col.width, col.label))
	}
	lines := []string{"  " + s.TitleMuted.Render(strings.Join(header, " "))}
	if len(g.rows) == 0 {
		lines = append(lines, s.TitleMuted.Render("  No rows. C-a adds one."))
	}

	for r, cells := range g.rows {
		parts := make([]string, 0, last-first+1)
		for i := first; i <= last; i++ {
			col := g.columns[i]
			focused := g.active && r == g.row && i == g.col
			var body string
			switch col.kind {
			case cellSide:
				body = "Us"
				if cells[i].on {
					body = "Them"
				}
			case cellFlag:
				body = "·"
				if cells[i].on {
					body = "✓"
				}
			default:
				body = cells[i].input.View()
			}
			body = fixed(col.width, body)
			if focused && (col.kind == cellSide || col.kind == cellFlag) {
				body = s.HelpKey.Render(body)
			}
			parts = append(parts, body)
		}
		marker := "  "
		if g.active && r == g.row {
			marker = s.HelpKey.Render("› ")
		}
		lines = append(lines, marker+strings.Join(parts, " "))
	}

	more := ""
	if first > 0 {
		more += "‹ "
	}
	if last < len(g.columns)-1 {
		more += "›"
	}
	if more != "" {
		lines = append(lines, s.TitleMuted.Render("  more columns "+more))
	}
	return strings.Join(lines, "\n")
}

func fixed(width int, s string) string {
	return lipgloss.NewStyle().Width(width).MaxWidth(width).Render(s)
}

// acceptSuggestion completes in with its highlighted suggestion, or the
// first one starting with the typed text.
func acceptSuggestion(in *textinput.Model) {
	value := in.Value()
	if value == "" {
		return
	}
	s := in.CurrentSuggestion()
	if s == "" {
		for _, candidate := range in.AvailableSuggestions() {
			if strings.HasPrefix(strings.ToLower(candidate), strings.ToLower(value)) {
				s = candidate
				break
			}
		}
	}
	if s != "" && s != value {
		in.SetValue(s)
		in.CursorEnd()
	}
}

func countCol[T any](label string, field func(*T) *int) statColumn[T] {
	return statColumn[T]{label: label, width: max(len(label), 3) + 1, kind: cellCount, field: func(r *T) any { return field(r) }}
}

func sideCol[T any](field func(*T) *int) statColumn[T] {
	return statColumn[T]{label: "Side", width: 5, kind: cellSide, field: func(r *T) any { return field(r) }}
}

func flagCol[T any](label string, field func(*T) *bool) statColumn[T] {
	return statColumn[T]{label: label, width: len(label) + 1, kind: cellFlag, field: func(r *T) any { return field(r) }}
}

func nameCol[T any](label string, width int, field func(*T) *string, suggest func(models.MatchGameBaseData, bool) []string) statColumn[T] {
	return statColumn[T]{label: label, width: width, kind: cellName, field: func(r *T) any { return field(r) }, suggest: suggest}
}

func newTeamGrid(s *styles.Styles, base func() models.MatchGameBaseData) *statGrid[models.MatchTeamStats] {
	type t = models.MatchTeamStats
	return newStatGrid("Team stats", s, base,
		sideCol(func(r *t) *int { return &r.TeamType }),
		countCol("PTS", func(r *t) *int { return &r.Score }),
		countCol("FGM", func(r *t) *int { return &r.FGMade }),
		countCol("FGA", func(r *t) *int { return &r.FGAttempt }),
		countCol("3PM", func(r *t) *int { return &r.ThreeMade }),
		countCol("3PA", func(r *t) *int { return &r.ThreeAttempt }),
		countCol("AST", func(r *t) *int { return &r.Assist }),
		countCol("REB", func(r *t) *int { return &r.Rebound }),
		countCol("OREB", func(r *t) *int { return &r.OffRebound }),
		countCol("DREB", func(r *t) *int { return &r.DefRebound }),
		countCol("STL", func(r *t) *int { return &r.Steal }),
		countCol("BLK", func(r *t) *int { return &r.Block }),
		countCol("DNK", func(r *t) *int { return &r.Dunk }),
		countCol("PAINT", func(r *t) *int { return &r.PaintScore }),
		countCol("2ND", func(r *t) *int { return &r.SecondChanceScore }),
		countCol("TOPTS", func(r *t) *int { return &r.TurnoverToScore }),
		countCol("LEAD", func(r *t) *int { return &r.MaxLead }),
	)
}

func newPlayerGrid(s *styles.Styles, base func() models.MatchGameBaseData) *statGrid[models.MatchPlayerStats] {
	type p = models.MatchPlayerStats
	users := func(d models.MatchGameBaseData, opponent bool) []string {
		if opponent {
			return nil
		}
		return d.MyUserNames
	}
	players := func(d models.MatchGameBaseData, opponent bool) []string {
		if opponent {
			return d.OpponentPlayerNames
		}
		return d.MyPlayerNames
	}
	rating := statColumn[p]{label: "RTG", width: 5, kind: cellRating, field: func(r *p) any { return &r.Rating }}
	return newStatGrid("Player stats", s, base,
		sideCol(func(r *p) *int { return &r.TeamType }),
		nameCol("User", 12, func(r *p) *string { return &r.UserName }, users),
		nameCol("Player", 14, func(r *p) *string { return &r.PlayerName }, players),
		countCol("PTS", func(r *p) *int { return &r.Score }),
		countCol("AST", func(r *p) *int { return &r.Assist }),
		countCol("REB", func(r *p) *int { return &r.Rebound }),
		countCol("STL", func(r *p) *int { return &r.Steal }),
		countCol("BLK", func(r *p) *int { return &r.Block }),
		countCol("TO", func(r *p) *int { return &r.Turnover }),
		countCol("DNK", func(r *p) *int { return &r.Dunk }),
		countCol("MID", func(r *p) *int { return &r.MidCount }),
		countCol("FGM", func(r *p) *int { return &r.FGMade }),
		countCol("FGA", func(r *p) *int { return &r.FGAttempt }),
		countCol("3PM", func(r *p) *int { return &r.ThreeMade }),
		countCol("3PA", func(r *p) *int { return &r.ThreeAttempt }),
		countCol("RUN", func(r *p) *int { return &r.MaxScoringRun }),
		rating,
		flagCol("MVP", func(r *p) *bool { return &r.IsMVP }),
		flagCol("SVP", func(r *p) *bool { return &r.IsSVP }),
	)
}
