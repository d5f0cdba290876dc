package views

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/dashboard"
	"github.com/tgienger/dash/internal/models"
	"github.com/tgienger/dash/internal/ui/styles"
)

const (
	actionSaveGame   = "games.save"
	actionDeleteGame = "games.delete"
)

type gamesMode int

const (
	gamesList gamesMode = iota
	gamesDetail
	gamesStats
	gamesEditing
	gamesConfirm
)

type editorSection int

const (
	sectionGame editorSection = iota
	sectionTeams
	sectionPlayers
)

var sectionNames = []string{"Game", "Team stats", "Player stats"}

// boxState tracks the stored box score of the game being edited. Saving
// replaces it, so the editor only saves once it holds the stored one.
type boxState int

const (
	boxReady boxState = iota
	boxLoading
	boxFailed
)

type detailLoadedMsg struct {
	id     int64
	detail models.MatchGameDetail
	err    error
}

type editDetailMsg struct {
	id     int64
	detail models.MatchGameDetail
	ok     bool
}

// GamesView lists match results and season leaderboards.
type GamesView struct {
	deps  *Deps
	games *dashboard.Games

	width  int
	height int
	cursor int
	mode   gamesMode

	detailID  int64
	detail    *models.MatchGameDetail
	detailErr error

	editor       *form
	teams        *statGrid[models.MatchTeamStats]
	players      *statGrid[models.MatchPlayerStats]
	section      editorSection
	box          boxState
	editID       int64
	deleteTarget models.MatchGame
}

// NewGamesView creates the match-game screen over games.
func NewGamesView(deps *Deps, games *dashboard.Games) *GamesView {
	Watch(deps, games.Page)
	Watch(deps, games.BaseData)
	Watch(deps, games.Stats)
	base := func() models.MatchGameBaseData { return games.BaseData.Snapshot().Data }
	return &GamesView{
		deps:    deps,
		games:   games,
		teams:   newTeamGrid(deps.Styles, base),
		players: newPlayerGrid(deps.Styles, base),
		editor: newForm("New Game", "Save", deps.Styles).
			input("Season", "S1", 32).
			input("Match no.", "1", 4).
			input("Match time", "2006-01-02T15:04", 19).
			input("Our score", "0", 4).
			input("Their score", "0", 4).
			choice("Result", "Win", "Loss").
			choice("Opponent", "Human", "Robot").
			input("Remark", "", 200),
	}
}

func (v *GamesView) Name() string  { return "games" }
func (v *GamesView) Title() string { return "Games" }

func (v *GamesView) Capturing() bool { return v.mode == gamesEditing }

func (v *GamesView) Init() tea.Cmd {
	return refresh(v.deps.Ctx,
		func(ctx context.Context) { v.games.Page.Load(ctx) },
		func(ctx context.Context) { v.games.BaseData.Load(ctx) },
	)
}

func (v *GamesView) Reload() tea.Cmd {
	v.games.Details.ClearAll()
	return refresh(v.deps.Ctx, reloadCell(v.games.Page), reloadCell(v.games.BaseData), reloadCell(v.games.Stats))
}

func (v *GamesView) rows() []models.MatchGame { return v.games.Page.Snapshot().Data }

func (v *GamesView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.editor.setWidth(styles.ContentWidth(msg.Width))
		return v, nil

	case detailLoadedMsg:
		if msg.id == v.detailID {
			v.detailErr = msg.err
			if msg.err == nil {
				d := msg.detail
				v.detail = &d
			}
		}
		return v, nil

	case editDetailMsg:
		if v.mode != gamesEditing || msg.id != v.editID {
			return v, nil
		}
		if !msg.ok {
			v.box = boxFailed
			return v, nil
		}
		v.box = boxReady
		v.games.SaveOp.Reset()
		d := msg.detail
		v.teams.load(slices.Concat(d.MyTeamStats, d.OpponentTeamStats))
		v.players.load(slices.Concat(d.MyPlayerStats, d.OpponentPlayerStats))
		return v, nil

	case ActionDoneMsg:
		switch msg.Action {
		case actionSaveGame:
			if msg.OK {
				v.mode = gamesList
			}
		case actionDeleteGame:
			v.cursor = moveCursor(v.cursor, 0, len(v.rows()))
		}
		return v, nil

	case tea.KeyMsg:
		switch v.mode {
		case gamesEditing:
			return v.updateEditing(msg)
		case gamesConfirm:
			if yes, decided := confirmKey(msg); decided {
				v.mode = gamesList
				if yes {
					id := v.deleteTarget.ID
					return v, run(actionDeleteGame, func() bool { return v.games.Delete(v.deps.Ctx, id) })
				}
			}
			return v, nil
		case gamesDetail:
			if key.Matches(msg, v.deps.Keys.Back) || key.Matches(msg, v.deps.Keys.Enter) {
				v.mode = gamesList
			}
			return v, nil
		case gamesStats:
			return v.updateStats(msg)
		}
		return v.updateList(msg)
	}
	return v, nil
}

func (v *GamesView) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := v.deps.Keys
	rows := v.rows()

	switch {
	case key.Matches(msg, km.Up):
		v.cursor = moveCursor(v.cursor, -1, len(rows))
	case key.Matches(msg, km.Down):
		v.cursor = moveCursor(v.cursor, 1, len(rows))
	case key.Matches(msg, km.Left):
		v.cursor = 0
		return v, refresh(v.deps.Ctx, func(ctx context.Context) { v.games.SetPage(ctx, v.games.PageNum()-1) })
	case key.Matches(msg, km.Right):
		v.cursor = 0
		return v, refresh(v.deps.Ctx, func(ctx context.Context) { v.games.SetPage(ctx, v.games.PageNum()+1) })
	case key.Matches(msg, km.Season):
		v.cursor = 0
		return v, v.cycleSeason()
	case key.Matches(msg, km.Stats):
		v.mode = gamesStats
		return v, refresh(v.deps.Ctx, func(ctx context.Context) { v.games.Stats.Load(ctx) })
	case key.Matches(msg, km.Refresh):
		return v, v.Reload()
	case key.Matches(msg, km.Enter):
		if v.cursor < len(rows) {
			return v, v.openDetail(rows[v.cursor].ID)
		}
	}

	if !v.deps.Session.IsAuthenticated() {
		return v, nil
	}
	switch {
	case key.Matches(msg, km.New):
		return v, v.startEdit(nil)
	case key.Matches(msg, km.Edit):
		if v.cursor < len(rows) {
			return v, v.startEdit(&rows[v.cursor])
		}
	case key.Matches(msg, km.Delete):
		if v.cursor < len(rows) {
			v.games.DeleteOp.Reset()
			v.deleteTarget = rows[v.cursor]
			v.mode = gamesConfirm
		}
	}
	return v, nil
}

func (v *GamesView) updateStats(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := v.deps.Keys
	switch {
	case key.Matches(msg, km.Back), key.Matches(msg, km.Stats):
		v.mode = gamesList
	case key.Matches(msg, km.Dimension):
		next := models.DimensionUser
		if v.games.Dimension() == models.DimensionUser {
			next = models.DimensionPlayer
		}
		return v, refresh(v.deps.Ctx, func(ctx context.Context) { v.games.SetDimension(ctx, next) })
	case key.Matches(msg, km.Season):
		return v, v.cycleSeason()
	case key.Matches(msg, km.Refresh):
		return v, refresh(v.deps.Ctx, reloadCell(v.games.Stats))
	}
	return v, nil
}

// cycleSeason steps the season filter through "all" and the known seasons.
func (v *GamesView) cycleSeason() tea.Cmd {
	seasons := append([]string{""}, v.games.BaseData.Snapshot().Data.Seasons...)
	cur := 0
	for i, s := range seasons {
		if s == v.games.Season() {
			cur = i
		}
	}
	next := seasons[(cur+1)%len(seasons)]
	return refresh(v.deps.Ctx, func(ctx context.Context) { v.games.SetSeason(ctx, next) })
}

func (v *GamesView) openDetail(id int64) tea.Cmd {
	v.mode = gamesDetail
	v.detailID = id
	v.detail = nil
	v.detailErr = nil
	ctx := v.deps.Ctx
	return func() tea.Msg {
		d, err := v.games.Detail(ctx, id)
		return detailLoadedMsg{id: id, detail: d, err: err}
	}
}

func (v *GamesView) startEdit(g *models.MatchGame) tea.Cmd {
	v.games.SaveOp.Reset()
	v.editor.reset()
	v.editor.suggest(0, v.games.BaseData.Snapshot().Data.Seasons)
	v.teams.load(nil)
	v.players.load(nil)
	v.setSection(sectionGame)
	v.box = boxReady
	v.editID = 0
	v.editor.title = "New Game"
	v.mode = gamesEditing

	if g == nil {
		if s := v.games.Season(); s != "" {
			v.editor.set(0, s)
		}
		v.editor.set(1, "1")
		return v.editor.open()
	}

	v.editID = g.ID
	v.editor.title = "Edit Game"
	v.editor.set(0, g.Season)
	v.editor.set(1, strconv.Itoa(g.SeasonMatchNo))
	v.editor.set(2, strings.TrimSuffix(g.MatchTime, ":00"))
	v.editor.set(3, strconv.Itoa(g.MyScore))
	v.editor.set(4, strconv.Itoa(g.OppScore))
	if !g.Result {
		v.editor.set(5, "Loss")
	}
	if g.IsRobot {
		v.editor.set(6, "Robot")
	}
	v.editor.set(7, g.Remark)
	return tea.Batch(v.editor.open(), v.loadBox(g.ID))
}

// loadBox fetches the stored box score of game id for the editor.
func (v *GamesView) loadBox(id int64) tea.Cmd {
	v.box = boxLoading
	ctx := v.deps.Ctx
	return func() tea.Msg {
		d, ok := v.games.EditDetail(ctx, id)
		return editDetailMsg{id: id, detail: d, ok: ok}
	}
}

func (v *GamesView) setSection(s editorSection) {
	v.section = s
	v.teams.setActive(s == sectionTeams)
	v.players.setActive(s == sectionPlayers)
}

func (v *GamesView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := v.deps.Keys
	if key.Matches(msg, km.Section) {
		v.setSection((v.section + 1) % editorSection(len(sectionNames)))
		return v, nil
	}

	if v.section == sectionGame {
		res, cmd := v.editor.update(msg, km)
		switch res {
		case formCancelled:
			v.mode = gamesList
			return v, nil
		case formSubmitted:
			return v, v.submit()
		}
		return v, cmd
	}

	switch {
	case key.Matches(msg, km.Back):
		v.mode = gamesList
		return v, nil
	case key.Matches(msg, km.Save):
		return v, v.submit()
	case v.box != boxReady:
		return v, nil
	case v.section == sectionTeams:
		return v, v.teams.update(msg, km)
	}
	return v, v.players.update(msg, km)
}

// submit saves the edited game. Nothing is sent until the stored box score
// has been read; after a failed read, saving retries the read instead.
func (v *GamesView) submit() tea.Cmd {
	switch v.box {
	case boxLoading:
		v.games.SaveOp.Reject("Box score is still loading")
		return nil
	case boxFailed:
		return v.loadBox(v.editID)
	}

	in, err := v.gameInput()
	if err != nil {
		v.games.SaveOp.Reject(err.Error())
		return nil
	}
	ctx := v.deps.Ctx
	return run(actionSaveGame, func() bool { return v.games.Save(ctx, in) })
}

// gameInput reads the editor. Numbers that do not parse are reported, not
// zeroed.
func (v *GamesView) gameInput() (api.MatchGameInput, error) {
	f := v.editor
	var nums [3]int
	for i, field := range []int{1, 3, 4} {
		n, err := parseCount(f.fields[field].label, f.value(field))
		if err != nil {
			return api.MatchGameInput{}, err
		}
		nums[i] = n
	}
	teams, err := v.teams.collect()
	if err != nil {
		return api.MatchGameInput{}, err
	}
	players, err := v.players.collect()
	if err != nil {
		return api.MatchGameInput{}, err
	}

	return api.MatchGameInput{
		ID:              v.editID,
		Season:          f.value(0),
		SeasonMatchNo:   nums[0],
		MatchTime:       f.value(2),
		MyScore:         nums[1],
		OppScore:        nums[2],
		Result:          f.chosen(5) == 0,
		IsRobot:         f.chosen(6) == 1,
		Remark:          f.value(7),
		TeamStatsList:   teams,
		PlayerStatsList: players,
	}, nil
}

func (v *GamesView) renderEditor() string {
	s := v.deps.Styles
	var tabs []string
	for i, name := range sectionNames {
		if editorSection(i) == v.section {
			tabs = append(tabs, s.TabActive.Render(name))
		} else {
			tabs = append(tabs, s.Tab.Render(name))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "  " + s.TitleMuted.Render("C-t: next section")

	status := opStatus(s, v.games.SaveOp)
	switch v.box {
	case boxLoading:
		if status == "" {
			status = s.TitleMuted.Render("Loading box score...")
		}
	case boxFailed:
		status += s.TitleMuted.Render("  C-s retries")
	}

	if v.section == sectionGame {
		return lipgloss.JoinVertical(lipgloss.Left, header, v.editor.view(status, max(v.height-1, 0)))
	}

	width := styles.ContentWidth(v.width)
	var grid string
	if v.section == sectionTeams {
		grid = v.teams.view(width)
	} else {
		grid = v.players.view(width)
	}
	rows := []string{header, "", s.Title.Render(v.editor.title), "", grid, ""}
	if status != "" {
		rows = append(rows, status, "")
	}
	rows = append(rows, helpLine(s, "tab", "next cell", "↑/↓", "row", "space", "toggle",
		"C-a", "add row", "C-x", "remove row", "C-s", "save", "esc", "cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// View renders the view
func (v *GamesView) View() string {
	s := v.deps.Styles
	switch v.mode {
	case gamesEditing:
		return v.renderEditor()
	case gamesConfirm:
		g := v.deleteTarget
		return confirmDelete(s, "Game", fmt.Sprintf("%s #%d  %d:%d", g.Season, g.SeasonMatchNo, g.MyScore, g.OppScore), v.width, v.height)
	case gamesDetail:
		return v.renderDetail()
	case gamesStats:
		return v.renderStats()
	}

	season := v.games.Season()
	if season == "" {
		season = "all seasons"
	}
	st := v.games.Page.Snapshot()
	rows := []string{
		s.Title.Render("Games") + "  " + s.TitleMuted.Render(fmt.Sprintf("%s • page %d", season, v.games.PageNum())),
		"",
	}
	for _, line := range []string{cellStatus(s, st), opStatus(s, v.games.DeleteOp)} {
		if line != "" {
			rows = append(rows, line)
		}
	}
	if st.Loaded && len(st.Data) == 0 {
		rows = append(rows, s.TitleMuted.Render("No games recorded"))
	}

	width := max(styles.ContentWidth(v.width)-2, 20)
	for i, g := range st.Data {
		result := s.Success.Render(dashboard.WinnerText(g))
		if !g.Result {
			result = s.Error.Render(dashboard.WinnerText(g))
		}
		opp := ""
		if g.IsRobot {
			opp = s.TitleMuted.Render(" vs robot")
		}
		line := fmt.Sprintf("%-6s #%-3d %s  %s %3d:%-3d%s  %s",
			g.Season, g.SeasonMatchNo, dashboard.FormatDatetime(g.MatchTime), result, g.MyScore, g.OppScore, opp, g.Remark)
		if i == v.cursor {
			rows = append(rows, s.RowSelected.Width(width).Render(line))
		} else {
			rows = append(rows, s.Row.Render(line))
		}
	}

	if v.deps.Session.IsAuthenticated() {
		rows = append(rows, helpLine(s, "↵", "box score", "←/→", "page", "s", "season", "S", "leaderboards", "n", "new", "e", "edit", "d", "delete"))
	} else {
		rows = append(rows, helpLine(s, "↵", "box score", "←/→", "page", "s", "season", "S", "leaderboards"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *GamesView) renderDetail() string {
	s := v.deps.Styles
	switch {
	case v.detailErr != nil:
		return s.Error.Render("⚠ "+v.detailErr.Error()) + "\n" + helpLine(s, "esc", "back")
	case v.detail == nil:
		return s.TitleMuted.Render("Loading...")
	}
	d := v.detail
	g := d.MatchGame
	rows := []string{
		s.Title.Render(fmt.Sprintf("%s #%d", g.Season, g.SeasonMatchNo)) + "  " +
			s.TitleMuted.Render(dashboard.FormatDatetime(g.MatchTime)),
		fmt.Sprintf("%s  %d : %d", dashboard.WinnerText(g), g.MyScore, g.OppScore),
		"",
	}
	rows = append(rows, s.Title.Render("Us"))
	rows = append(rows, renderTeam(d.MyTeamStats)...)
	rows = append(rows, renderPlayers(s, d.MyPlayerStats)...)
	rows = append(rows, "", s.Title.Render("Them"))
	rows = append(rows, renderTeam(d.OpponentTeamStats)...)
	rows = append(rows, renderPlayers(s, d.OpponentPlayerStats)...)
	rows = append(rows, helpLine(s, "esc", "back"))
	return strings.Join(rows, "\n")
}

func renderTeam(stats []models.MatchTeamStats) []string {
	var out []string
	for _, t := range stats {
		out = append(out, fmt.Sprintf("  FG %d/%d  3PT %d/%d  REB %d (O%d D%d)  AST %d  STL %d  BLK %d  lead %d",
			t.FGMade, t.FGAttempt, t.ThreeMade, t.ThreeAttempt, t.Rebound, t.OffRebound, t.DefRebound,
			t.Assist, t.Steal, t.Block, t.MaxLead))
	}
	return out
}

func renderPlayers(s *styles.Styles, players []models.MatchPlayerStats) []string {
	if len(players) == 0 {
		return nil
	}
	out := []string{s.TitleMuted.Render(fmt.Sprintf("  %-14s %4s %4s %4s %4s %7s %5s", "player", "PTS", "REB", "AST", "STL", "FG", "RTG"))}
	for _, p := range players {
		name := p.PlayerName
		if p.IsMVP {
			name += " ★"
		} else if p.IsSVP {
			name += " ☆"
		}
		out = append(out, fmt.Sprintf("  %-14s %4d %4d %4d %4d %3d/%-3d %5.1f",
			name, p.Score, p.Rebound, p.Assist, p.Steal, p.FGMade, p.FGAttempt, p.Rating))
	}
	return out
}

func (v *GamesView) renderStats() string {
	s := v.deps.Styles
	st := v.games.Stats.Snapshot()
	season := v.games.Season()
	if season == "" {
		season = "all seasons"
	}
	dim := "players"
	if v.games.Dimension() == models.DimensionUser {
		dim = "users"
	}
	rows := []string{s.Title.Render("Leaderboards") + "  " + s.TitleMuted.Render(season+" • by "+dim), ""}
	if line := cellStatus(s, st); line != "" {
		rows = append(rows, line)
	}

	colWidth := 30
	perRow := max(styles.ContentWidth(v.width)/colWidth, 1)
	var boards, line []string
	for _, lb := range st.Data.Leaderboards {
		col := []string{s.HelpKey.Render(dashboard.MetricLabel(lb.Metric))}
		for i, item := range lb.Items {
			if i == 5 {
				break
			}
			col = append(col, fmt.Sprintf("%d. %-12s %s", i+1, item.Name, dashboard.RankValue(item)))
		}
		line = append(line, lipgloss.NewStyle().Width(colWidth).MarginBottom(1).Render(strings.Join(col, "\n")))
		if len(line) == perRow {
			boards = append(boards, lipgloss.JoinHorizontal(lipgloss.Top, line...))
			line = nil
		}
	}
	if len(line) > 0 {
		boards = append(boards, lipgloss.JoinHorizontal(lipgloss.Top, line...))
	}
	rows = append(rows, boards...)
	rows = append(rows, helpLine(s, "v", "players/users", "s", "season", "esc", "back"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
