package dashboard

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/models"
)

func TestGames_SaveAndFilter(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	g := NewGames(env.client, 20, env.log)

	require.True(t, g.Save(bg, api.MatchGameInput{
		Season: "S1", SeasonMatchNo: 1, MatchTime: "2026-01-02T20:00", MyScore: 88, OppScore: 80, Result: true,
		PlayerStatsList: []models.MatchPlayerStats{
			{TeamType: models.TeamSelf, PlayerName: "Curry", UserName: "alice", Score: 31},
		},
	}))
	require.True(t, g.Save(bg, api.MatchGameInput{Season: "S2", SeasonMatchNo: 1, MatchTime: "2026-02-02T20:00:00"}))

	assert.Len(t, g.Page.Snapshot().Data, 2)
	assert.Equal(t, []string{"S1", "S2"}, g.BaseData.Snapshot().Data.Seasons)

	g.SetSeason(bg, "S1")
	games := g.Page.Snapshot().Data
	require.Len(t, games, 1)
	assert.Equal(t, "2026-01-02T20:00:00", games[0].MatchTime)

	detail, err := g.Detail(bg, games[0].ID)
	require.NoError(t, err)
	require.Len(t, detail.MyPlayerStats, 1)
	assert.Equal(t, 31, detail.MyPlayerStats[0].Score)

	g.SetDimension(bg, models.DimensionUser)
	stats := g.Stats.Snapshot().Data
	assert.Equal(t, models.DimensionUser, stats.Dimension)
	assert.Equal(t, "S1", stats.Season)

	require.True(t, g.Delete(bg, games[0].ID))
	assert.Empty(t, g.Page.Snapshot().Data)
}

func TestGames_EditDetailFailureKeepsStats(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	g := NewGames(env.client, 20, env.log)

	require.True(t, g.Save(bg, api.MatchGameInput{
		Season: "S1", SeasonMatchNo: 1, MatchTime: "2026-01-02T20:00",
		TeamStatsList:   []models.MatchTeamStats{{TeamType: models.TeamSelf, Score: 90}},
		PlayerStatsList: []models.MatchPlayerStats{{TeamType: models.TeamSelf, PlayerName: "Curry", Score: 31}},
	}))
	id := g.Page.Snapshot().Data[0].ID

	env.down.set("/api/match-game/detail/")
	_, ok := g.EditDetail(bg, id)
	assert.False(t, ok)
	assert.NotEmpty(t, g.SaveOp.Error())
	assert.Zero(t, env.srv.Hits(http.MethodPut, "/api/match-game/update"))

	env.down.set("")
	detail, ok := g.EditDetail(bg, id)
	require.True(t, ok)
	require.Len(t, detail.MyTeamStats, 1)
	assert.Equal(t, 90, detail.MyTeamStats[0].Score)
	require.Len(t, detail.MyPlayerStats, 1)
	assert.Equal(t, "Curry", detail.MyPlayerStats[0].PlayerName)
}

func TestGames_SaveReplacesBoxScore(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	g := NewGames(env.client, 20, env.log)

	in := api.MatchGameInput{
		Season: "S1", SeasonMatchNo: 3, MatchTime: "2026-01-02T20:00",
		PlayerStatsList: []models.MatchPlayerStats{
			{TeamType: models.TeamSelf, PlayerName: "Curry", Score: 31},
			{TeamType: models.TeamOpponent, PlayerName: "James", Score: 28},
		},
	}
	require.True(t, g.Save(bg, in))
	in.ID = g.Page.Snapshot().Data[0].ID

	before, err := g.Detail(bg, in.ID)
	require.NoError(t, err)
	require.Len(t, before.OpponentPlayerStats, 1)

	in.PlayerStatsList = in.PlayerStatsList[:1]
	in.PlayerStatsList[0].Score = 35
	require.True(t, g.Save(bg, in))

	after, err := g.Detail(bg, in.ID)
	require.NoError(t, err)
	assert.Empty(t, after.OpponentPlayerStats)
	require.Len(t, after.MyPlayerStats, 1)
	assert.Equal(t, 35, after.MyPlayerStats[0].Score)
	assert.Contains(t, g.BaseData.Snapshot().Data.MyPlayerNames, "Curry")
}

func TestValidateGame(t *testing.T) {
	t.Parallel()

	ok := api.MatchGameInput{Season: "S1", SeasonMatchNo: 1}
	assert.Empty(t, validateGame(ok))

	cases := map[string]func(in *api.MatchGameInput){
		"season":       func(in *api.MatchGameInput) { in.Season = " " },
		"match number": func(in *api.MatchGameInput) { in.SeasonMatchNo = 0 },
		"score":        func(in *api.MatchGameInput) { in.OppScore = -1 },
		"team side": func(in *api.MatchGameInput) {
			in.TeamStatsList = []models.MatchTeamStats{{}}
		},
		"player name": func(in *api.MatchGameInput) {
			in.PlayerStatsList = []models.MatchPlayerStats{{TeamType: models.TeamSelf}}
		},
	}
	for name, mutate := range cases {
		in := ok
		mutate(&in)
		assert.NotEmpty(t, validateGame(in), name)
	}
}

func TestFormatHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "45.5%", FormatPct(ptr(0.455)))
	assert.Equal(t, "0.0%", FormatPct(nil))
	assert.Equal(t, "W", WinnerText(models.MatchGame{Result: true}))
	assert.Equal(t, "L", WinnerText(models.MatchGame{}))
	assert.Equal(t, "Points", MetricLabel(models.MetricScore))
	assert.Equal(t, "NEW_METRIC", MetricLabel("NEW_METRIC"))
	assert.Equal(t, "-", FormatDatetime(""))
	assert.Equal(t, "garbage", FormatDatetime("garbage"))
	assert.Equal(t, "2026-01-02 20:00", FormatDatetime("2026-01-02T20:00:00"))
	assert.Equal(t, "2026-01-02T20:00:00", NormalizeLocalDateTime("2026-01-02T20:00"))
	assert.Equal(t, "12", RankValue(models.RankItem{Value: ptr(12.0)}))
	assert.Equal(t, "50.0% (5/10)", RankValue(models.RankItem{Made: ptr(5), Attempt: ptr(10), Rate: ptr(0.5)}))
}

type fakeCaps struct {
	authed bool
	perms  []string
}

func (f fakeCaps) IsAuthenticated() bool { return f.authed }

func (f fakeCaps) HasPermission(code string) bool {
	for _, p := range f.perms {
		if p == code {
			return true
		}
	}
	return false
}

func TestGate(t *testing.T) {
	t.Parallel()

	anon := fakeCaps{perms: []string{PermNoticeView}}
	admin := fakeCaps{authed: true, perms: []string{PermNoticeCreate, PermTodo}}
	viewer := fakeCaps{authed: true}

	assert.Equal(t, ControlDisabled, Gate(anon, PermNoticeCreate, true))
	assert.Equal(t, ControlHidden, Gate(anon, PermTodo, false))
	assert.Equal(t, ControlEnabled, Gate(admin, PermNoticeCreate, true))
	assert.Equal(t, ControlHidden, Gate(viewer, PermNoticeCreate, true))
}
