package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/cache"
	"github.com/tgienger/dash/internal/models"
)

// Games is the match-game screen: a results list and season leaderboards.
type Games struct {
	Page     *cache.Cell[[]models.MatchGame]
	BaseData *cache.Cell[models.MatchGameBaseData]
	Stats    *cache.Cell[models.MatchGameStats]
	Details  *cache.Keyed[int64, models.MatchGameDetail]

	SaveOp   *Mutation[api.MatchGameInput]
	DeleteOp *Mutation[int64]

	pageSize int

	mu        sync.Mutex
	pageNum   int
	season    string
	dimension models.StatsDimension
}

// NewGames wires the match-game screen to client.
func NewGames(client *api.Client, pageSize int, logger *slog.Logger) *Games {
	log := logger.With("screen", "games")
	if pageSize < 1 {
		pageSize = 20
	}
	g := &Games{pageSize: pageSize, pageNum: 1, dimension: models.DimensionPlayer}

	g.Page = cache.New("games.page", func(ctx context.Context) ([]models.MatchGame, error) {
		return client.MatchGamePage(ctx, api.MatchGamePageInput{
			PageNum:  g.PageNum(),
			PageSize: g.pageSize,
			Season:   g.seasonFilter(),
		})
	}, cache.WithLogger(log))
	g.BaseData = cache.New("games.base", client.MatchGameBaseData, cache.WithLogger(log))
	g.Stats = cache.New("games.stats", func(ctx context.Context) (models.MatchGameStats, error) {
		return client.MatchGameStats(ctx, api.MatchGameStatsInput{Season: g.seasonFilter(), Dimension: g.Dimension()})
	}, cache.WithLogger(log))
	g.Details = cache.NewKeyed(client.MatchGameDetail)

	g.SaveOp = NewMutation("save match game", "save game failed",
		func(ctx context.Context, in api.MatchGameInput) error {
			if in.ID == 0 {
				_, err := client.CreateMatchGame(ctx, in)
				return err
			}
			return client.UpdateMatchGame(ctx, in)
		}, log).
		Validate(validateGame)
	g.DeleteOp = NewMutation("delete match game", "delete game failed", client.DeleteMatchGame, log)
	return g
}

// PageNum is the current results page, starting at 1.
func (g *Games) PageNum() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pageNum
}

// Season is the season filter, "" for all seasons.
func (g *Games) Season() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.season
}

func (g *Games) seasonFilter() *string {
	if s := g.Season(); s != "" {
		return &s
	}
	return nil
}

// Dimension is the leaderboard grouping.
func (g *Games) Dimension() models.StatsDimension {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dimension
}

// SetSeason filters results and leaderboards by season and reloads both.
func (g *Games) SetSeason(ctx context.Context, season string) {
	g.mu.Lock()
	g.season = strings.TrimSpace(season)
	g.pageNum = 1
	g.mu.Unlock()
	g.Page.Refresh(ctx)
	g.Stats.Refresh(ctx)
}

// SetDimension switches leaderboards between players and users.
func (g *Games) SetDimension(ctx context.Context, d models.StatsDimension) {
	g.mu.Lock()
	g.dimension = d
	g.mu.Unlock()
	g.Stats.Refresh(ctx)
}

// SetPage moves to results page n. A short page means there is no next one.
func (g *Games) SetPage(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}
	if n > g.PageNum() && len(g.Page.Snapshot().Data) < g.pageSize {
		return
	}
	g.mu.Lock()
	g.pageNum = n
	g.mu.Unlock()
	g.Page.Refresh(ctx)
}

// Detail loads a game with its statistics.
func (g *Games) Detail(ctx context.Context, id int64) (models.MatchGameDetail, error) {
	return g.Details.Load(ctx, id)
}

// EditDetail fetches the stored game for the editor, bypassing the detail
// cache. On failure the error is reported through SaveOp and ok is false:
// an update replaces the whole box score, so the editor must not save one
// it could not read.
func (g *Games) EditDetail(ctx context.Context, id int64) (detail models.MatchGameDetail, ok bool) {
	g.Details.Clear(ctx, id)
	d, err := g.Details.Load(ctx, id)
	if err != nil {
		g.SaveOp.Fail(ctx, err)
		return models.MatchGameDetail{}, false
	}
	return d, true
}

// Save records a new game (in.ID zero) or replaces one, box score included.
func (g *Games) Save(ctx context.Context, in api.MatchGameInput) bool {
	in.Season = strings.TrimSpace(in.Season)
	in.MatchTime = NormalizeLocalDateTime(in.MatchTime)
	if !g.SaveOp.Run(ctx, in) {
		return false
	}
	if in.ID != 0 {
		g.Details.Clear(ctx, in.ID)
	}
	g.refreshAfterWrite(ctx)
	return true
}

// Delete removes a game.
func (g *Games) Delete(ctx context.Context, id int64) bool {
	if !g.DeleteOp.Run(ctx, id) {
		return false
	}
	g.Details.Clear(ctx, id)
	g.refreshAfterWrite(ctx)
	return true
}

func validateGame(in api.MatchGameInput) string {
	if p := required("season", in.Season); p != "" {
		return p
	}
	switch {
	case in.SeasonMatchNo < 1:
		return "match no. must be at least 1"
	case in.MyScore < 0 || in.OppScore < 0:
		return "scores must not be negative"
	}
	for _, t := range in.TeamStatsList {
		if t.TeamType != models.TeamSelf && t.TeamType != models.TeamOpponent {
			return "team stats need a side"
		}
	}
	for _, p := range in.PlayerStatsList {
		if blank(p.PlayerName) {
			return "player name is required"
		}
	}
	return ""
}

func (g *Games) refreshAfterWrite(ctx context.Context) {
	g.Page.Refresh(ctx)
	g.Stats.Refresh(ctx)
	g.BaseData.Refresh(ctx)
}

// WinnerText labels a game result.
func WinnerText(game models.MatchGame) string {
	if game.Result {
		return "W"
	}
	return "L"
}

// FormatPct renders a 0..1 rate as a percentage with one decimal.
// A missing rate reads as 0.0%.
func FormatPct(rate *float64) string {
	v := 0.0
	if rate != nil && !math.IsNaN(*rate) {
		v = *rate
	}
	return fmt.Sprintf("%.1f%%", v*100)
}

// FormatDatetime renders a server timestamp for display, "-" when empty and
// the raw value when it cannot be parsed.
func FormatDatetime(value string) string {
	if value == "" {
		return "-"
	}
	t := models.ParseTime(value)
	if t.IsZero() {
		return value
	}
	return t.Format("2006-01-02 15:04")
}

// NormalizeLocalDateTime appends seconds to a YYYY-MM-DDTHH:mm value.
func NormalizeLocalDateTime(value string) string {
	if len(value) == len("2006-01-02T15:04") {
		return value + ":00"
	}
	return value
}

var metricLabels = map[models.StatsMetric]string{
	models.MetricAppearances: "Appearances",
	models.MetricScore:       "Points",
	models.MetricRebound:     "Rebounds",
	models.MetricAssist:      "Assists",
	models.MetricSteal:       "Steals",
	models.MetricBlock:       "Blocks",
	models.MetricFGAttempt:   "FG attempts",
	models.MetricFGMade:      "FG made",
	models.MetricFGPct:       "FG %",
	models.MetricThreeAtt:    "3PT attempts",
	models.MetricThreeMade:   "3PT made",
	models.MetricThreePct:    "3PT %",
	models.MetricMVP:         "MVP",
	models.MetricSVP:         "SVP",
	models.MetricTurnover:    "Turnovers",
}

// MetricLabel names a leaderboard; unknown metrics show their code.
func MetricLabel(m models.StatsMetric) string {
	if l, ok := metricLabels[m]; ok {
		return l
	}
	return string(m)
}

// RankValue renders one leaderboard row's figure.
func RankValue(item models.RankItem) string {
	if item.Rate != nil || item.Made != nil {
		made, attempt := 0, 0
		if item.Made != nil {
			made = *item.Made
		}
		if item.Attempt != nil {
			attempt = *item.Attempt
		}
		return fmt.Sprintf("%s (%d/%d)", FormatPct(item.Rate), made, attempt)
	}
	if item.Value == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *item.Value)
}
