package mockapi

import (
	"cmp"
	"slices"

	"github.com/tgienger/dash/internal/models"
)

const leaderboardSize = 10

var allMetrics = []models.StatsMetric{
	models.MetricAppearances, models.MetricScore, models.MetricRebound, models.MetricAssist,
	models.MetricSteal, models.MetricBlock, models.MetricFGAttempt, models.MetricFGMade,
	models.MetricFGPct, models.MetricThreeAtt, models.MetricThreeMade, models.MetricThreePct,
	models.MetricMVP, models.MetricSVP, models.MetricTurnover,
}

func (s *store) gamePage(pageNum, pageSize int, season *string) []models.MatchGame {
	s.mu.Lock()
	defer s.mu.Unlock()

	var games []models.MatchGame
	for _, g := range s.games {
		if season != nil && *season != "" && g.game.Season != *season {
			continue
		}
		games = append(games, g.game)
	}
	slices.SortStableFunc(games, func(a, b models.MatchGame) int {
		return cmp.Compare(b.MatchTime, a.MatchTime)
	})

	if pageNum < 1 {
		pageNum = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := min((pageNum-1)*pageSize, len(games))
	end := min(start+pageSize, len(games))
	return append([]models.MatchGame{}, games[start:end]...)
}

func (s *store) gameLocked(id int64) *gameRecord {
	for _, g := range s.games {
		if g.game.ID == id {
			return g
		}
	}
	return nil
}

func (s *store) gameDetail(id int64) (models.MatchGameDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.gameLocked(id)
	if g == nil {
		return models.MatchGameDetail{}, errNotFound
	}

	d := models.MatchGameDetail{
		MatchGame:           g.game,
		MyTeamStats:         []models.MatchTeamStats{},
		OpponentTeamStats:   []models.MatchTeamStats{},
		MyPlayerStats:       []models.MatchPlayerStats{},
		OpponentPlayerStats: []models.MatchPlayerStats{},
	}
	for _, t := range g.teams {
		if t.TeamType == models.TeamSelf {
			d.MyTeamStats = append(d.MyTeamStats, t)
		} else {
			d.OpponentTeamStats = append(d.OpponentTeamStats, t)
		}
	}
	for _, p := range g.players {
		if p.TeamType == models.TeamSelf {
			d.MyPlayerStats = append(d.MyPlayerStats, p)
		} else {
			d.OpponentPlayerStats = append(d.OpponentPlayerStats, p)
		}
	}
	return d, nil
}

// saveGame creates a game when game.ID is zero and replaces it otherwise.
func (s *store) saveGame(game models.MatchGame, teams []models.MatchTeamStats, players []models.MatchPlayerStats) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &gameRecord{game: game}
	if game.ID == 0 {
		rec.game.ID = s.id()
		rec.game.CreateTime = s.stamp()
		s.games = append(s.games, rec)
	} else {
		existing := s.gameLocked(game.ID)
		if existing == nil {
			return 0, errNotFound
		}
		rec.game.CreateTime = existing.game.CreateTime
		*existing = *rec
		rec = existing
	}

	rec.teams = rec.teams[:0]
	for _, t := range teams {
		t.ID, t.MatchID = s.id(), rec.game.ID
		rec.teams = append(rec.teams, t)
	}
	rec.players = rec.players[:0]
	for _, p := range players {
		p.ID, p.MatchID = s.id(), rec.game.ID
		rec.players = append(rec.players, p)
	}
	return rec.game.ID, nil
}

func (s *store) deleteGame(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.games, func(g *gameRecord) bool { return g.game.ID == id })
	if i < 0 {
		return errNotFound
	}
	s.games = slices.Delete(s.games, i, i+1)
	return nil
}

func (s *store) gameBaseData() models.MatchGameBaseData {
	s.mu.Lock()
	defer s.mu.Unlock()

	var d models.MatchGameBaseData
	for _, g := range s.games {
		d.Seasons = appendUnique(d.Seasons, g.game.Season)
		for _, p := range g.players {
			if p.TeamType == models.TeamSelf {
				d.MyPlayerNames = appendUnique(d.MyPlayerNames, p.PlayerName)
				d.MyUserNames = appendUnique(d.MyUserNames, p.UserName)
			} else {
				d.OpponentPlayerNames = appendUnique(d.OpponentPlayerNames, p.PlayerName)
			}
		}
	}
	for _, list := range []*[]string{&d.Seasons, &d.MyPlayerNames, &d.OpponentPlayerNames, &d.MyUserNames} {
		if *list == nil {
			*list = []string{}
		}
		slices.Sort(*list)
	}
	return d
}

func appendUnique(list []string, v string) []string {
	if v == "" || slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}

type playerTotals struct {
	appearances  int
	score        int
	rebound      int
	assist       int
	steal        int
	block        int
	turnover     int
	fgAttempt    int
	fgMade       int
	threeAttempt int
	threeMade    int
	mvp          int
	svp          int
}

// gameStats aggregates the own team's player lines into leaderboards, keyed
// by player name or by user name depending on dimension.
func (s *store) gameStats(season *string, dimension models.StatsDimension) models.MatchGameStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := map[string]*playerTotals{}
	for _, g := range s.games {
		if season != nil && *season != "" && g.game.Season != *season {
			continue
		}
		for _, p := range g.players {
			if p.TeamType != models.TeamSelf {
				continue
			}
			name := p.PlayerName
			if dimension == models.DimensionUser {
				name = p.UserName
			}
			if name == "" {
				continue
			}
			t, ok := totals[name]
			if !ok {
				t = &playerTotals{}
				totals[name] = t
			}
			t.appearances++
			t.score += p.Score
			t.rebound += p.Rebound
			t.assist += p.Assist
			t.steal += p.Steal
			t.block += p.Block
			t.turnover += p.Turnover
			t.fgAttempt += p.FGAttempt
			t.fgMade += p.FGMade
			t.threeAttempt += p.ThreeAttempt
			t.threeMade += p.ThreeMade
			if p.IsMVP {
				t.mvp++
			}
			if p.IsSVP {
				t.svp++
			}
		}
	}

	stats := models.MatchGameStats{Dimension: dimension, Leaderboards: make([]models.Leaderboard, 0, len(allMetrics))}
	if season != nil {
		stats.Season = *season
	}
	for _, metric := range allMetrics {
		stats.Leaderboards = append(stats.Leaderboards, leaderboard(metric, totals))
	}
	return stats
}

func leaderboard(metric models.StatsMetric, totals map[string]*playerTotals) models.Leaderboard {
	type row struct {
		item models.RankItem
		key  float64
	}
	rows := make([]row, 0, len(totals))
	for name, t := range totals {
		item := models.RankItem{Name: name}
		var key float64
		switch metric {
		case models.MetricFGPct, models.MetricThreePct:
			made, attempt := t.fgMade, t.fgAttempt
			if metric == models.MetricThreePct {
				made, attempt = t.threeMade, t.threeAttempt
			}
			if attempt == 0 {
				continue
			}
			rate := float64(made) / float64(attempt)
			item.Made, item.Attempt, item.Rate = &made, &attempt, &rate
			key = rate
		default:
			v := float64(counter(metric, t))
			item.Value = &v
			key = v
		}
		rows = append(rows, row{item: item, key: key})
	}

	slices.SortFunc(rows, func(a, b row) int {
		if c := cmp.Compare(b.key, a.key); c != 0 {
			return c
		}
		return cmp.Compare(a.item.Name, b.item.Name)
	})
	lb := models.Leaderboard{Metric: metric, Items: []models.RankItem{}}
	for i := 0; i < len(rows) && i < leaderboardSize; i++ {
		lb.Items = append(lb.Items, rows[i].item)
	}
	return lb
}

func counter(metric models.StatsMetric, t *playerTotals) int {
	switch metric {
	case models.MetricAppearances:
		return t.appearances
	case models.MetricScore:
		return t.score
	case models.MetricRebound:
		return t.rebound
	case models.MetricAssist:
		return t.assist
	case models.MetricSteal:
		return t.steal
	case models.MetricBlock:
		return t.block
	case models.MetricTurnover:
		return t.turnover
	case models.MetricFGAttempt:
		return t.fgAttempt
	case models.MetricFGMade:
		return t.fgMade
	case models.MetricThreeAtt:
		return t.threeAttempt
	case models.MetricThreeMade:
		return t.threeMade
	case models.MetricMVP:
		return t.mvp
	case models.MetricSVP:
		return t.svp
	}
	return 0
}
