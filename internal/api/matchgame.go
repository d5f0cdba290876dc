package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tgienger/dash/internal/models"
)

// MatchGamePageInput selects a page of games, optionally within one season.
type MatchGamePageInput struct {
	PageNum  int     `json:"pageNum"`
	PageSize int     `json:"pageSize"`
	Season   *string `json:"season"`
}

// MatchGamePage fetches one page of games, newest first.
func (c *Client) MatchGamePage(ctx context.Context, in MatchGamePageInput) ([]models.MatchGame, error) {
	games, err := call[[]models.MatchGame](ctx, c, http.MethodPost, "/api/match-game/page", in, authOptional)
	if games == nil {
		games = []models.MatchGame{}
	}
	return games, err
}

// MatchGameDetail fetches a game with its team and player statistics.
func (c *Client) MatchGameDetail(ctx context.Context, id int64) (models.MatchGameDetail, error) {
	return call[models.MatchGameDetail](ctx, c, http.MethodGet, fmt.Sprintf("/api/match-game/detail/%d", id), nil, authOptional)
}

// MatchGameInput creates a game, or updates it when ID is set.
type MatchGameInput struct {
	ID              int64                     `json:"id,omitempty"`
	Season          string                    `json:"season"`
	SeasonMatchNo   int                       `json:"seasonMatchNo"`
	MatchTime       string                    `json:"matchTime"`
	IsRobot         bool                      `json:"isRobot"`
	MyScore         int                       `json:"myScore"`
	OppScore        int                       `json:"oppScore"`
	Result          bool                      `json:"result"`
	Remark          string                    `json:"remark"`
	TeamStatsList   []models.MatchTeamStats   `json:"teamStatsList"`
	PlayerStatsList []models.MatchPlayerStats `json:"playerStatsList"`
}

// CreateMatchGame records a game and returns its id.
func (c *Client) CreateMatchGame(ctx context.Context, in MatchGameInput) (int64, error) {
	in.ID = 0
	return call[int64](ctx, c, http.MethodPost, "/api/match-game/create", in, authRequired)
}

// UpdateMatchGame replaces a recorded game.
func (c *Client) UpdateMatchGame(ctx context.Context, in MatchGameInput) error {
	_, err := call[bool](ctx, c, http.MethodPut, "/api/match-game/update", in, authRequired)
	return err
}

// DeleteMatchGame deletes a game and its statistics.
func (c *Client) DeleteMatchGame(ctx context.Context, id int64) error {
	_, err := call[bool](ctx, c, http.MethodDelete, fmt.Sprintf("/api/match-game/delete/%d", id), nil, authRequired)
	return err
}

// MatchGameStatsInput selects the leaderboards to aggregate.
type MatchGameStatsInput struct {
	Season    *string               `json:"season"`
	Dimension models.StatsDimension `json:"dimension"`
}

// MatchGameStats fetches aggregated leaderboards.
func (c *Client) MatchGameStats(ctx context.Context, in MatchGameStatsInput) (models.MatchGameStats, error) {
	return call[models.MatchGameStats](ctx, c, http.MethodPost, "/api/match-game/stats", in, authOptional)
}

// MatchGameBaseData fetches seasons and known player names.
func (c *Client) MatchGameBaseData(ctx context.Context) (models.MatchGameBaseData, error) {
	return call[models.MatchGameBaseData](ctx, c, http.MethodGet, "/api/match-game/base-data", nil, authOptional)
}
