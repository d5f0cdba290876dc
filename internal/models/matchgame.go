package models

// Team discriminators used by match statistics
const (
	TeamSelf     = 1
	TeamOpponent = 2
)

// StatsDimension selects how leaderboards are aggregated
type StatsDimension string

const (
	DimensionPlayer StatsDimension = "PLAYER"
	DimensionUser   StatsDimension = "USER"
)

// StatsMetric names one leaderboard
type StatsMetric string

const (
	MetricAppearances StatsMetric = "APPEARANCES"
	MetricScore       StatsMetric = "SCORE"
	MetricRebound     StatsMetric = "REBOUND"
	MetricAssist      StatsMetric = "ASSIST"
	MetricSteal       StatsMetric = "STEAL"
	MetricBlock       StatsMetric = "BLOCK"
	MetricFGAttempt   StatsMetric = "FG_ATTEMPT"
	MetricFGMade      StatsMetric = "FG_MADE"
	MetricFGPct       StatsMetric = "FG_PCT"
	MetricThreeAtt    StatsMetric = "THREE_ATTEMPT"
	MetricThreeMade   StatsMetric = "THREE_MADE"
	MetricThreePct    StatsMetric = "THREE_PCT"
	MetricMVP         StatsMetric = "MVP"
	MetricSVP         StatsMetric = "SVP"
	MetricTurnover    StatsMetric = "TURNOVER"
)

// MatchGame represents one recorded game
type MatchGame struct {
	ID            int64  `json:"id"`
	Season        string `json:"season"`
	SeasonMatchNo int    `json:"seasonMatchNo"`
	MatchTime     string `json:"matchTime"`
	IsRobot       bool   `json:"isRobot"`
	MyScore       int    `json:"myScore"`
	OppScore      int    `json:"oppScore"`
	Result        bool   `json:"result"` // true = win
	Remark        string `json:"remark,omitempty"`
	CreateTime    string `json:"createTime,omitempty"`
}

// MatchTeamStats holds team totals for one side of a game
type MatchTeamStats struct {
	ID                int64 `json:"id,omitempty"`
	MatchID           int64 `json:"matchId,omitempty"`
	TeamType          int   `json:"teamType"`
	Score             int   `json:"score,omitempty"`
	FGAttempt         int   `json:"fgAttempt,omitempty"`
	FGMade            int   `json:"fgMade,omitempty"`
	ThreeAttempt      int   `json:"threeAttempt,omitempty"`
	ThreeMade         int   `json:"threeMade,omitempty"`
	Assist            int   `json:"assist,omitempty"`
	Rebound           int   `json:"rebound,omitempty"`
	OffRebound        int   `json:"offRebound,omitempty"`
	DefRebound        int   `json:"defRebound,omitempty"`
	Steal             int   `json:"steal,omitempty"`
	Block             int   `json:"block,omitempty"`
	Dunk              int   `json:"dunk,omitempty"`
	PaintScore        int   `json:"paintScore,omitempty"`
	SecondChanceScore int   `json:"secondChanceScore,omitempty"`
	TurnoverToScore   int   `json:"turnoverToScore,omitempty"`
	MaxLead           int   `json:"maxLead,omitempty"`
}

// MatchPlayerStats holds one player's line for a game
type MatchPlayerStats struct {
	ID            int64   `json:"id,omitempty"`
	MatchID       int64   `json:"matchId,omitempty"`
	TeamType      int     `json:"teamType"`
	UserName      string  `json:"userName,omitempty"`
	PlayerName    string  `json:"playerName,omitempty"`
	Rating        float64 `json:"rating,omitempty"`
	IsMVP         bool    `json:"isMvp,omitempty"`
	IsSVP         bool    `json:"isSvp,omitempty"`
	Score         int     `json:"score,omitempty"`
	Assist        int     `json:"assist,omitempty"`
	Rebound       int     `json:"rebound,omitempty"`
	Steal         int     `json:"steal,omitempty"`
	Block         int     `json:"block,omitempty"`
	Turnover      int     `json:"turnover,omitempty"`
	Dunk          int     `json:"dunk,omitempty"`
	FGAttempt     int     `json:"fgAttempt,omitempty"`
	FGMade        int     `json:"fgMade,omitempty"`
	ThreeAttempt  int     `json:"threeAttempt,omitempty"`
	ThreeMade     int     `json:"threeMade,omitempty"`
	MidCount      int     `json:"midCount,omitempty"`
	MaxScoringRun int     `json:"maxScoringRun,omitempty"`
}

// MatchGameDetail is a game with both sides' statistics
type MatchGameDetail struct {
	MatchGame           MatchGame          `json:"matchGame"`
	MyTeamStats         []MatchTeamStats   `json:"myTeamStats"`
	OpponentTeamStats   []MatchTeamStats   `json:"opponentTeamStats"`
	MyPlayerStats       []MatchPlayerStats `json:"myPlayerStats"`
	OpponentPlayerStats []MatchPlayerStats `json:"opponentPlayerStats"`
}

// RankItem is one leaderboard row; ratio metrics fill Made/Attempt/Rate
type RankItem struct {
	Name    string   `json:"name"`
	Value   *float64 `json:"value,omitempty"`
	Made    *int     `json:"made,omitempty"`
	Attempt *int     `json:"attempt,omitempty"`
	Rate    *float64 `json:"rate,omitempty"`
}

// Leaderboard is the ranking for one metric
type Leaderboard struct {
	Metric StatsMetric `json:"metric"`
	Items  []RankItem  `json:"items"`
}

// MatchGameStats is a set of leaderboards for a season and dimension
type MatchGameStats struct {
	Season       string         `json:"season,omitempty"`
	Dimension    StatsDimension `json:"dimension"`
	Leaderboards []Leaderboard  `json:"leaderboards"`
}

// MatchGameBaseData lists the values editors offer for autocompletion
type MatchGameBaseData struct {
	Seasons             []string `json:"seasons"`
	MyPlayerNames       []string `json:"myPlayerNames"`
	OpponentPlayerNames []string `json:"opponentPlayerNames"`
	MyUserNames         []string `json:"myUserNames"`
}
