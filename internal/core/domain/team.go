package domain

// TeamRecord is the canonical 15-field team/standing row both sources are
// mapped into. TeamID, Name, Rank and Points are always set; the remaining
// fields are nil when the source does not provide them.
type TeamRecord struct {
	TeamID       int64   `json:"team_id"       db:"team_id"`
	Name         string  `json:"name"          db:"name"`
	Country      *string `json:"country"       db:"country"`
	Founded      *int64  `json:"founded"       db:"founded"`
	Stadium      *string `json:"stadium"       db:"stadium"`
	City         *string `json:"city"          db:"city"`
	Capacity     *int64  `json:"capacity"      db:"capacity"`
	Rank         int64   `json:"rank"          db:"rank"`
	Points       int64   `json:"points"        db:"points"`
	GoalDiff     *int64  `json:"goal_diff"     db:"goal_diff"`
	GoalsFor     *int64  `json:"goals_for"     db:"goals_for"`
	GoalsAgainst *int64  `json:"goals_against" db:"goals_against"`
	Win          *int64  `json:"win"           db:"win"`
	Draw         *int64  `json:"draw"          db:"draw"`
	Lose         *int64  `json:"lose"          db:"lose"`
}

// TeamColumns is the canonical column order used by loaders and exports.
var TeamColumns = []string{
	"team_id", "name", "country", "founded", "stadium", "city", "capacity",
	"rank", "points", "goal_diff", "goals_for", "goals_against",
	"win", "draw", "lose",
}

// Values returns the record's fields in TeamColumns order.
func (t TeamRecord) Values() []any {
	return []any{
		t.TeamID, t.Name, t.Country, t.Founded, t.Stadium, t.City, t.Capacity,
		t.Rank, t.Points, t.GoalDiff, t.GoalsFor, t.GoalsAgainst,
		t.Win, t.Draw, t.Lose,
	}
}
