package stats

import "github.com/mcdev12/courtside/go/internal/models"

// TeamTotals aggregates a set of stat lines into one team-level line.
type TeamTotals struct {
	Points                 int
	FieldGoalsMade         int
	FieldGoalsAttempted    int
	ThreePointersMade      int
	ThreePointersAttempted int
	FreeThrowsMade         int
	FreeThrowsAttempted    int
	OffensiveRebounds      int
	DefensiveRebounds      int
	Rebounds               int
	Assists                int
	Steals                 int
	Blocks                 int
	Turnovers              int
	Fouls                  int
	MinutesPlayed          float64
}

// SumLines folds player stat lines into team totals.
func SumLines(lines []models.PlayerStatLine) TeamTotals {
	var t TeamTotals
	for _, l := range lines {
		t.Points += l.Points
		t.FieldGoalsMade += l.FieldGoalsMade
		t.FieldGoalsAttempted += l.FieldGoalsAttempted
		t.ThreePointersMade += l.ThreePointersMade
		t.ThreePointersAttempted += l.ThreePointersAttempted
		t.FreeThrowsMade += l.FreeThrowsMade
		t.FreeThrowsAttempted += l.FreeThrowsAttempted
		t.OffensiveRebounds += l.OffensiveRebounds
		t.DefensiveRebounds += l.DefensiveRebounds
		t.Rebounds += l.Rebounds
		t.Assists += l.Assists
		t.Steals += l.Steals
		t.Blocks += l.Blocks
		t.Turnovers += l.Turnovers
		t.Fouls += l.Fouls
		t.MinutesPlayed += l.MinutesPlayed
	}
	return t
}

// Possessions estimates the number of possessions the team used.
func (t TeamTotals) Possessions() int {
	return EstimatePossessions(t.FieldGoalsAttempted, t.OffensiveRebounds,
		t.Turnovers, t.FreeThrowsAttempted)
}

// FourFactors is the standard efficiency decomposition of a team's
// performance: shooting, turnovers, rebounding and free throws.
type FourFactors struct {
	EffectiveFGPercent      float64 `json:"effective_fg_percent"`
	TurnoverRate            float64 `json:"turnover_rate"`
	OffensiveReboundPercent float64 `json:"offensive_rebound_percent"`
	FreeThrowRate           float64 `json:"free_throw_rate"`
}

// ComputeFourFactors derives the four factors for one team against its
// opponent's totals.
func ComputeFourFactors(own, opp TeamTotals) FourFactors {
	return FourFactors{
		EffectiveFGPercent: EffectiveFieldGoalPercent(own.FieldGoalsMade,
			own.ThreePointersMade, own.FieldGoalsAttempted),
		TurnoverRate: TurnoverRate(own.Turnovers, own.FieldGoalsAttempted,
			own.FreeThrowsAttempted),
		OffensiveReboundPercent: OffensiveReboundPercent(own.OffensiveRebounds,
			opp.DefensiveRebounds),
		FreeThrowRate: FreeThrowRate(own.FreeThrowsAttempted, own.FieldGoalsAttempted),
	}
}

// TeamRatings groups the possession-based team metrics.
type TeamRatings struct {
	OffensiveRating float64 `json:"offensive_rating"`
	DefensiveRating float64 `json:"defensive_rating"`
	NetRating       float64 `json:"net_rating"`
	Pace            float64 `json:"pace"`
}

// ComputeTeamRatings derives possession-based ratings for one team. Team
// minutes are divided by five to recover elapsed game minutes.
func ComputeTeamRatings(own, opp TeamTotals) TeamRatings {
	possessions := own.Possessions()
	off := OffensiveRating(own.Points, possessions)
	def := DefensiveRating(opp.Points, possessions)
	return TeamRatings{
		OffensiveRating: off,
		DefensiveRating: def,
		NetRating:       NetRating(off, def),
		Pace:            Pace(possessions, own.MinutesPlayed/5),
	}
}
