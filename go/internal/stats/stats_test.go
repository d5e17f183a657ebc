package stats_test

import (
	"testing"

	"github.com/mcdev12/courtside/go/internal/models"
	"github.com/mcdev12/courtside/go/internal/stats"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name      string
		made      int
		attempted int
		want      float64
	}{
		{"zero attempts returns zero", 0, 0, 0},
		{"zero attempts with nonzero made returns zero", 7, 0, 0},
		{"half", 5, 10, 50.0},
		{"third rounds to one decimal", 1, 3, 33.3},
		{"two thirds rounds up", 2, 3, 66.7},
		{"perfect", 10, 10, 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stats.Percentage(tt.made, tt.attempted); got != tt.want {
				t.Errorf("Percentage(%d, %d) = %v, want %v", tt.made, tt.attempted, got, tt.want)
			}
		})
	}
}

func TestEffectiveFieldGoalPercent(t *testing.T) {
	tests := []struct {
		name    string
		fgm     int
		threePM int
		fga     int
		want    float64
	}{
		{"zero attempts", 0, 0, 0, 0},
		{"no threes matches raw percentage", 10, 0, 20, 50.0},
		{"threes add half a make each", 10, 4, 20, 60.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stats.EffectiveFieldGoalPercent(tt.fgm, tt.threePM, tt.fga)
			if got != tt.want {
				t.Errorf("EffectiveFieldGoalPercent(%d, %d, %d) = %v, want %v",
					tt.fgm, tt.threePM, tt.fga, got, tt.want)
			}
		})
	}
}

func TestTrueShootingPercent(t *testing.T) {
	tests := []struct {
		name   string
		points int
		fga    int
		fta    int
		want   float64
	}{
		{"zero attempts", 0, 0, 0, 0},
		{"field goals and free throws", 25, 20, 10, 51.2},
		{"field goals only", 24, 20, 0, 60.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stats.TrueShootingPercent(tt.points, tt.fga, tt.fta)
			if got != tt.want {
				t.Errorf("TrueShootingPercent(%d, %d, %d) = %v, want %v",
					tt.points, tt.fga, tt.fta, got, tt.want)
			}
		})
	}
}

func TestPlayerEfficiency(t *testing.T) {
	line := models.PlayerStatLine{
		Points:              20,
		Rebounds:            8,
		Assists:             5,
		Steals:              2,
		Blocks:              1,
		Turnovers:           3,
		Fouls:               2,
		FieldGoalsMade:      7,
		FieldGoalsAttempted: 14,
		FreeThrowsMade:      4,
		FreeThrowsAttempted: 5,
		MinutesPlayed:       30,
	}

	if got := stats.PlayerEfficiency(line); got != 0.8 {
		t.Errorf("PlayerEfficiency = %v, want 0.8", got)
	}
	if got := stats.GameEfficiency(line); got != 23 {
		t.Errorf("GameEfficiency = %v, want 23", got)
	}

	line.MinutesPlayed = 0
	if got := stats.PlayerEfficiency(line); got != 0 {
		t.Errorf("PlayerEfficiency with zero minutes = %v, want 0", got)
	}
}

func TestTurnoverRate(t *testing.T) {
	tests := []struct {
		name      string
		turnovers int
		fga       int
		fta       int
		want      float64
	}{
		{"no possessions", 0, 0, 0, 0},
		{"standard game", 5, 80, 20, 5.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stats.TurnoverRate(tt.turnovers, tt.fga, tt.fta)
			if got != tt.want {
				t.Errorf("TurnoverRate(%d, %d, %d) = %v, want %v",
					tt.turnovers, tt.fga, tt.fta, got, tt.want)
			}
		})
	}
}

func TestReboundPercent(t *testing.T) {
	if got := stats.OffensiveReboundPercent(10, 30); got != 25.0 {
		t.Errorf("OffensiveReboundPercent(10, 30) = %v, want 25.0", got)
	}
	if got := stats.DefensiveReboundPercent(30, 10); got != 75.0 {
		t.Errorf("DefensiveReboundPercent(30, 10) = %v, want 75.0", got)
	}
	if got := stats.OffensiveReboundPercent(0, 0); got != 0 {
		t.Errorf("OffensiveReboundPercent(0, 0) = %v, want 0", got)
	}
}

func TestFreeThrowRate(t *testing.T) {
	if got := stats.FreeThrowRate(20, 80); got != 25.0 {
		t.Errorf("FreeThrowRate(20, 80) = %v, want 25.0", got)
	}
	if got := stats.FreeThrowRate(20, 0); got != 0 {
		t.Errorf("FreeThrowRate(20, 0) = %v, want 0", got)
	}
}

func TestEstimatePossessions(t *testing.T) {
	tests := []struct {
		name string
		fga  int
		oreb int
		to   int
		fta  int
		want int
	}{
		{"empty line", 0, 0, 0, 0, 0},
		{"rounds to nearest", 80, 10, 15, 20, 94},
		{"rounds down", 80, 10, 15, 5, 87},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stats.EstimatePossessions(tt.fga, tt.oreb, tt.to, tt.fta)
			if got != tt.want {
				t.Errorf("EstimatePossessions(%d, %d, %d, %d) = %d, want %d",
					tt.fga, tt.oreb, tt.to, tt.fta, got, tt.want)
			}
		})
	}
}

func TestRatingsAndPace(t *testing.T) {
	if got := stats.OffensiveRating(100, 94); got != 106.4 {
		t.Errorf("OffensiveRating(100, 94) = %v, want 106.4", got)
	}
	if got := stats.DefensiveRating(92, 94); got != 97.9 {
		t.Errorf("DefensiveRating(92, 94) = %v, want 97.9", got)
	}
	if got := stats.OffensiveRating(100, 0); got != 0 {
		t.Errorf("OffensiveRating with zero possessions = %v, want 0", got)
	}
	if got := stats.NetRating(106.4, 97.9); got != 8.5 {
		t.Errorf("NetRating(106.4, 97.9) = %v, want 8.5", got)
	}
	if got := stats.Pace(94, 40); got != 94.0 {
		t.Errorf("Pace(94, 40) = %v, want 94.0", got)
	}
	if got := stats.Pace(94, 0); got != 0 {
		t.Errorf("Pace with zero minutes = %v, want 0", got)
	}
}

func TestSumLines(t *testing.T) {
	lines := []models.PlayerStatLine{
		{Points: 20, FieldGoalsMade: 8, FieldGoalsAttempted: 15, Rebounds: 5, Turnovers: 2, MinutesPlayed: 30},
		{Points: 12, FieldGoalsMade: 5, FieldGoalsAttempted: 9, Rebounds: 7, Turnovers: 1, MinutesPlayed: 25},
	}

	totals := stats.SumLines(lines)
	if totals.Points != 32 {
		t.Errorf("Points = %d, want 32", totals.Points)
	}
	if totals.FieldGoalsMade != 13 || totals.FieldGoalsAttempted != 24 {
		t.Errorf("field goals = %d/%d, want 13/24", totals.FieldGoalsMade, totals.FieldGoalsAttempted)
	}
	if totals.Rebounds != 12 || totals.Turnovers != 3 {
		t.Errorf("rebounds/turnovers = %d/%d, want 12/3", totals.Rebounds, totals.Turnovers)
	}
	if totals.MinutesPlayed != 55 {
		t.Errorf("MinutesPlayed = %v, want 55", totals.MinutesPlayed)
	}
}

func TestComputeFourFactors(t *testing.T) {
	own := stats.TeamTotals{
		FieldGoalsMade:      40,
		ThreePointersMade:   10,
		FieldGoalsAttempted: 80,
		Turnovers:           5,
		FreeThrowsAttempted: 20,
		OffensiveRebounds:   10,
		FreeThrowsMade:      15,
	}
	opp := stats.TeamTotals{DefensiveRebounds: 30}

	factors := stats.ComputeFourFactors(own, opp)
	if factors.EffectiveFGPercent != 56.3 {
		t.Errorf("EffectiveFGPercent = %v, want 56.3", factors.EffectiveFGPercent)
	}
	if factors.TurnoverRate != 5.3 {
		t.Errorf("TurnoverRate = %v, want 5.3", factors.TurnoverRate)
	}
	if factors.OffensiveReboundPercent != 25.0 {
		t.Errorf("OffensiveReboundPercent = %v, want 25.0", factors.OffensiveReboundPercent)
	}
	if factors.FreeThrowRate != 25.0 {
		t.Errorf("FreeThrowRate = %v, want 25.0", factors.FreeThrowRate)
	}
}
