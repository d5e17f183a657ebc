package stats_test

import (
	"testing"

	"github.com/mcdev12/courtside/go/internal/models"
	"github.com/mcdev12/courtside/go/internal/stats"
)

// consistentLine returns a line satisfying every counting invariant.
func consistentLine() models.PlayerStatLine {
	return models.PlayerStatLine{
		PlayerID:               "p1",
		Points:                 21,
		FieldGoalsMade:         7,
		FieldGoalsAttempted:    14,
		ThreePointersMade:      3,
		ThreePointersAttempted: 7,
		FreeThrowsMade:         4,
		FreeThrowsAttempted:    5,
	}
}

func TestValidateStatLine(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(*models.PlayerStatLine)
		wantViolations int
	}{
		{
			name:           "consistent line has no violations",
			mutate:         func(l *models.PlayerStatLine) {},
			wantViolations: 0,
		},
		{
			name: "field goals made exceeds attempts",
			mutate: func(l *models.PlayerStatLine) {
				l.FieldGoalsAttempted = l.FieldGoalsMade - 1
			},
			wantViolations: 2, // also breaks 3PA <= FGA
		},
		{
			name: "three pointers made exceeds attempts",
			mutate: func(l *models.PlayerStatLine) {
				l.ThreePointersAttempted = l.ThreePointersMade - 1
			},
			wantViolations: 1,
		},
		{
			name: "free throws made exceeds attempts",
			mutate: func(l *models.PlayerStatLine) {
				l.FreeThrowsAttempted = l.FreeThrowsMade - 1
			},
			wantViolations: 1,
		},
		{
			name: "three pointers made exceeds field goals made",
			mutate: func(l *models.PlayerStatLine) {
				l.ThreePointersMade = l.FieldGoalsMade + 1
				l.ThreePointersAttempted = l.ThreePointersMade
				// Points no longer match made shots either.
			},
			wantViolations: 2,
		},
		{
			name: "three point attempts exceed field goal attempts",
			mutate: func(l *models.PlayerStatLine) {
				l.ThreePointersAttempted = l.FieldGoalsAttempted + 1
			},
			wantViolations: 1,
		},
		{
			name: "points mismatch",
			mutate: func(l *models.PlayerStatLine) {
				l.Points++
			},
			wantViolations: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := consistentLine()
			tt.mutate(&line)
			violations := stats.ValidateStatLine(line)
			if len(violations) != tt.wantViolations {
				t.Fatalf("got %d violations %v, want %d",
					len(violations), violations, tt.wantViolations)
			}
		})
	}
}

func TestExpectedPoints(t *testing.T) {
	line := consistentLine()
	// 4 two-pointers, 3 threes, 4 free throws.
	if got := line.ExpectedPoints(); got != 21 {
		t.Errorf("ExpectedPoints = %d, want 21", got)
	}
}
