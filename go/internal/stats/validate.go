package stats

import (
	"fmt"

	"github.com/mcdev12/courtside/go/internal/models"
)

// ValidateStatLine checks a stat line against the counting invariants and
// returns a description of every violation found. An empty result means
// the line is internally consistent. Callers use this to reject malformed
// manual corrections before they are sent to the server.
func ValidateStatLine(l models.PlayerStatLine) []string {
	var violations []string

	if l.FieldGoalsMade > l.FieldGoalsAttempted {
		violations = append(violations, fmt.Sprintf(
			"field goals made (%d) exceeds attempts (%d)",
			l.FieldGoalsMade, l.FieldGoalsAttempted))
	}
	if l.ThreePointersMade > l.ThreePointersAttempted {
		violations = append(violations, fmt.Sprintf(
			"three-pointers made (%d) exceeds attempts (%d)",
			l.ThreePointersMade, l.ThreePointersAttempted))
	}
	if l.FreeThrowsMade > l.FreeThrowsAttempted {
		violations = append(violations, fmt.Sprintf(
			"free throws made (%d) exceeds attempts (%d)",
			l.FreeThrowsMade, l.FreeThrowsAttempted))
	}
	if l.ThreePointersMade > l.FieldGoalsMade {
		violations = append(violations, fmt.Sprintf(
			"three-pointers made (%d) exceeds field goals made (%d)",
			l.ThreePointersMade, l.FieldGoalsMade))
	}
	if l.ThreePointersAttempted > l.FieldGoalsAttempted {
		violations = append(violations, fmt.Sprintf(
			"three-point attempts (%d) exceed field goal attempts (%d)",
			l.ThreePointersAttempted, l.FieldGoalsAttempted))
	}
	if want := l.ExpectedPoints(); l.Points != want {
		violations = append(violations, fmt.Sprintf(
			"points (%d) do not match made shots (expected %d)",
			l.Points, want))
	}

	return violations
}
