package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mcdev12/courtside/go/internal/models"
)

// ErrNoGame is returned when a command is issued before any game has
// been loaded.
var ErrNoGame = errors.New("no game loaded")

// StateTransitionError is returned when a command is not valid for the
// game's current status, e.g. acting on a completed game. Local state
// is left unchanged.
type StateTransitionError struct {
	Command string
	Status  models.GameStatus
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s game in status %q", e.Command, e.Status)
}

// ValidationError is returned when a manual stat correction violates a
// counting invariant. The offending entry is blocked before it is sent;
// nothing is silently dropped or auto-corrected.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "stat entry failed validation: " + strings.Join(e.Violations, "; ")
}
