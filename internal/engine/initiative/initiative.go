// Package initiative implements turn ordering and advancement for combat
// sessions.
package initiative

import (
	"sort"

	"github.com/dmtabletop/encounter-api/internal/entities/encounter"
	"github.com/dmtabletop/encounter-api/internal/errors"
)

// Directions for Advance
const (
	DirectionNext     = 1
	DirectionPrevious = -1
)

// Sort orders combatants by descending initiative. The sort is stable: ties
// keep their relative input order, so operator-entered order is respected.
func Sort(combatants []*encounter.Combatant) []*encounter.Combatant {
	ordered := make([]*encounter.Combatant, len(combatants))
	copy(ordered, combatants)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Initiative > ordered[j].Initiative
	})

	return ordered
}

// Begin sorts the session's combatants and marks the first one active. The
// session keeps the sorted order from here on; TurnIndex indexes into it.
func Begin(s *encounter.Session) error {
	if len(s.Combatants) == 0 {
		return errors.FailedPrecondition("session has no combatants")
	}
	if !s.AllInitiativeSet() {
		return errors.FailedPrecondition("initiative must be set for all combatants before turns begin")
	}

	s.Combatants = Sort(s.Combatants)
	s.TurnIndex = 0
	s.TurnsStarted = true
	setActive(s, 0)

	return nil
}

// Advance moves the turn pointer one combatant in the given direction.
// Moving forward past the last combatant wraps to the first and increments
// the round; moving backward past the first wraps to the last and decrements
// the round, clamped at round 1. Exactly one combatant is active afterward.
func Advance(s *encounter.Session, direction int) error {
	if direction != DirectionNext && direction != DirectionPrevious {
		return errors.InvalidArgumentf("direction must be +1 or -1, got %d", direction)
	}
	if !s.TurnsStarted {
		return errors.FailedPrecondition("turns have not begun")
	}

	count := len(s.Combatants)
	next := s.TurnIndex + direction

	switch {
	case next >= count:
		next = 0
		s.Round++
	case next < 0:
		next = count - 1
		if s.Round > 1 {
			s.Round--
		}
	}

	s.TurnIndex = next
	setActive(s, next)

	return nil
}

func setActive(s *encounter.Session, index int) {
	for i, c := range s.Combatants {
		c.IsActive = i == index
	}
}
