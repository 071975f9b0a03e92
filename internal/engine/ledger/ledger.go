// Package ledger implements hit point bookkeeping and the append-only event
// record for combat sessions.
//
// Monsters and party members share the damage pipeline but differ in how the
// result lands: monsters track a current/max pool, party members only
// accumulate damage, because the operator does not track player hit point
// totals.
package ledger

import (
	"github.com/dmtabletop/encounter-api/internal/entities/encounter"
	"github.com/dmtabletop/encounter-api/internal/errors"
	"github.com/dmtabletop/encounter-api/internal/pkg/clock"
	"github.com/dmtabletop/encounter-api/internal/pkg/idgen"
)

// ApplyDamage applies damage to a combatant. Temporary hit points absorb
// first; any excess reduces the monster pool (floored at zero) or adds to a
// party member's accumulated damage.
func ApplyDamage(c *encounter.Combatant, amount int) {
	remaining := amount

	if c.TemporaryHitPoints > 0 {
		absorbed := min(c.TemporaryHitPoints, remaining)
		c.TemporaryHitPoints -= absorbed
		remaining -= absorbed
	}

	if remaining == 0 {
		return
	}

	switch c.Kind {
	case encounter.CombatantKindMonster:
		c.CurrentHitPoints = max(c.CurrentHitPoints-remaining, 0)
	case encounter.CombatantKindPartyMember:
		c.DamageAccumulated += remaining
	}
}

// ApplyHealing heals a combatant. Monster pools cap at max hit points; party
// member accumulated damage floors at zero. Healing never restores temporary
// hit points.
func ApplyHealing(c *encounter.Combatant, amount int) {
	switch c.Kind {
	case encounter.CombatantKindMonster:
		c.CurrentHitPoints = min(c.CurrentHitPoints+amount, c.MaxHitPoints)
	case encounter.CombatantKindPartyMember:
		c.DamageAccumulated = max(c.DamageAccumulated-amount, 0)
	}
}

// AddTemporaryHitPoints grants temporary hit points. They do not stack: the
// combatant keeps the larger of the existing and the new amount.
func AddTemporaryHitPoints(c *encounter.Combatant, amount int) {
	c.TemporaryHitPoints = max(c.TemporaryHitPoints, amount)
}

// Recorder appends ledger events to a session.
type Recorder struct {
	idGen idgen.Generator
	clock clock.Clock
}

// RecorderConfig holds the dependencies for a Recorder
type RecorderConfig struct {
	IDGenerator idgen.Generator
	Clock       clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *RecorderConfig) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}
	return vb.Build()
}

// NewRecorder creates a Recorder with the provided dependencies
func NewRecorder(cfg *RecorderConfig) (*Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &Recorder{
		idGen: cfg.IDGenerator,
		clock: cfg.Clock,
	}, nil
}

// Record appends one immutable event to the session's ledger. Amount is the
// operator-requested value before any clamping, so the ledger stays an honest
// record of input even when the effective state change was smaller.
func (r *Recorder) Record(s *encounter.Session, target *encounter.Combatant, kind encounter.EventKind, amount int, source string) *encounter.DamageEvent {
	event := &encounter.DamageEvent{
		ID:                 r.idGen.Generate(),
		Round:              s.Round,
		TurnIndex:          s.TurnIndex,
		TargetCombatantID:  target.ID,
		TargetNameSnapshot: target.DisplayName,
		Amount:             amount,
		Kind:               kind,
		Source:             source,
		Timestamp:          r.clock.Now(),
	}

	s.Events = append(s.Events, event)
	return event
}
