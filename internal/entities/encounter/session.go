package encounter

import "time"

// CombatantKind distinguishes the two HP-tracking models. Monsters track
// current hit points; party members track accumulated damage only, because
// the operator is not assumed to know player hit point totals.
type CombatantKind string

// Combatant kinds
const (
	CombatantKindMonster     CombatantKind = "monster"
	CombatantKindPartyMember CombatantKind = "party_member"
)

// SessionStatus is the combat session lifecycle state
type SessionStatus string

// Session statuses
const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusPaused    SessionStatus = "paused"
	SessionStatusCompleted SessionStatus = "completed"
)

// EventKind classifies ledger events
type EventKind string

// Event kinds
const (
	EventKindDamage      EventKind = "damage"
	EventKindHealing     EventKind = "healing"
	EventKindTemporaryHP EventKind = "temporary_hp"
)

// Combatant is one tracked participant in a live session.
type Combatant struct {
	// ID is unique within the session.
	ID          string        `json:"id"`
	DisplayName string        `json:"displayName"`
	Kind        CombatantKind `json:"kind"`

	// ReferenceID points at the originating creature or character record.
	// Lookup-only; staleness degrades to the snapshot DisplayName.
	ReferenceID string `json:"referenceId,omitempty"`

	// GroupKey ties monsters expanded from the same creature entry together
	// so one initiative roll can cover the group. Empty for party members.
	GroupKey string `json:"groupKey,omitempty"`

	// Initiative is 0 until assigned.
	Initiative int `json:"initiative"`

	MaxHitPoints     int `json:"maxHitPoints"`
	CurrentHitPoints int `json:"currentHitPoints"`

	// DamageAccumulated is the party-member HP model: damage taken so far,
	// with no current/max pool.
	DamageAccumulated int `json:"damageAccumulated"`

	TemporaryHitPoints int `json:"temporaryHitPoints"`

	Conditions []string `json:"conditions,omitempty"`

	IsActive bool `json:"isActive"`
}

// IsDefeated reports whether a monster is at zero hit points. Always false
// for party members, whose pool is not tracked.
func (c *Combatant) IsDefeated() bool {
	return c.Kind == CombatantKindMonster && c.CurrentHitPoints == 0
}

// HasCondition reports whether the combatant currently has the condition.
func (c *Combatant) HasCondition(condition string) bool {
	for _, existing := range c.Conditions {
		if existing == condition {
			return true
		}
	}
	return false
}

// DamageEvent is one immutable ledger record. Corrections are new events,
// never edits.
type DamageEvent struct {
	ID        string `json:"id"`
	Round     int    `json:"round"`
	TurnIndex int    `json:"turnIndex"`

	TargetCombatantID string `json:"targetCombatantId"`

	// TargetNameSnapshot keeps the event displayable even if the combatant
	// is later removed.
	TargetNameSnapshot string `json:"targetNameSnapshot"`

	// Amount is the requested amount as entered by the operator, before any
	// clamping applied to the combatant state.
	Amount int       `json:"amount"`
	Kind   EventKind `json:"kind"`

	Source string `json:"source,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Session is the combat aggregate root. It is persisted as a whole unit after
// every mutation.
type Session struct {
	EncounterID string        `json:"encounterId"`
	Round       int           `json:"round"`
	TurnIndex   int           `json:"turnIndex"`
	Status      SessionStatus `json:"status"`

	// TurnsStarted is false during the pre-initiative phase; no combatant is
	// active until turns begin.
	TurnsStarted bool `json:"turnsStarted"`

	StartedAt time.Time `json:"startedAt"`

	Combatants []*Combatant   `json:"combatants"`
	Events     []*DamageEvent `json:"events"`
}

// FindCombatant returns the combatant with the given ID, or nil.
func (s *Session) FindCombatant(id string) *Combatant {
	for _, c := range s.Combatants {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// ActiveCombatant returns the combatant whose turn it is, or nil before
// turns start.
func (s *Session) ActiveCombatant() *Combatant {
	for _, c := range s.Combatants {
		if c.IsActive {
			return c
		}
	}
	return nil
}

// AllInitiativeSet reports whether every combatant has rolled initiative.
// A zero value means not yet assigned.
func (s *Session) AllInitiativeSet() bool {
	for _, c := range s.Combatants {
		if c.Initiative == 0 {
			return false
		}
	}
	return len(s.Combatants) > 0
}
