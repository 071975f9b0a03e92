package session

import (
	entities "github.com/dmtabletop/encounter-api/internal/entities/encounter"
)

// PartyMemberInput names one external party member joining the session. The
// character ID is resolved against the campaign lookup; the display name is
// the local fallback when the lookup cannot resolve it.
type PartyMemberInput struct {
	CharacterID string
	DisplayName string
}

// StartSessionInput defines the request for starting a combat session
type StartSessionInput struct {
	EncounterSlug string
	PartyMembers  []PartyMemberInput
}

// StartSessionOutput defines the response for starting a combat session
type StartSessionOutput struct {
	Session *entities.Session
}

// GetSessionInput defines the request for fetching the current session state
type GetSessionInput struct {
	EncounterID string
}

// GetSessionOutput defines the response for fetching the current session state
type GetSessionOutput struct {
	Session *entities.Session
}

// ListActiveSessionsInput defines the request for listing live sessions
type ListActiveSessionsInput struct{}

// ListActiveSessionsOutput defines the response for listing live sessions
type ListActiveSessionsOutput struct {
	Sessions []*entities.Session
}

// InitiativeAssignment sets one initiative value. Exactly one of CombatantID
// or GroupKey must be set; a group key applies the value to every monster
// expanded from that creature entry, since identical creatures conventionally
// act together.
type InitiativeAssignment struct {
	CombatantID string
	GroupKey    string
	Initiative  int
}

// SetInitiativeInput defines the request for assigning initiative
type SetInitiativeInput struct {
	EncounterID string
	Assignments []InitiativeAssignment
}

// SetInitiativeOutput defines the response for assigning initiative
type SetInitiativeOutput struct {
	Session *entities.Session
}

// BeginTurnsInput defines the request for starting turn advancement
type BeginTurnsInput struct {
	EncounterID string
}

// BeginTurnsOutput defines the response for starting turn advancement
type BeginTurnsOutput struct {
	Session *entities.Session
}

// AdvanceTurnInput defines the request for moving the turn pointer.
// Direction is +1 for the next combatant, -1 for the previous.
type AdvanceTurnInput struct {
	EncounterID string
	Direction   int
}

// AdvanceTurnOutput defines the response for moving the turn pointer
type AdvanceTurnOutput struct {
	Session *entities.Session
}

// ApplyDamageInput defines the request for applying damage
type ApplyDamageInput struct {
	EncounterID string
	CombatantID string
	Amount      int
	Source      string
}

// ApplyDamageOutput defines the response for applying damage
type ApplyDamageOutput struct {
	Session *entities.Session
}

// ApplyHealingInput defines the request for applying healing
type ApplyHealingInput struct {
	EncounterID string
	CombatantID string
	Amount      int
	Source      string
}

// ApplyHealingOutput defines the response for applying healing
type ApplyHealingOutput struct {
	Session *entities.Session
}

// AddTemporaryHPInput defines the request for granting temporary hit points
type AddTemporaryHPInput struct {
	EncounterID string
	CombatantID string
	Amount      int
	Source      string
}

// AddTemporaryHPOutput defines the response for granting temporary hit points
type AddTemporaryHPOutput struct {
	Session *entities.Session
}

// ToggleConditionInput defines the request for toggling a condition
type ToggleConditionInput struct {
	EncounterID string
	CombatantID string
	Condition   string
}

// ToggleConditionOutput defines the response for toggling a condition
type ToggleConditionOutput struct {
	Session *entities.Session
}

// PauseSessionInput defines the request for pausing a session
type PauseSessionInput struct {
	EncounterID string
}

// PauseSessionOutput defines the response for pausing a session
type PauseSessionOutput struct {
	Session *entities.Session
}

// ResumeSessionInput defines the request for resuming a paused session
type ResumeSessionInput struct {
	EncounterID string
}

// ResumeSessionOutput defines the response for resuming a paused session
type ResumeSessionOutput struct {
	Session *entities.Session
}

// EndSessionInput defines the request for completing and archiving a session
type EndSessionInput struct {
	EncounterID string
}

// EndSessionOutput defines the response for completing and archiving a session
type EndSessionOutput struct {
	Session *entities.Session
}
