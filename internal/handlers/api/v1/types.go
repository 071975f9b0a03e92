package v1

import (
	"github.com/dmtabletop/encounter-api/internal/engine/difficulty"
	entities "github.com/dmtabletop/encounter-api/internal/entities/encounter"
)

// creatureRequest is one roster line in an encounter request.
type creatureRequest struct {
	ReferenceID     string `json:"referenceId,omitempty"`
	DisplayName     string `json:"displayName,omitempty"`
	ChallengeRating string `json:"challengeRating,omitempty"`
	Quantity        int    `json:"quantity"`
}

type createEncounterRequest struct {
	Name       string            `json:"name"`
	PartyLevel int               `json:"partyLevel"`
	PartySize  int               `json:"partySize"`
	Creatures  []creatureRequest `json:"creatures"`
}

type updateEncounterRequest struct {
	Name       string            `json:"name,omitempty"`
	PartyLevel int               `json:"partyLevel"`
	PartySize  int               `json:"partySize"`
	Creatures  []creatureRequest `json:"creatures"`
}

type previewDifficultyRequest struct {
	PartyLevel int               `json:"partyLevel"`
	PartySize  int               `json:"partySize"`
	Creatures  []creatureRequest `json:"creatures"`
}

type encounterResponse struct {
	Encounter  *entities.Definition       `json:"encounter"`
	Difficulty *difficulty.Classification `json:"difficulty,omitempty"`
}

type encounterListResponse struct {
	Encounters []*entities.Definition `json:"encounters"`
}

type difficultyResponse struct {
	Difficulty *difficulty.Classification `json:"difficulty"`
}

type partyMemberRequest struct {
	CharacterID string `json:"characterId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

type startSessionRequest struct {
	PartyMembers []partyMemberRequest `json:"partyMembers"`
}

type initiativeAssignmentRequest struct {
	CombatantID string `json:"combatantId,omitempty"`
	GroupKey    string `json:"groupKey,omitempty"`
	Initiative  int    `json:"initiative"`
}

type setInitiativeRequest struct {
	Assignments []initiativeAssignmentRequest `json:"assignments"`
}

type advanceTurnRequest struct {
	Direction int `json:"direction"`
}

type ledgerRequest struct {
	CombatantID string `json:"combatantId"`
	Amount      int    `json:"amount"`
	Source      string `json:"source,omitempty"`
}

type toggleConditionRequest struct {
	CombatantID string `json:"combatantId"`
	Condition   string `json:"condition"`
}

type sessionResponse struct {
	Session *entities.Session `json:"session"`
}

type sessionListResponse struct {
	Sessions []*entities.Session `json:"sessions"`
}

type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}
