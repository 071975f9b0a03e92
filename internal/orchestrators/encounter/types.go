package encounter

import (
	entities "github.com/dmtabletop/encounter-api/internal/entities/encounter"
	"github.com/dmtabletop/encounter-api/internal/engine/difficulty"
)

// CreatureInput is one roster line as entered in the builder.
type CreatureInput struct {
	// ReferenceID, when set, is resolved against the creature lookup to fill
	// in name and challenge rating.
	ReferenceID string

	DisplayName     string
	ChallengeRating string
	Quantity        int
}

// CreateEncounterInput defines the request for creating an encounter definition
type CreateEncounterInput struct {
	Name       string
	PartyLevel int
	PartySize  int
	Creatures  []CreatureInput
}

// CreateEncounterOutput defines the response for creating an encounter definition
type CreateEncounterOutput struct {
	Definition     *entities.Definition
	Classification *difficulty.Classification
}

// GetEncounterInput defines the request for fetching a definition
type GetEncounterInput struct {
	Slug string
}

// GetEncounterOutput defines the response for fetching a definition
type GetEncounterOutput struct {
	Definition     *entities.Definition
	Classification *difficulty.Classification
}

// UpdateEncounterInput replaces a definition's creature list and party
// parameters wholesale.
type UpdateEncounterInput struct {
	Slug       string
	Name       string
	PartyLevel int
	PartySize  int
	Creatures  []CreatureInput
}

// UpdateEncounterOutput defines the response for updating a definition
type UpdateEncounterOutput struct {
	Definition     *entities.Definition
	Classification *difficulty.Classification
}

// DeleteEncounterInput defines the request for deleting a definition
type DeleteEncounterInput struct {
	Slug string
}

// DeleteEncounterOutput defines the response for deleting a definition
type DeleteEncounterOutput struct{}

// ListEncountersInput defines the request for listing definitions
type ListEncountersInput struct{}

// ListEncountersOutput defines the response for listing definitions
type ListEncountersOutput struct {
	Definitions []*entities.Definition
}

// PreviewDifficultyInput classifies a roster without storing anything, for
// interactive recalculation while editing.
type PreviewDifficultyInput struct {
	PartyLevel int
	PartySize  int
	Creatures  []CreatureInput
}

// PreviewDifficultyOutput defines the response for a difficulty preview
type PreviewDifficultyOutput struct {
	Classification *difficulty.Classification
}
