// Package encounter defines the core entities for encounter definitions and
// combat sessions.
package encounter

import "time"

// CreatureEntry is one line of an encounter definition: a creature type and
// how many of it the encounter contains.
type CreatureEntry struct {
	// ReferenceID is the SRD reference key for the creature ("goblin").
	// Optional; lookup-only, never an ownership edge.
	ReferenceID string `json:"referenceId,omitempty"`

	DisplayName string `json:"displayName"`

	// ChallengeRating uses the conventional fraction notation for values
	// below one: "0", "1/8", "1/4", "1/2", then "1".."30".
	ChallengeRating string `json:"challengeRating"`

	// ThreatValue is the per-creature threat score derived from the
	// challenge rating at definition time.
	ThreatValue int `json:"threatValue"`

	Quantity int `json:"quantity"`
}

// Definition is a named, reusable encounter template. It is immutable except
// through an explicit update that replaces the whole creature list; live
// sessions operate on a copy and never mutate it.
type Definition struct {
	// Slug is the URL-safe identifier derived from Name at creation time.
	// It never changes, even if the definition is renamed.
	Slug string `json:"slug"`

	Name string `json:"name"`

	// PartyLevel and PartySize record the party the encounter was tuned for.
	PartyLevel int `json:"partyLevel"`
	PartySize  int `json:"partySize"`

	// Tier is the difficulty tier computed when the definition was last
	// written, kept for display.
	Tier string `json:"tier"`

	Creatures []CreatureEntry `json:"creatures"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TotalCreatures returns the number of individual combatants the definition
// expands to.
func (d *Definition) TotalCreatures() int {
	total := 0
	for _, entry := range d.Creatures {
		total += entry.Quantity
	}
	return total
}
