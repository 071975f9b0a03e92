// Package lookup resolves creature and party member reference data from
// external collaborators.
//
// Lookups are read-only and resolved at session start and initiative time.
// Callers treat failures as non-fatal: combat proceeds on locally supplied
// names and default hit points rather than blocking on a missing citation.
package lookup

import (
	"context"
)

// CreatureInfo is the reference data the combat core needs for a creature.
type CreatureInfo struct {
	ReferenceID     string
	Name            string
	ChallengeRating string
	HitPoints       int
}

// PartyMemberInfo is the reference data for one party member, supplied by
// the campaign layer.
type PartyMemberInfo struct {
	CharacterID  string
	Name         string
	MaxHitPoints int
}

// Client defines the interface for reference lookups
type Client interface {
	// GetCreature fetches creature reference data by reference ID
	GetCreature(ctx context.Context, referenceID string) (*CreatureInfo, error)

	// GetPartyMember fetches party member data by character ID
	GetPartyMember(ctx context.Context, characterID string) (*PartyMemberInfo, error)
}
