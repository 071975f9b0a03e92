package lookup

import (
	"context"

	"github.com/dmtabletop/encounter-api/internal/errors"
)

// StaticClient serves lookups from in-memory maps. Useful for tests and for
// running without the SRD API or a campaign backend.
type StaticClient struct {
	Creatures    map[string]*CreatureInfo
	PartyMembers map[string]*PartyMemberInfo
}

// Ensure StaticClient implements Client
var _ Client = (*StaticClient)(nil)

// GetCreature returns the configured creature data, if any
func (c *StaticClient) GetCreature(_ context.Context, referenceID string) (*CreatureInfo, error) {
	info, ok := c.Creatures[referenceID]
	if !ok {
		return nil, errors.NotFoundf("creature %q not found", referenceID)
	}
	return info, nil
}

// GetPartyMember returns the configured party member data, if any
func (c *StaticClient) GetPartyMember(_ context.Context, characterID string) (*PartyMemberInfo, error) {
	info, ok := c.PartyMembers[characterID]
	if !ok {
		return nil, errors.NotFoundf("party member %q not found", characterID)
	}
	return info, nil
}
