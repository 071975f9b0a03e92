package lookup

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fadedpez/dnd5e-api/clients/dnd5e"

	"github.com/dmtabletop/encounter-api/internal/errors"
)

// SRDConfig contains configuration options for the SRD-backed client.
type SRDConfig struct {
	// BaseURL for the D&D 5e API (optional, defaults to https://www.dnd5eapi.co/api/2014/)
	BaseURL string
	// HTTPTimeout for API requests (optional, defaults to 30 seconds)
	HTTPTimeout time.Duration
	// CacheTTL for the cached client (optional, defaults to 24 hours)
	CacheTTL time.Duration
}

// Validate validates the SRDConfig and sets defaults if not provided.
func (cfg *SRDConfig) Validate() error {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.dnd5eapi.co/api/2014/"
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	return nil
}

type srdClient struct {
	dnd5eClient dnd5e.Interface
}

// NewSRDClient creates a lookup client backed by the public SRD API. Party
// members are not SRD data, so GetPartyMember always reports not found; wire
// a campaign-backed client for rosters.
func NewSRDClient(cfg *SRDConfig) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	baseClient, err := dnd5e.NewDND5eAPI(&dnd5e.DND5eAPIConfig{
		Client:  httpClient,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create D&D 5e API client: %w", err)
	}

	// Reference data barely changes; cache aggressively.
	cachedClient := dnd5e.NewCachedClient(baseClient, cfg.CacheTTL)

	return &srdClient{dnd5eClient: cachedClient}, nil
}

func (c *srdClient) GetCreature(_ context.Context, referenceID string) (*CreatureInfo, error) {
	if referenceID == "" {
		return nil, errors.InvalidArgument("reference ID cannot be empty")
	}

	monster, err := c.dnd5eClient.GetMonster(referenceID)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable,
			fmt.Sprintf("creature lookup failed for %q", referenceID))
	}

	return &CreatureInfo{
		ReferenceID:     referenceID,
		Name:            monster.Name,
		ChallengeRating: formatChallengeRating(float64(monster.ChallengeRating)),
		HitPoints:       monster.HitPoints,
	}, nil
}

func (c *srdClient) GetPartyMember(_ context.Context, characterID string) (*PartyMemberInfo, error) {
	return nil, errors.NotFoundf("party member %q is not SRD data", characterID)
}

// formatChallengeRating renders the API's fractional ratings in the
// conventional notation used by the difficulty tables.
func formatChallengeRating(cr float64) string {
	switch cr {
	case 0.125:
		return "1/8"
	case 0.25:
		return "1/4"
	case 0.5:
		return "1/2"
	default:
		return fmt.Sprintf("%d", int(cr))
	}
}
