// Package encounter implements the encounter definition orchestrator: CRUD
// over reusable creature rosters plus difficulty classification for display.
package encounter

import (
	"context"
	"log/slog"

	"github.com/dmtabletop/encounter-api/internal/clients/lookup"
	"github.com/dmtabletop/encounter-api/internal/engine/difficulty"
	entities "github.com/dmtabletop/encounter-api/internal/entities/encounter"
	"github.com/dmtabletop/encounter-api/internal/errors"
	"github.com/dmtabletop/encounter-api/internal/repositories/encounters"
)

// Service defines the interface for encounter definition operations
type Service interface {
	// CreateEncounter validates and stores a new definition
	CreateEncounter(ctx context.Context, input *CreateEncounterInput) (*CreateEncounterOutput, error)

	// GetEncounter fetches a definition with its current classification
	GetEncounter(ctx context.Context, input *GetEncounterInput) (*GetEncounterOutput, error)

	// UpdateEncounter replaces a definition's creature list wholesale
	UpdateEncounter(ctx context.Context, input *UpdateEncounterInput) (*UpdateEncounterOutput, error)

	// DeleteEncounter removes a definition
	DeleteEncounter(ctx context.Context, input *DeleteEncounterInput) (*DeleteEncounterOutput, error)

	// ListEncounters returns all stored definitions
	ListEncounters(ctx context.Context, input *ListEncountersInput) (*ListEncountersOutput, error)

	// PreviewDifficulty classifies a roster without storing it
	PreviewDifficulty(ctx context.Context, input *PreviewDifficultyInput) (*PreviewDifficultyOutput, error)
}

// Config holds the dependencies for the encounter orchestrator
type Config struct {
	Repository encounters.Repository
	Lookup     lookup.Client
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.Repository == nil {
		vb.RequiredField("Repository")
	}
	if c.Lookup == nil {
		vb.RequiredField("Lookup")
	}
	return vb.Build()
}

type orchestrator struct {
	repo   encounters.Repository
	lookup lookup.Client
}

// NewOrchestrator creates a new encounter orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &orchestrator{
		repo:   cfg.Repository,
		lookup: cfg.Lookup,
	}, nil
}

func (o *orchestrator) CreateEncounter(ctx context.Context, input *CreateEncounterInput) (*CreateEncounterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	entries, classification, err := o.buildRoster(ctx, input.Name, input.PartyLevel, input.PartySize, input.Creatures)
	if err != nil {
		return nil, err
	}

	def := &entities.Definition{
		Name:       input.Name,
		PartyLevel: input.PartyLevel,
		PartySize:  input.PartySize,
		Tier:       string(classification.Tier),
		Creatures:  entries,
	}

	created, err := o.repo.Create(ctx, encounters.CreateInput{Definition: def})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create encounter")
	}

	slog.Info("Encounter created",
		"slug", created.Definition.Slug,
		"tier", created.Definition.Tier,
		"creatures", created.Definition.TotalCreatures(),
	)

	return &CreateEncounterOutput{
		Definition:     created.Definition,
		Classification: classification,
	}, nil
}

func (o *orchestrator) GetEncounter(ctx context.Context, input *GetEncounterInput) (*GetEncounterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out, err := o.repo.Get(ctx, encounters.GetInput{Slug: input.Slug})
	if err != nil {
		return nil, err
	}

	def := out.Definition
	classification, err := difficulty.Classify(def.Creatures, def.PartyLevel, def.PartySize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to classify stored encounter")
	}

	return &GetEncounterOutput{
		Definition:     def,
		Classification: classification,
	}, nil
}

func (o *orchestrator) UpdateEncounter(ctx context.Context, input *UpdateEncounterInput) (*UpdateEncounterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Slug == "" {
		return nil, errors.InvalidArgument("slug is required")
	}

	existing, err := o.repo.Get(ctx, encounters.GetInput{Slug: input.Slug})
	if err != nil {
		return nil, err
	}

	name := input.Name
	if name == "" {
		name = existing.Definition.Name
	}

	entries, classification, err := o.buildRoster(ctx, name, input.PartyLevel, input.PartySize, input.Creatures)
	if err != nil {
		return nil, err
	}

	def := existing.Definition
	def.Name = name
	def.PartyLevel = input.PartyLevel
	def.PartySize = input.PartySize
	def.Tier = string(classification.Tier)
	def.Creatures = entries

	updated, err := o.repo.Update(ctx, encounters.UpdateInput{Definition: def})
	if err != nil {
		return nil, errors.Wrap(err, "failed to update encounter")
	}

	return &UpdateEncounterOutput{
		Definition:     updated.Definition,
		Classification: classification,
	}, nil
}

func (o *orchestrator) DeleteEncounter(ctx context.Context, input *DeleteEncounterInput) (*DeleteEncounterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	if _, err := o.repo.Delete(ctx, encounters.DeleteInput{Slug: input.Slug}); err != nil {
		return nil, err
	}

	return &DeleteEncounterOutput{}, nil
}

func (o *orchestrator) ListEncounters(ctx context.Context, input *ListEncountersInput) (*ListEncountersOutput, error) {
	out, err := o.repo.List(ctx, encounters.ListInput{})
	if err != nil {
		return nil, err
	}

	return &ListEncountersOutput{Definitions: out.Definitions}, nil
}

func (o *orchestrator) PreviewDifficulty(ctx context.Context, input *PreviewDifficultyInput) (*PreviewDifficultyOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	_, classification, err := o.buildRoster(ctx, "preview", input.PartyLevel, input.PartySize, input.Creatures)
	if err != nil {
		return nil, err
	}

	return &PreviewDifficultyOutput{Classification: classification}, nil
}

// buildRoster validates the request, resolves creature references, and
// classifies the result.
func (o *orchestrator) buildRoster(ctx context.Context, name string, partyLevel, partySize int, creatures []CreatureInput) ([]entities.CreatureEntry, *difficulty.Classification, error) {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("name", name, vb)
	errors.ValidateRange("partyLevel", partyLevel, 1, 20, vb)
	errors.ValidateRange("partySize", partySize, 1, 10, vb)
	if len(creatures) == 0 {
		vb.Field("creatures", "must contain at least one entry")
	}
	for i, c := range creatures {
		if c.Quantity <= 0 {
			vb.Fieldf("creatures", "entry %d: quantity must be positive", i)
		}
		if c.ReferenceID == "" && c.DisplayName == "" {
			vb.Fieldf("creatures", "entry %d: displayName or referenceId is required", i)
		}
	}
	if err := vb.Build(); err != nil {
		return nil, nil, err
	}

	entries := make([]entities.CreatureEntry, 0, len(creatures))
	for _, c := range creatures {
		entry := entities.CreatureEntry{
			ReferenceID:     c.ReferenceID,
			DisplayName:     c.DisplayName,
			ChallengeRating: c.ChallengeRating,
			Quantity:        c.Quantity,
		}

		if c.ReferenceID != "" {
			info, err := o.lookup.GetCreature(ctx, c.ReferenceID)
			if err != nil {
				// Degrade to the locally supplied values; combat must not
				// block on a missing citation.
				slog.Warn("Creature lookup failed, using supplied values",
					"reference_id", c.ReferenceID,
					"error", err,
				)
			} else {
				if entry.DisplayName == "" {
					entry.DisplayName = info.Name
				}
				if entry.ChallengeRating == "" {
					entry.ChallengeRating = info.ChallengeRating
				}
			}
		}

		threat, err := difficulty.ThreatForCR(entry.ChallengeRating)
		if err != nil {
			return nil, nil, err
		}
		entry.ThreatValue = threat

		entries = append(entries, entry)
	}

	classification, err := difficulty.Classify(entries, partyLevel, partySize)
	if err != nil {
		return nil, nil, err
	}

	return entries, classification, nil
}
