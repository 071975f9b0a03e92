// Package session implements the combat session orchestrator: the lifecycle
// state machine from setup through turn tracking to archival.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmtabletop/encounter-api/internal/clients/lookup"
	"github.com/dmtabletop/encounter-api/internal/engine/initiative"
	"github.com/dmtabletop/encounter-api/internal/engine/ledger"
	entities "github.com/dmtabletop/encounter-api/internal/entities/encounter"
	"github.com/dmtabletop/encounter-api/internal/errors"
	"github.com/dmtabletop/encounter-api/internal/notify"
	"github.com/dmtabletop/encounter-api/internal/pkg/clock"
	"github.com/dmtabletop/encounter-api/internal/pkg/idgen"
	"github.com/dmtabletop/encounter-api/internal/repositories/encounters"
	"github.com/dmtabletop/encounter-api/internal/repositories/sessions"
)

// Fallback hit points when the creature or character lookup cannot resolve a
// reference. Combat proceeds; the operator can adjust by hand.
const (
	defaultMonsterHitPoints     = 10
	defaultPartyMemberHitPoints = 20
)

// Service defines the interface for combat session operations
type Service interface {
	// StartSession expands an encounter definition into a live session
	StartSession(ctx context.Context, input *StartSessionInput) (*StartSessionOutput, error)

	// GetSession fetches the current session state for an encounter
	GetSession(ctx context.Context, input *GetSessionInput) (*GetSessionOutput, error)

	// ListActiveSessions returns all live (active or paused) sessions
	ListActiveSessions(ctx context.Context, input *ListActiveSessionsInput) (*ListActiveSessionsOutput, error)

	// SetInitiative assigns initiative values before turns begin
	SetInitiative(ctx context.Context, input *SetInitiativeInput) (*SetInitiativeOutput, error)

	// BeginTurns locks the turn order and activates the first combatant
	BeginTurns(ctx context.Context, input *BeginTurnsInput) (*BeginTurnsOutput, error)

	// AdvanceTurn moves the turn pointer forward or backward
	AdvanceTurn(ctx context.Context, input *AdvanceTurnInput) (*AdvanceTurnOutput, error)

	// ApplyDamage damages a combatant and records the event
	ApplyDamage(ctx context.Context, input *ApplyDamageInput) (*ApplyDamageOutput, error)

	// ApplyHealing heals a combatant and records the event
	ApplyHealing(ctx context.Context, input *ApplyHealingInput) (*ApplyHealingOutput, error)

	// AddTemporaryHP grants temporary hit points and records the event
	AddTemporaryHP(ctx context.Context, input *AddTemporaryHPInput) (*AddTemporaryHPOutput, error)

	// ToggleCondition adds or removes a condition marker on a combatant
	ToggleCondition(ctx context.Context, input *ToggleConditionInput) (*ToggleConditionOutput, error)

	// PauseSession suspends an active session
	PauseSession(ctx context.Context, input *PauseSessionInput) (*PauseSessionOutput, error)

	// ResumeSession reactivates a paused session
	ResumeSession(ctx context.Context, input *ResumeSessionInput) (*ResumeSessionOutput, error)

	// EndSession completes the session and archives it
	EndSession(ctx context.Context, input *EndSessionInput) (*EndSessionOutput, error)
}

// Config holds the dependencies for the session orchestrator
type Config struct {
	Definitions encounters.Repository
	Sessions    sessions.Repository
	Lookup      lookup.Client
	Notifier    notify.Notifier

	// IDGenerator issues combatant IDs; EventIDGenerator issues ledger event
	// IDs. Defaults to IDGenerator when nil.
	IDGenerator      idgen.Generator
	EventIDGenerator idgen.Generator

	Clock clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()
	if c.Definitions == nil {
		vb.RequiredField("Definitions")
	}
	if c.Sessions == nil {
		vb.RequiredField("Sessions")
	}
	if c.Lookup == nil {
		vb.RequiredField("Lookup")
	}
	if c.Notifier == nil {
		vb.RequiredField("Notifier")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}
	return vb.Build()
}

type orchestrator struct {
	definitions encounters.Repository
	sessions    sessions.Repository
	lookup      lookup.Client
	notifier    notify.Notifier
	idGen       idgen.Generator
	clock       clock.Clock
	recorder    *ledger.Recorder
}

// NewOrchestrator creates a new session orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	eventIDs := cfg.EventIDGenerator
	if eventIDs == nil {
		eventIDs = cfg.IDGenerator
	}

	recorder, err := ledger.NewRecorder(&ledger.RecorderConfig{
		IDGenerator: eventIDs,
		Clock:       cfg.Clock,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ledger recorder")
	}

	return &orchestrator{
		definitions: cfg.Definitions,
		sessions:    cfg.Sessions,
		lookup:      cfg.Lookup,
		notifier:    cfg.Notifier,
		idGen:       cfg.IDGenerator,
		clock:       cfg.Clock,
		recorder:    recorder,
	}, nil
}

func (o *orchestrator) StartSession(ctx context.Context, input *StartSessionInput) (*StartSessionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.EncounterSlug == "" {
		return nil, errors.InvalidArgument("encounterSlug is required")
	}

	defOut, err := o.definitions.Get(ctx, encounters.GetInput{Slug: input.EncounterSlug})
	if err != nil {
		return nil, err
	}
	def := defOut.Definition

	// One live session per encounter. A completed-and-archived session does
	// not block a rematch.
	existing, err := o.sessions.Get(ctx, sessions.GetInput{EncounterID: def.Slug})
	if err == nil && existing.Session != nil {
		return nil, errors.FailedPreconditionf("a session for encounter %q is already in progress", def.Slug)
	}
	if err != nil && !errors.IsNotFound(err) && !errors.IsFailedPrecondition(err) {
		return nil, errors.Wrap(err, "failed to check for existing session")
	}

	combatants := make([]*entities.Combatant, 0, def.TotalCreatures()+len(input.PartyMembers))
	for _, entry := range def.Creatures {
		combatants = append(combatants, o.expandCreature(ctx, entry)...)
	}
	for _, member := range input.PartyMembers {
		combatants = append(combatants, o.resolvePartyMember(ctx, member))
	}

	if len(combatants) == 0 {
		return nil, errors.InvalidArgument("session must have at least one combatant")
	}

	session := &entities.Session{
		EncounterID: def.Slug,
		Round:       1,
		TurnIndex:   0,
		Status:      entities.SessionStatusActive,
		StartedAt:   o.clock.Now(),
		Combatants:  combatants,
		Events:      []*entities.DamageEvent{},
	}

	if err := o.persist(ctx, session); err != nil {
		return nil, err
	}

	slog.Info("Combat session started",
		"encounter_id", session.EncounterID,
		"combatants", len(session.Combatants),
	)

	return &StartSessionOutput{Session: session}, nil
}

func (o *orchestrator) GetSession(ctx context.Context, input *GetSessionInput) (*GetSessionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out, err := o.sessions.Get(ctx, sessions.GetInput{EncounterID: input.EncounterID})
	if err != nil {
		return nil, err
	}

	return &GetSessionOutput{Session: out.Session}, nil
}

func (o *orchestrator) ListActiveSessions(ctx context.Context, input *ListActiveSessionsInput) (*ListActiveSessionsOutput, error) {
	out, err := o.sessions.ListActive(ctx, sessions.ListActiveInput{})
	if err != nil {
		return nil, err
	}

	return &ListActiveSessionsOutput{Sessions: out.Sessions}, nil
}

func (o *orchestrator) SetInitiative(ctx context.Context, input *SetInitiativeInput) (*SetInitiativeOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if len(input.Assignments) == 0 {
		return nil, errors.InvalidArgument("at least one assignment is required")
	}

	session, err := o.loadMutable(ctx, input.EncounterID)
	if err != nil {
		return nil, err
	}
	if session.TurnsStarted {
		return nil, errors.FailedPrecondition("initiative cannot change after turns begin")
	}

	for i, a := range input.Assignments {
		if a.Initiative <= 0 {
			return nil, errors.InvalidArgumentf("assignment %d: initiative must be positive", i)
		}
		if (a.CombatantID == "") == (a.GroupKey == "") {
			return nil, errors.InvalidArgumentf("assignment %d: exactly one of combatantId or groupKey is required", i)
		}

		if a.CombatantID != "" {
			c := session.FindCombatant(a.CombatantID)
			if c == nil {
				return nil, errors.NotFoundf("combatant %q not found", a.CombatantID)
			}
			c.Initiative = a.Initiative
			continue
		}

		matched := 0
		for _, c := range session.Combatants {
			if c.GroupKey == a.GroupKey {
				c.Initiative = a.Initiative
				matched++
			}
		}
		if matched == 0 {
			return nil, errors.NotFoundf("no combatants in group %q", a.GroupKey)
		}
	}

	if err := o.persist(ctx, session); err != nil {
		return nil, err
	}

	return &SetInitiativeOutput{Session: session}, nil
}

func (o *orchestrator) BeginTurns(ctx context.Context, input *BeginTurnsInput) (*BeginTurnsOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	session, err := o.loadMutable(ctx, input.EncounterID)
	if err != nil {
		return nil, err
	}
	if session.TurnsStarted {
		return nil, errors.FailedPrecondition("turns have already begun")
	}

	if err := initiative.Begin(session); err != nil {
		return nil, err
	}

	if err := o.persist(ctx, session); err != nil {
		return nil, err
	}

	slog.Info("Turns began",
		"encounter_id", session.EncounterID,
		"first", session.ActiveCombatant().DisplayName,
	)

	return &BeginTurnsOutput{Session: session}, nil
}

func (o *orchestrator) AdvanceTurn(ctx context.Context, input *AdvanceTurnInput) (*AdvanceTurnOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	session, err := o.loadMutable(ctx, input.EncounterID)
	if err != nil {
		return nil, err
	}

	if err := initiative.Advance(session, input.Direction); err != nil {
		return nil, err
	}

	if err := o.persist(ctx, session); err != nil {
		return nil, err
	}

	return &AdvanceTurnOutput{Session: session}, nil
}

func (o *orchestrator) ApplyDamage(ctx context.Context, input *ApplyDamageInput) (*ApplyDamageOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	session, target, err := o.loadTarget(ctx, input.EncounterID, input.CombatantID, input.Amount)
	if err != nil {
		return nil, err
	}

	ledger.ApplyDamage(target, input.Amount)
	o.recorder.Record(session, target, entities.EventKindDamage, input.Amount, input.Source)

	if err := o.persist(ctx, session); err != nil {
		return nil, err
	}

	if target.IsDefeated() {
		slog.Info("Combatant defeated",
			"encounter_id", session.EncounterID,
			"combatant", target.DisplayName,
		)
	}

	return &ApplyDamageOutput{Session: session}, nil
}

func (o *orchestrator) ApplyHealing(ctx context.Context, input *ApplyHealingInput) (*ApplyHealingOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	session, target, err := o.loadTarget(ctx, input.EncounterID, input.CombatantID, input.Amount)
	if err != nil {
		return nil, err
	}

	ledger.ApplyHealing(target, input.Amount)
	o.recorder.Record(session, target, entities.EventKindHealing, input.Amount, input.Source)

	if err := o.persist(ctx, session); err != nil {
		return nil, err
	}

	return &ApplyHealingOutput{Session: session}, nil
}

func (o *orchestrator) AddTemporaryHP(ctx context.Context, input *AddTemporaryHPInput) (*AddTemporaryHPOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	session, target, err := o.loadTarget(ctx, input.EncounterID, input.CombatantID, input.Amount)
	if err != nil {
		return nil, err
	}

	ledger.AddTemporaryHitPoints(target, input.Amount)
	o.recorder.Record(session, target, entities.EventKindTemporaryHP, input.Amount, input.Source)

	if err := o.persist(ctx, session); err != nil {
		return nil, err
	}

	return &AddTemporaryHPOutput{Session: session}, nil
}

func (o *orchestrator) ToggleCondition(ctx context.Context, input *ToggleConditionInput) (*ToggleConditionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Condition == "" {
		return nil, errors.InvalidArgument("condition is required")
	}

	session, err := o.loadMutable(ctx, input.EncounterID)
	if err != nil {
		return nil, err
	}

	target := session.FindCombatant(input.CombatantID)
	if target == nil {
		return nil, errors.NotFoundf("combatant %q not found", input.CombatantID)
	}

	if target.HasCondition(input.Condition) {
		kept := target.Conditions[:0]
		for _, c := range target.Conditions {
			if c != input.Condition {
				kept = append(kept, c)
			}
		}
		target.Conditions = kept
	} else {
		target.Conditions = append(target.Conditions, input.Condition)
	}

	if err := o.persist(ctx, session); err != nil {
		return nil, err
	}

	return &ToggleConditionOutput{Session: session}, nil
}

func (o *orchestrator) PauseSession(ctx context.Context, input *PauseSessionInput) (*PauseSessionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	session, err := o.loadMutable(ctx, input.EncounterID)
	if err != nil {
		return nil, err
	}

	session.Status = entities.SessionStatusPaused

	if err := o.persist(ctx, session); err != nil {
		return nil, err
	}

	return &PauseSessionOutput{Session: session}, nil
}

func (o *orchestrator) ResumeSession(ctx context.Context, input *ResumeSessionInput) (*ResumeSessionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out, err := o.sessions.Get(ctx, sessions.GetInput{EncounterID: input.EncounterID})
	if err != nil {
		return nil, err
	}

	session := out.Session
	if session.Status != entities.SessionStatusPaused {
		return nil, errors.FailedPreconditionf("session is %s, not paused", session.Status)
	}

	session.Status = entities.SessionStatusActive

	if err := o.persist(ctx, session); err != nil {
		return nil, err
	}

	return &ResumeSessionOutput{Session: session}, nil
}

func (o *orchestrator) EndSession(ctx context.Context, input *EndSessionInput) (*EndSessionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out, err := o.sessions.Get(ctx, sessions.GetInput{EncounterID: input.EncounterID})
	if err != nil {
		return nil, err
	}

	session := out.Session
	session.Status = entities.SessionStatusCompleted

	if _, err := o.sessions.Archive(ctx, sessions.ArchiveInput{Session: session}); err != nil {
		return nil, errors.Wrap(err, "failed to archive session")
	}

	o.notifySessionChanged(session)

	slog.Info("Combat session ended",
		"encounter_id", session.EncounterID,
		"rounds", session.Round,
		"events", len(session.Events),
	)

	return &EndSessionOutput{Session: session}, nil
}

// expandCreature turns one definition entry of quantity n into n combatants.
// Copies get numbered names ("Goblin 1", "Goblin 2"); a single creature keeps
// its bare name. All copies share a group key for group initiative.
func (o *orchestrator) expandCreature(ctx context.Context, entry entities.CreatureEntry) []*entities.Combatant {
	name := entry.DisplayName
	hitPoints := defaultMonsterHitPoints

	if entry.ReferenceID != "" {
		info, err := o.lookup.GetCreature(ctx, entry.ReferenceID)
		if err != nil {
			slog.Warn("Creature lookup failed, using defaults",
				"reference_id", entry.ReferenceID,
				"error", err,
			)
		} else {
			if name == "" {
				name = info.Name
			}
			if info.HitPoints > 0 {
				hitPoints = info.HitPoints
			}
		}
	}

	groupKey := entry.ReferenceID
	if groupKey == "" {
		groupKey = name
	}

	combatants := make([]*entities.Combatant, 0, entry.Quantity)
	for i := 1; i <= entry.Quantity; i++ {
		displayName := name
		if entry.Quantity > 1 {
			displayName = fmt.Sprintf("%s %d", name, i)
		}

		combatants = append(combatants, &entities.Combatant{
			ID:               o.idGen.Generate(),
			DisplayName:      displayName,
			Kind:             entities.CombatantKindMonster,
			ReferenceID:      entry.ReferenceID,
			GroupKey:         groupKey,
			MaxHitPoints:     hitPoints,
			CurrentHitPoints: hitPoints,
		})
	}

	return combatants
}

func (o *orchestrator) resolvePartyMember(ctx context.Context, member PartyMemberInput) *entities.Combatant {
	name := member.DisplayName
	hitPoints := defaultPartyMemberHitPoints

	if member.CharacterID != "" {
		info, err := o.lookup.GetPartyMember(ctx, member.CharacterID)
		if err != nil {
			slog.Warn("Party member lookup failed, using defaults",
				"character_id", member.CharacterID,
				"error", err,
			)
		} else {
			if name == "" {
				name = info.Name
			}
			if info.MaxHitPoints > 0 {
				hitPoints = info.MaxHitPoints
			}
		}
	}

	return &entities.Combatant{
		ID:           o.idGen.Generate(),
		DisplayName:  name,
		Kind:         entities.CombatantKindPartyMember,
		ReferenceID:  member.CharacterID,
		MaxHitPoints: hitPoints,
	}
}

// loadMutable fetches the live session and rejects mutation unless it is
// active. Paused sessions accept only Resume and End.
func (o *orchestrator) loadMutable(ctx context.Context, encounterID string) (*entities.Session, error) {
	if encounterID == "" {
		return nil, errors.InvalidArgument("encounterId is required")
	}

	out, err := o.sessions.Get(ctx, sessions.GetInput{EncounterID: encounterID})
	if err != nil {
		return nil, err
	}

	if out.Session.Status != entities.SessionStatusActive {
		return nil, errors.FailedPreconditionf("session is %s; resume it before making changes", out.Session.Status)
	}

	return out.Session, nil
}

// loadTarget is loadMutable plus amount validation and combatant resolution,
// shared by the three ledger operations.
func (o *orchestrator) loadTarget(ctx context.Context, encounterID, combatantID string, amount int) (*entities.Session, *entities.Combatant, error) {
	if amount <= 0 {
		return nil, nil, errors.InvalidArgument("amount must be positive")
	}

	session, err := o.loadMutable(ctx, encounterID)
	if err != nil {
		return nil, nil, err
	}

	target := session.FindCombatant(combatantID)
	if target == nil {
		return nil, nil, errors.NotFoundf("combatant %q not found", combatantID)
	}

	return session, target, nil
}

// persist writes the whole session record, then notifies subscribers. The
// notification only ever follows a durable write.
func (o *orchestrator) persist(ctx context.Context, session *entities.Session) error {
	if _, err := o.sessions.Save(ctx, sessions.SaveInput{Session: session}); err != nil {
		return errors.Wrap(err, "failed to save session")
	}

	o.notifySessionChanged(session)
	return nil
}

func (o *orchestrator) notifySessionChanged(session *entities.Session) {
	o.notifier.SessionChanged(notify.Change{
		EncounterID: session.EncounterID,
		Status:      string(session.Status),
		Round:       session.Round,
		TurnIndex:   session.TurnIndex,
	})
}
