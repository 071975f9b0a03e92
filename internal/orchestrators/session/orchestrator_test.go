package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/dmtabletop/encounter-api/internal/clients/lookup"
	entities "github.com/dmtabletop/encounter-api/internal/entities/encounter"
	"github.com/dmtabletop/encounter-api/internal/errors"
	"github.com/dmtabletop/encounter-api/internal/notify"
	"github.com/dmtabletop/encounter-api/internal/orchestrators/session"
	"github.com/dmtabletop/encounter-api/internal/pkg/clock"
	"github.com/dmtabletop/encounter-api/internal/pkg/idgen"
	"github.com/dmtabletop/encounter-api/internal/repositories/encounters"
	"github.com/dmtabletop/encounter-api/internal/repositories/sessions"
	"github.com/dmtabletop/encounter-api/internal/testutils"
)

// recordingNotifier captures emitted changes for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	changes []notify.Change
}

func (n *recordingNotifier) SessionChanged(change notify.Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.changes)
}

func (n *recordingNotifier) last() notify.Change {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.changes[len(n.changes)-1]
}

type SessionOrchestratorSuite struct {
	suite.Suite

	ctx      context.Context
	cleanup  func()
	defs     encounters.Repository
	repo     sessions.Repository
	notifier *recordingNotifier
	service  session.Service

	slug string
}

func (s *SessionOrchestratorSuite) SetupTest() {
	s.ctx = context.Background()

	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup

	fixed := &clock.Fixed{T: time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC)}

	var err error
	s.defs, err = encounters.NewRedisRepository(&encounters.Config{
		Client: client,
		Clock:  fixed,
	})
	s.Require().NoError(err)

	s.repo, err = sessions.NewRedisRepository(&sessions.Config{Client: client})
	s.Require().NoError(err)

	static := &lookup.StaticClient{
		Creatures: map[string]*lookup.CreatureInfo{
			"goblin":  {ReferenceID: "goblin", Name: "Goblin", ChallengeRating: "1/4", HitPoints: 7},
			"bugbear": {ReferenceID: "bugbear", Name: "Bugbear", ChallengeRating: "1", HitPoints: 27},
		},
		PartyMembers: map[string]*lookup.PartyMemberInfo{
			"char-thorin": {CharacterID: "char-thorin", Name: "Thorin", MaxHitPoints: 28},
		},
	}

	s.notifier = &recordingNotifier{}

	s.service, err = session.NewOrchestrator(&session.Config{
		Definitions:      s.defs,
		Sessions:         s.repo,
		Lookup:           static,
		Notifier:         s.notifier,
		IDGenerator:      idgen.NewSequential("combatant"),
		EventIDGenerator: idgen.NewSequential("event"),
		Clock:            fixed,
	})
	s.Require().NoError(err)

	s.slug = s.createDefinition()
}

func (s *SessionOrchestratorSuite) TearDownTest() {
	s.cleanup()
}

func (s *SessionOrchestratorSuite) createDefinition() string {
	out, err := s.defs.Create(s.ctx, encounters.CreateInput{
		Definition: &entities.Definition{
			Name:       "Goblin Ambush",
			PartyLevel: 3,
			PartySize:  4,
			Tier:       "medium",
			Creatures: []entities.CreatureEntry{
				{ReferenceID: "goblin", DisplayName: "Goblin", ChallengeRating: "1/4", ThreatValue: 50, Quantity: 3},
				{ReferenceID: "bugbear", DisplayName: "Bugbear", ChallengeRating: "1", ThreatValue: 200, Quantity: 1},
			},
		},
	})
	s.Require().NoError(err)
	return out.Definition.Slug
}

func (s *SessionOrchestratorSuite) startSession() *entities.Session {
	out, err := s.service.StartSession(s.ctx, &session.StartSessionInput{
		EncounterSlug: s.slug,
		PartyMembers: []session.PartyMemberInput{
			{CharacterID: "char-thorin"},
			{DisplayName: "Elaria"},
		},
	})
	s.Require().NoError(err)
	return out.Session
}

// startAndBegin brings a session to the turn-tracking phase with a known
// order: Bugbear (20), goblins (15), Thorin (12), Elaria (8).
func (s *SessionOrchestratorSuite) startAndBegin() *entities.Session {
	started := s.startSession()

	thorin := s.combatantNamed(started, "Thorin")
	elaria := s.combatantNamed(started, "Elaria")
	bugbear := s.combatantNamed(started, "Bugbear")

	_, err := s.service.SetInitiative(s.ctx, &session.SetInitiativeInput{
		EncounterID: s.slug,
		Assignments: []session.InitiativeAssignment{
			{GroupKey: "goblin", Initiative: 15},
			{CombatantID: bugbear.ID, Initiative: 20},
			{CombatantID: thorin.ID, Initiative: 12},
			{CombatantID: elaria.ID, Initiative: 8},
		},
	})
	s.Require().NoError(err)

	out, err := s.service.BeginTurns(s.ctx, &session.BeginTurnsInput{EncounterID: s.slug})
	s.Require().NoError(err)
	return out.Session
}

func (s *SessionOrchestratorSuite) combatantNamed(sess *entities.Session, name string) *entities.Combatant {
	for _, c := range sess.Combatants {
		if c.DisplayName == name {
			return c
		}
	}
	s.Require().Failf("combatant not found", "no combatant named %q", name)
	return nil
}

func (s *SessionOrchestratorSuite) TestStartSessionExpandsQuantities() {
	sess := s.startSession()

	names := make([]string, 0, len(sess.Combatants))
	for _, c := range sess.Combatants {
		names = append(names, c.DisplayName)
	}

	// Three goblins get numbered names; the lone bugbear keeps its bare name.
	s.Contains(names, "Goblin 1")
	s.Contains(names, "Goblin 2")
	s.Contains(names, "Goblin 3")
	s.Contains(names, "Bugbear")
	s.NotContains(names, "Bugbear 1")
	s.Len(sess.Combatants, 6)
}

func (s *SessionOrchestratorSuite) TestStartSessionResolvesHitPoints() {
	sess := s.startSession()

	goblin := s.combatantNamed(sess, "Goblin 1")
	s.Equal(7, goblin.MaxHitPoints)
	s.Equal(7, goblin.CurrentHitPoints)
	s.Equal(entities.CombatantKindMonster, goblin.Kind)
	s.Equal("goblin", goblin.GroupKey)

	thorin := s.combatantNamed(sess, "Thorin")
	s.Equal(28, thorin.MaxHitPoints)
	s.Equal(entities.CombatantKindPartyMember, thorin.Kind)
	s.Zero(thorin.CurrentHitPoints)
}

func (s *SessionOrchestratorSuite) TestStartSessionInitialState() {
	sess := s.startSession()

	s.Equal(1, sess.Round)
	s.Equal(0, sess.TurnIndex)
	s.Equal(entities.SessionStatusActive, sess.Status)
	s.False(sess.TurnsStarted)
	s.Empty(sess.Events)
	for _, c := range sess.Combatants {
		s.Zero(c.Initiative)
		s.False(c.IsActive)
	}
}

func (s *SessionOrchestratorSuite) TestStartSessionRejectsSecondLiveSession() {
	s.startSession()

	_, err := s.service.StartSession(s.ctx, &session.StartSessionInput{EncounterSlug: s.slug})
	s.Require().Error(err)
	s.True(errors.IsFailedPrecondition(err))
}

func (s *SessionOrchestratorSuite) TestStartSessionUnknownEncounter() {
	_, err := s.service.StartSession(s.ctx, &session.StartSessionInput{EncounterSlug: "no-such-encounter"})
	s.Require().Error(err)
	s.True(errors.IsNotFound(err))
}

func (s *SessionOrchestratorSuite) TestStartSessionLookupFallback() {
	out, err := s.service.StartSession(s.ctx, &session.StartSessionInput{
		EncounterSlug: s.slug,
		PartyMembers: []session.PartyMemberInput{
			{CharacterID: "char-missing", DisplayName: "Mysterious Stranger"},
		},
	})
	s.Require().NoError(err)

	stranger := s.combatantNamed(out.Session, "Mysterious Stranger")
	s.Equal(20, stranger.MaxHitPoints)
}

func (s *SessionOrchestratorSuite) TestSetInitiativeByGroup() {
	s.startSession()

	out, err := s.service.SetInitiative(s.ctx, &session.SetInitiativeInput{
		EncounterID: s.slug,
		Assignments: []session.InitiativeAssignment{
			{GroupKey: "goblin", Initiative: 15},
		},
	})
	s.Require().NoError(err)

	matched := 0
	for _, c := range out.Session.Combatants {
		if c.GroupKey == "goblin" {
			s.Equal(15, c.Initiative)
			matched++
		}
	}
	s.Equal(3, matched)
}

func (s *SessionOrchestratorSuite) TestSetInitiativeUnknownCombatant() {
	s.startSession()

	_, err := s.service.SetInitiative(s.ctx, &session.SetInitiativeInput{
		EncounterID: s.slug,
		Assignments: []session.InitiativeAssignment{
			{CombatantID: "combatant_999", Initiative: 10},
		},
	})
	s.Require().Error(err)
	s.True(errors.IsNotFound(err))
}

func (s *SessionOrchestratorSuite) TestSetInitiativeAfterTurnsBeganRejected() {
	sess := s.startAndBegin()

	_, err := s.service.SetInitiative(s.ctx, &session.SetInitiativeInput{
		EncounterID: s.slug,
		Assignments: []session.InitiativeAssignment{
			{CombatantID: sess.Combatants[0].ID, Initiative: 3},
		},
	})
	s.Require().Error(err)
	s.True(errors.IsFailedPrecondition(err))
}

func (s *SessionOrchestratorSuite) TestBeginTurnsRequiresAllInitiative() {
	s.startSession()

	_, err := s.service.BeginTurns(s.ctx, &session.BeginTurnsInput{EncounterID: s.slug})
	s.Require().Error(err)
	s.True(errors.IsFailedPrecondition(err))
}

func (s *SessionOrchestratorSuite) TestBeginTurnsActivatesHighest() {
	sess := s.startAndBegin()

	s.True(sess.TurnsStarted)
	s.Equal("Bugbear", sess.ActiveCombatant().DisplayName)
	s.Equal(0, sess.TurnIndex)
	s.Equal(1, sess.Round)
}

func (s *SessionOrchestratorSuite) TestAdvanceBeforeBeginRejected() {
	s.startSession()

	_, err := s.service.AdvanceTurn(s.ctx, &session.AdvanceTurnInput{
		EncounterID: s.slug,
		Direction:   1,
	})
	s.Require().Error(err)
	s.True(errors.IsFailedPrecondition(err))
}

func (s *SessionOrchestratorSuite) TestAdvanceWrapsAndIncrementsRound() {
	sess := s.startAndBegin()
	count := len(sess.Combatants)

	var out *session.AdvanceTurnOutput
	var err error
	for i := 0; i < count; i++ {
		out, err = s.service.AdvanceTurn(s.ctx, &session.AdvanceTurnInput{
			EncounterID: s.slug,
			Direction:   1,
		})
		s.Require().NoError(err)
	}

	s.Equal(2, out.Session.Round)
	s.Equal(0, out.Session.TurnIndex)
	s.Equal("Bugbear", out.Session.ActiveCombatant().DisplayName)
}

func (s *SessionOrchestratorSuite) TestRetreatClampsRound() {
	s.startAndBegin()

	out, err := s.service.AdvanceTurn(s.ctx, &session.AdvanceTurnInput{
		EncounterID: s.slug,
		Direction:   -1,
	})
	s.Require().NoError(err)

	s.Equal(1, out.Session.Round)
	s.Equal(len(out.Session.Combatants)-1, out.Session.TurnIndex)
}

func (s *SessionOrchestratorSuite) TestApplyDamageRecordsRequestedAmount() {
	sess := s.startAndBegin()
	goblin := s.combatantNamed(sess, "Goblin 1")

	// 10 requested against 7 HP: the pool floors at zero but the ledger
	// keeps the operator's number.
	out, err := s.service.ApplyDamage(s.ctx, &session.ApplyDamageInput{
		EncounterID: s.slug,
		CombatantID: goblin.ID,
		Amount:      10,
		Source:      "Thorin's greataxe",
	})
	s.Require().NoError(err)

	hit := out.Session.FindCombatant(goblin.ID)
	s.Equal(0, hit.CurrentHitPoints)
	s.True(hit.IsDefeated())

	s.Require().Len(out.Session.Events, 1)
	event := out.Session.Events[0]
	s.Equal(10, event.Amount)
	s.Equal(entities.EventKindDamage, event.Kind)
	s.Equal("Goblin 1", event.TargetNameSnapshot)
	s.Equal("Thorin's greataxe", event.Source)
	s.Equal(1, event.Round)
}

func (s *SessionOrchestratorSuite) TestPartyMemberDamageAccumulates() {
	sess := s.startAndBegin()
	thorin := s.combatantNamed(sess, "Thorin")

	_, err := s.service.ApplyDamage(s.ctx, &session.ApplyDamageInput{
		EncounterID: s.slug,
		CombatantID: thorin.ID,
		Amount:      6,
	})
	s.Require().NoError(err)

	out, err := s.service.ApplyHealing(s.ctx, &session.ApplyHealingInput{
		EncounterID: s.slug,
		CombatantID: thorin.ID,
		Amount:      4,
	})
	s.Require().NoError(err)

	healed := out.Session.FindCombatant(thorin.ID)
	s.Equal(2, healed.DamageAccumulated)
	s.Len(out.Session.Events, 2)
}

func (s *SessionOrchestratorSuite) TestTemporaryHPAbsorbsFirst() {
	sess := s.startAndBegin()
	bugbear := s.combatantNamed(sess, "Bugbear")

	_, err := s.service.AddTemporaryHP(s.ctx, &session.AddTemporaryHPInput{
		EncounterID: s.slug,
		CombatantID: bugbear.ID,
		Amount:      5,
	})
	s.Require().NoError(err)

	out, err := s.service.ApplyDamage(s.ctx, &session.ApplyDamageInput{
		EncounterID: s.slug,
		CombatantID: bugbear.ID,
		Amount:      8,
	})
	s.Require().NoError(err)

	hit := out.Session.FindCombatant(bugbear.ID)
	s.Equal(0, hit.TemporaryHitPoints)
	s.Equal(24, hit.CurrentHitPoints)
}

func (s *SessionOrchestratorSuite) TestDamageRejectsNonPositiveAmount() {
	sess := s.startAndBegin()

	_, err := s.service.ApplyDamage(s.ctx, &session.ApplyDamageInput{
		EncounterID: s.slug,
		CombatantID: sess.Combatants[0].ID,
		Amount:      0,
	})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
}

func (s *SessionOrchestratorSuite) TestToggleCondition() {
	sess := s.startAndBegin()
	goblin := s.combatantNamed(sess, "Goblin 2")

	out, err := s.service.ToggleCondition(s.ctx, &session.ToggleConditionInput{
		EncounterID: s.slug,
		CombatantID: goblin.ID,
		Condition:   "prone",
	})
	s.Require().NoError(err)
	s.True(out.Session.FindCombatant(goblin.ID).HasCondition("prone"))

	out, err = s.service.ToggleCondition(s.ctx, &session.ToggleConditionInput{
		EncounterID: s.slug,
		CombatantID: goblin.ID,
		Condition:   "prone",
	})
	s.Require().NoError(err)
	s.False(out.Session.FindCombatant(goblin.ID).HasCondition("prone"))
}

func (s *SessionOrchestratorSuite) TestPauseBlocksMutations() {
	sess := s.startAndBegin()

	_, err := s.service.PauseSession(s.ctx, &session.PauseSessionInput{EncounterID: s.slug})
	s.Require().NoError(err)

	_, err = s.service.ApplyDamage(s.ctx, &session.ApplyDamageInput{
		EncounterID: s.slug,
		CombatantID: sess.Combatants[0].ID,
		Amount:      3,
	})
	s.Require().Error(err)
	s.True(errors.IsFailedPrecondition(err))

	_, err = s.service.AdvanceTurn(s.ctx, &session.AdvanceTurnInput{
		EncounterID: s.slug,
		Direction:   1,
	})
	s.Require().Error(err)
	s.True(errors.IsFailedPrecondition(err))
}

func (s *SessionOrchestratorSuite) TestPauseResumeRoundTrip() {
	begun := s.startAndBegin()

	_, err := s.service.AdvanceTurn(s.ctx, &session.AdvanceTurnInput{
		EncounterID: s.slug,
		Direction:   1,
	})
	s.Require().NoError(err)

	damaged, err := s.service.ApplyDamage(s.ctx, &session.ApplyDamageInput{
		EncounterID: s.slug,
		CombatantID: begun.Combatants[0].ID,
		Amount:      5,
	})
	s.Require().NoError(err)

	_, err = s.service.PauseSession(s.ctx, &session.PauseSessionInput{EncounterID: s.slug})
	s.Require().NoError(err)

	resumed, err := s.service.ResumeSession(s.ctx, &session.ResumeSessionInput{EncounterID: s.slug})
	s.Require().NoError(err)

	// Everything but the status survives the pause untouched.
	s.Equal(entities.SessionStatusActive, resumed.Session.Status)
	s.Equal(damaged.Session.Round, resumed.Session.Round)
	s.Equal(damaged.Session.TurnIndex, resumed.Session.TurnIndex)
	s.Equal(damaged.Session.Combatants, resumed.Session.Combatants)
	s.Equal(damaged.Session.Events, resumed.Session.Events)
}

func (s *SessionOrchestratorSuite) TestResumeRequiresPaused() {
	s.startAndBegin()

	_, err := s.service.ResumeSession(s.ctx, &session.ResumeSessionInput{EncounterID: s.slug})
	s.Require().Error(err)
	s.True(errors.IsFailedPrecondition(err))
}

func (s *SessionOrchestratorSuite) TestEndSessionArchives() {
	s.startAndBegin()

	out, err := s.service.EndSession(s.ctx, &session.EndSessionInput{EncounterID: s.slug})
	s.Require().NoError(err)
	s.Equal(entities.SessionStatusCompleted, out.Session.Status)

	_, err = s.service.GetSession(s.ctx, &session.GetSessionInput{EncounterID: s.slug})
	s.Require().Error(err)
	s.True(errors.IsFailedPrecondition(err))

	// A new session for the same encounter is allowed after archival.
	restarted, err := s.service.StartSession(s.ctx, &session.StartSessionInput{EncounterSlug: s.slug})
	s.Require().NoError(err)
	s.Equal(entities.SessionStatusActive, restarted.Session.Status)
}

func (s *SessionOrchestratorSuite) TestEndWorksWhilePaused() {
	s.startAndBegin()

	_, err := s.service.PauseSession(s.ctx, &session.PauseSessionInput{EncounterID: s.slug})
	s.Require().NoError(err)

	out, err := s.service.EndSession(s.ctx, &session.EndSessionInput{EncounterID: s.slug})
	s.Require().NoError(err)
	s.Equal(entities.SessionStatusCompleted, out.Session.Status)
}

func (s *SessionOrchestratorSuite) TestGetSessionNeverStarted() {
	_, err := s.service.GetSession(s.ctx, &session.GetSessionInput{EncounterID: s.slug})
	s.Require().Error(err)
	s.True(errors.IsNotFound(err))
}

func (s *SessionOrchestratorSuite) TestListActiveSessions() {
	s.startSession()

	out, err := s.service.ListActiveSessions(s.ctx, &session.ListActiveSessionsInput{})
	s.Require().NoError(err)
	s.Require().Len(out.Sessions, 1)
	s.Equal(s.slug, out.Sessions[0].EncounterID)
}

func (s *SessionOrchestratorSuite) TestEveryMutationNotifies() {
	sess := s.startAndBegin()
	before := s.notifier.count()

	_, err := s.service.ApplyDamage(s.ctx, &session.ApplyDamageInput{
		EncounterID: s.slug,
		CombatantID: sess.Combatants[0].ID,
		Amount:      2,
	})
	s.Require().NoError(err)
	s.Equal(before+1, s.notifier.count())

	_, err = s.service.AdvanceTurn(s.ctx, &session.AdvanceTurnInput{
		EncounterID: s.slug,
		Direction:   1,
	})
	s.Require().NoError(err)
	s.Equal(before+2, s.notifier.count())

	change := s.notifier.last()
	s.Equal(s.slug, change.EncounterID)
	s.Equal("active", change.Status)
	s.Equal(1, change.TurnIndex)
}

func (s *SessionOrchestratorSuite) TestFailedMutationDoesNotNotify() {
	s.startAndBegin()
	before := s.notifier.count()

	_, err := s.service.ApplyDamage(s.ctx, &session.ApplyDamageInput{
		EncounterID: s.slug,
		CombatantID: "combatant_999",
		Amount:      2,
	})
	s.Require().Error(err)
	s.Equal(before, s.notifier.count())
}

func (s *SessionOrchestratorSuite) TestConfigValidation() {
	_, err := session.NewOrchestrator(&session.Config{})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
}

func TestSessionOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(SessionOrchestratorSuite))
}
