package encounters_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/dmtabletop/encounter-api/internal/entities/encounter"
	"github.com/dmtabletop/encounter-api/internal/errors"
	"github.com/dmtabletop/encounter-api/internal/pkg/clock"
	"github.com/dmtabletop/encounter-api/internal/repositories/encounters"
	"github.com/dmtabletop/encounter-api/internal/testutils"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	repo    encounters.Repository
	cleanup func()
	ctx     context.Context
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup

	repo, err := encounters.NewRedisRepository(&encounters.Config{
		Client: client,
		Clock:  &clock.Fixed{T: time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)},
	})
	s.Require().NoError(err)

	s.repo = repo
	s.ctx = context.Background()
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	s.cleanup()
}

func (s *RedisRepositoryTestSuite) definition(name string) *encounter.Definition {
	return &encounter.Definition{
		Name:       name,
		PartyLevel: 3,
		PartySize:  4,
		Tier:       "medium",
		Creatures: []encounter.CreatureEntry{
			{ReferenceID: "goblin", DisplayName: "Goblin", ChallengeRating: "1/4", ThreatValue: 50, Quantity: 3},
		},
	}
}

func (s *RedisRepositoryTestSuite) TestCreateAssignsSlug() {
	out, err := s.repo.Create(s.ctx, encounters.CreateInput{Definition: s.definition("Goblin Ambush!")})

	s.NoError(err)
	s.Equal("goblin-ambush", out.Definition.Slug)
	s.False(out.Definition.CreatedAt.IsZero())
}

func (s *RedisRepositoryTestSuite) TestCreateDisambiguatesSlugCollision() {
	first, err := s.repo.Create(s.ctx, encounters.CreateInput{Definition: s.definition("Goblin Ambush")})
	s.Require().NoError(err)
	s.Equal("goblin-ambush", first.Definition.Slug)

	second, err := s.repo.Create(s.ctx, encounters.CreateInput{Definition: s.definition("Goblin Ambush")})
	s.Require().NoError(err)
	s.Equal("goblin-ambush-2", second.Definition.Slug)

	third, err := s.repo.Create(s.ctx, encounters.CreateInput{Definition: s.definition("Goblin Ambush")})
	s.Require().NoError(err)
	s.Equal("goblin-ambush-3", third.Definition.Slug)
}

func (s *RedisRepositoryTestSuite) TestCreateValidation() {
	_, err := s.repo.Create(s.ctx, encounters.CreateInput{Definition: nil})
	s.True(errors.IsInvalidArgument(err))

	_, err = s.repo.Create(s.ctx, encounters.CreateInput{Definition: &encounter.Definition{}})
	s.True(errors.IsInvalidArgument(err))
}

func (s *RedisRepositoryTestSuite) TestGetRoundTrips() {
	created, err := s.repo.Create(s.ctx, encounters.CreateInput{Definition: s.definition("Goblin Ambush")})
	s.Require().NoError(err)

	out, err := s.repo.Get(s.ctx, encounters.GetInput{Slug: created.Definition.Slug})

	s.NoError(err)
	s.Equal(created.Definition, out.Definition)
}

func (s *RedisRepositoryTestSuite) TestGetNotFound() {
	_, err := s.repo.Get(s.ctx, encounters.GetInput{Slug: "missing"})
	s.True(errors.IsNotFound(err))
}

func (s *RedisRepositoryTestSuite) TestUpdateReplacesCreatureList() {
	created, err := s.repo.Create(s.ctx, encounters.CreateInput{Definition: s.definition("Goblin Ambush")})
	s.Require().NoError(err)

	def := created.Definition
	def.Creatures = []encounter.CreatureEntry{
		{ReferenceID: "bugbear", DisplayName: "Bugbear", ChallengeRating: "1", ThreatValue: 200, Quantity: 1},
	}

	_, err = s.repo.Update(s.ctx, encounters.UpdateInput{Definition: def})
	s.Require().NoError(err)

	out, err := s.repo.Get(s.ctx, encounters.GetInput{Slug: def.Slug})
	s.Require().NoError(err)
	s.Len(out.Definition.Creatures, 1)
	s.Equal("Bugbear", out.Definition.Creatures[0].DisplayName)
}

func (s *RedisRepositoryTestSuite) TestUpdateNotFound() {
	def := s.definition("Ghost Encounter")
	def.Slug = "ghost-encounter"

	_, err := s.repo.Update(s.ctx, encounters.UpdateInput{Definition: def})
	s.True(errors.IsNotFound(err))
}

func (s *RedisRepositoryTestSuite) TestDeleteRemovesFromIndex() {
	created, err := s.repo.Create(s.ctx, encounters.CreateInput{Definition: s.definition("Goblin Ambush")})
	s.Require().NoError(err)

	_, err = s.repo.Delete(s.ctx, encounters.DeleteInput{Slug: created.Definition.Slug})
	s.Require().NoError(err)

	_, err = s.repo.Get(s.ctx, encounters.GetInput{Slug: created.Definition.Slug})
	s.True(errors.IsNotFound(err))

	list, err := s.repo.List(s.ctx, encounters.ListInput{})
	s.Require().NoError(err)
	s.Empty(list.Definitions)
}

func (s *RedisRepositoryTestSuite) TestListReturnsAll() {
	_, err := s.repo.Create(s.ctx, encounters.CreateInput{Definition: s.definition("Goblin Ambush")})
	s.Require().NoError(err)
	_, err = s.repo.Create(s.ctx, encounters.CreateInput{Definition: s.definition("Wolf Pack")})
	s.Require().NoError(err)

	list, err := s.repo.List(s.ctx, encounters.ListInput{})

	s.NoError(err)
	s.Len(list.Definitions, 2)
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}
