package encounters

import (
	"context"
	"encoding/json"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/dmtabletop/encounter-api/internal/entities/encounter"
	"github.com/dmtabletop/encounter-api/internal/errors"
	"github.com/dmtabletop/encounter-api/internal/pkg/clock"
	redisclient "github.com/dmtabletop/encounter-api/internal/redis"
)

const (
	definitionKeyPrefix = "encounter:"
	indexKey            = "encounter:index"

	// Past this many suffix attempts something is wrong with the name, not
	// the store.
	maxSlugAttempts = 50

	// Error messages
	errDefinitionNil = "definition cannot be nil"
	errSlugEmpty     = "slug cannot be empty"
	errNameEmpty     = "definition name cannot be empty"
)

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
	Clock  clock.Clock
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	if c.Clock == nil {
		return errors.InvalidArgument("clock is required")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// NewRedisRepository creates a new Redis-backed encounter definition repository
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  cfg.Clock,
	}, nil
}

// Ensure redisRepository implements Repository
var _ Repository = (*redisRepository)(nil)

func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if input.Definition == nil {
		return nil, errors.InvalidArgument(errDefinitionNil)
	}
	if input.Definition.Name == "" {
		return nil, errors.InvalidArgument(errNameEmpty)
	}

	def := input.Definition
	now := r.clock.Now()
	def.CreatedAt = now
	def.UpdatedAt = now

	base := generateSlug(def.Name)

	// Claim the first free slug with SETNX: base, then base-2, base-3, ...
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		slug := base
		if attempt > 1 {
			slug = fmt.Sprintf("%s-%d", base, attempt)
		}
		def.Slug = slug

		data, err := json.Marshal(def)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal definition")
		}

		claimed, err := r.client.SetNX(ctx, definitionKeyPrefix+slug, data, 0).Result()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to store definition")
		}
		if !claimed {
			continue
		}

		if err := r.client.SAdd(ctx, indexKey, slug).Err(); err != nil {
			return nil, errors.Wrapf(err, "failed to index definition")
		}

		return &CreateOutput{Definition: def}, nil
	}

	return nil, errors.AlreadyExistsf("could not find a free slug for %q", def.Name)
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.Slug == "" {
		return nil, errors.InvalidArgument(errSlugEmpty)
	}

	result, err := r.client.Get(ctx, definitionKeyPrefix+input.Slug).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("encounter %q not found", input.Slug)
		}
		return nil, errors.Wrapf(err, "failed to get definition")
	}

	var def encounter.Definition
	if err := json.Unmarshal([]byte(result), &def); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal definition")
	}

	return &GetOutput{Definition: &def}, nil
}

func (r *redisRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if input.Definition == nil {
		return nil, errors.InvalidArgument(errDefinitionNil)
	}
	if input.Definition.Slug == "" {
		return nil, errors.InvalidArgument(errSlugEmpty)
	}

	def := input.Definition
	key := definitionKeyPrefix + def.Slug

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check existence")
	}
	if exists == 0 {
		return nil, errors.NotFoundf("encounter %q not found", def.Slug)
	}

	def.UpdatedAt = r.clock.Now()

	data, err := json.Marshal(def)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal definition")
	}

	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to update definition")
	}

	return &UpdateOutput{Definition: def}, nil
}

func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.Slug == "" {
		return nil, errors.InvalidArgument(errSlugEmpty)
	}

	key := definitionKeyPrefix + input.Slug

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check existence")
	}
	if exists == 0 {
		return nil, errors.NotFoundf("encounter %q not found", input.Slug)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, indexKey, input.Slug)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to delete definition")
	}

	return &DeleteOutput{}, nil
}

func (r *redisRepository) List(ctx context.Context, _ ListInput) (*ListOutput, error) {
	slugs, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read index")
	}

	definitions := make([]*encounter.Definition, 0, len(slugs))
	for _, slug := range slugs {
		out, err := r.Get(ctx, GetInput{Slug: slug})
		if err != nil {
			// A dangling index entry is not fatal to listing.
			if errors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		definitions = append(definitions, out.Definition)
	}

	return &ListOutput{Definitions: definitions}, nil
}
