package sessions

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"

	"github.com/dmtabletop/encounter-api/internal/entities/encounter"
	"github.com/dmtabletop/encounter-api/internal/errors"
	redisclient "github.com/dmtabletop/encounter-api/internal/redis"
)

const (
	sessionKeyPrefix = "combat:"
	archiveKeyPrefix = "combat:archive:"
	activeIndexKey   = "combat:active"

	// Error messages
	errSessionNil       = "session cannot be nil"
	errEncounterIDEmpty = "encounter ID cannot be empty"
	errSessionCompleted = "session is completed; archive it instead of saving"
)

// Config holds the configuration for the Redis repository
type Config struct {
	Client redisclient.Client
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c.Client == nil {
		return errors.InvalidArgument("redis client is required")
	}
	return nil
}

type redisRepository struct {
	client redisclient.Client
}

// NewRedisRepository creates a new Redis-backed combat session repository
func NewRedisRepository(cfg *Config) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &redisRepository{client: cfg.Client}, nil
}

// Ensure redisRepository implements Repository
var _ Repository = (*redisRepository)(nil)

func (r *redisRepository) Save(ctx context.Context, input SaveInput) (*SaveOutput, error) {
	if input.Session == nil {
		return nil, errors.InvalidArgument(errSessionNil)
	}
	if input.Session.EncounterID == "" {
		return nil, errors.InvalidArgument(errEncounterIDEmpty)
	}
	if input.Session.Status == encounter.SessionStatusCompleted {
		return nil, errors.InvalidArgument(errSessionCompleted)
	}

	data, err := json.Marshal(input.Session)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal session")
	}

	// Record write and index update travel in one transaction so readers
	// never observe one without the other.
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+input.Session.EncounterID, data, 0)
	pipe.SAdd(ctx, activeIndexKey, input.Session.EncounterID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to save session")
	}

	return &SaveOutput{}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.EncounterID == "" {
		return nil, errors.InvalidArgument(errEncounterIDEmpty)
	}

	result, err := r.client.Get(ctx, sessionKeyPrefix+input.EncounterID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, r.liveRecordMissing(ctx, input.EncounterID)
		}
		return nil, errors.Wrapf(err, "failed to get session")
	}

	var session encounter.Session
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal session")
	}

	return &GetOutput{Session: &session}, nil
}

// liveRecordMissing distinguishes "never started" from "completed and
// archived" when the live key is absent.
func (r *redisRepository) liveRecordMissing(ctx context.Context, encounterID string) error {
	archived, err := r.client.Exists(ctx, archiveKeyPrefix+encounterID).Result()
	if err != nil {
		return errors.Wrapf(err, "failed to check archive")
	}
	if archived > 0 {
		return errors.FailedPreconditionf("session for encounter %q has completed", encounterID).
			WithMeta("encounter_id", encounterID)
	}
	return errors.NotFoundf("no session in progress for encounter %q", encounterID)
}

func (r *redisRepository) Archive(ctx context.Context, input ArchiveInput) (*ArchiveOutput, error) {
	if input.Session == nil {
		return nil, errors.InvalidArgument(errSessionNil)
	}
	if input.Session.EncounterID == "" {
		return nil, errors.InvalidArgument(errEncounterIDEmpty)
	}

	data, err := json.Marshal(input.Session)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal session")
	}

	encounterID := input.Session.EncounterID

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, archiveKeyPrefix+encounterID, data, 0)
	pipe.Del(ctx, sessionKeyPrefix+encounterID)
	pipe.SRem(ctx, activeIndexKey, encounterID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to archive session")
	}

	return &ArchiveOutput{}, nil
}

func (r *redisRepository) ListActive(ctx context.Context, _ ListActiveInput) (*ListActiveOutput, error) {
	encounterIDs, err := r.client.SMembers(ctx, activeIndexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read active index")
	}

	sessions := make([]*encounter.Session, 0, len(encounterIDs))
	for _, encounterID := range encounterIDs {
		out, err := r.Get(ctx, GetInput{EncounterID: encounterID})
		if err != nil {
			// Skip dangling index entries rather than failing the listing.
			if errors.IsNotFound(err) || errors.IsFailedPrecondition(err) {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, out.Session)
	}

	return &ListActiveOutput{Sessions: sessions}, nil
}
