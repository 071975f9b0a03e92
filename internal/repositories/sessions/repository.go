// Package sessions defines the interface for combat session persistence.
//
// A session is written whole after every mutation ("write-through") and keyed
// by the encounter identity, so a restart can resume exactly where the
// operator left off.
package sessions

import (
	"context"

	"github.com/dmtabletop/encounter-api/internal/entities/encounter"
)

// Repository defines the interface for combat session persistence
type Repository interface {
	// Save replaces the whole session record and keeps the active index in
	// step with the session status. Atomic per call; no partial writes.
	Save(ctx context.Context, input SaveInput) (*SaveOutput, error)

	// Get retrieves the live (active or paused) session for an encounter.
	// Returns errors.NotFound if no session was ever started
	// Returns errors.FailedPrecondition if the session completed and was
	// archived, so callers can distinguish the two
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Archive moves a completed session out of the live keyspace. The record
	// is kept under an archive key, not deleted.
	Archive(ctx context.Context, input ArchiveInput) (*ArchiveOutput, error)

	// ListActive returns the sessions currently in the active index
	ListActive(ctx context.Context, input ListActiveInput) (*ListActiveOutput, error)
}

// SaveInput defines the input for saving a session
type SaveInput struct {
	Session *encounter.Session
}

// SaveOutput defines the output for saving a session
type SaveOutput struct{}

// GetInput defines the input for getting a session
type GetInput struct {
	EncounterID string
}

// GetOutput defines the output for getting a session
type GetOutput struct {
	Session *encounter.Session
}

// ArchiveInput defines the input for archiving a session
type ArchiveInput struct {
	Session *encounter.Session
}

// ArchiveOutput defines the output for archiving a session
type ArchiveOutput struct{}

// ListActiveInput defines the input for listing active sessions
type ListActiveInput struct{}

// ListActiveOutput defines the output for listing active sessions
type ListActiveOutput struct {
	Sessions []*encounter.Session
}
