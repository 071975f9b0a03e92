// Package encounters defines the interface for encounter definition persistence
package encounters

import (
	"context"

	"github.com/dmtabletop/encounter-api/internal/entities/encounter"
)

// Repository defines the interface for encounter definition persistence.
// Definitions are keyed by a URL-safe slug derived from the display name.
type Repository interface {
	// Create stores a new definition, assigning a slug derived from its name.
	// On a name clash the slug gets a disambiguating numeric suffix.
	// Returns errors.InvalidArgument for validation failures
	// Returns errors.Internal for storage failures
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)

	// Get retrieves a definition by slug
	// Returns errors.NotFound if the definition doesn't exist
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Update replaces an existing definition wholesale
	// Returns errors.NotFound if the definition doesn't exist
	Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error)

	// Delete removes a definition by slug
	// Returns errors.NotFound if the definition doesn't exist
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)

	// List returns all definitions in the index
	List(ctx context.Context, input ListInput) (*ListOutput, error)
}

// CreateInput defines the input for creating a definition
type CreateInput struct {
	Definition *encounter.Definition
}

// CreateOutput defines the output for creating a definition
type CreateOutput struct {
	Definition *encounter.Definition
}

// GetInput defines the input for getting a definition
type GetInput struct {
	Slug string
}

// GetOutput defines the output for getting a definition
type GetOutput struct {
	Definition *encounter.Definition
}

// UpdateInput defines the input for updating a definition
type UpdateInput struct {
	Definition *encounter.Definition
}

// UpdateOutput defines the output for updating a definition
type UpdateOutput struct {
	Definition *encounter.Definition
}

// DeleteInput defines the input for deleting a definition
type DeleteInput struct {
	Slug string
}

// DeleteOutput defines the output for deleting a definition
type DeleteOutput struct{}

// ListInput defines the input for listing definitions
type ListInput struct{}

// ListOutput defines the output for listing definitions
type ListOutput struct {
	Definitions []*encounter.Definition
}
