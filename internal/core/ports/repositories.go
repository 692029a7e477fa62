// Package ports defines the interfaces (ports) for the hexagonal architecture.
// These interfaces decouple the domain from infrastructure implementations.
package ports

import (
	"context"

	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/google/uuid"
)

// BuildRepository defines the interface for build history persistence.
type BuildRepository interface {
	// Create persists a new build.
	Create(ctx context.Context, build *domain.Build) error

	// Update updates an existing build.
	Update(ctx context.Context, build *domain.Build) error

	// GetByID retrieves a build by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Build, error)

	// List retrieves builds, newest first, with optional filtering.
	List(ctx context.Context, filter BuildFilter) ([]*domain.Build, error)

	// DeleteAll removes every recorded build.
	DeleteAll(ctx context.Context) (int64, error)
}

// BuildFilter defines filtering options for build queries.
type BuildFilter struct {
	Status *domain.BuildStatus
	Target *domain.Target
	Script string
	Limit  int
	Offset int
}
