package database

import (
	"context"

	"github.com/akyairhashvil/okrcap/internal/models"
)

// NodeRepository defines node persistence.
type NodeRepository interface {
	SaveNode(ctx context.Context, n models.OkrNode) error
	DeleteNode(ctx context.Context, id string) error
	LoadNodes(ctx context.Context, orgID string) ([]models.OkrNode, error)
}

// CapacityRepository defines capacity settings persistence.
type CapacityRepository interface {
	LoadCapacity(ctx context.Context, userID string) (*models.CapacitySettings, error)
	SaveCapacity(ctx context.Context, s models.CapacitySettings) error
	ListCapacity(ctx context.Context) ([]models.CapacitySettings, error)
}

// SnapshotRepository defines bulk export and import.
type SnapshotRepository interface {
	Export(ctx context.Context, format Format) ([]byte, error)
	Import(ctx context.Context, payload []byte, format Format) (ImportSummary, error)
}

// Repository combines all repository interfaces.
type Repository interface {
	NodeRepository
	CapacityRepository
	SnapshotRepository
	Close() error
}

var _ Repository = (*Database)(nil)
