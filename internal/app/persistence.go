package app

import (
	"context"

	"github.com/akyairhashvil/okrcap/internal/models"
)

// Persistence is the datastore the Service writes through to. The SQLite
// adapter in internal/database satisfies it.
//
//go:generate mockgen -source=persistence.go -destination=mock_persistence_test.go -package=app
type Persistence interface {
	LoadNodes(ctx context.Context, orgID string) ([]models.OkrNode, error)
	SaveNode(ctx context.Context, node models.OkrNode) error
	DeleteNode(ctx context.Context, id string) error
	LoadCapacity(ctx context.Context, userID string) (*models.CapacitySettings, error)
	SaveCapacity(ctx context.Context, settings models.CapacitySettings) error
}
