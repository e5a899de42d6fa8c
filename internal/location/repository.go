package location

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*model.Location, error)
	// ResolveOrCreate returns the slot, creating it when absent. Concurrent creators of the
	// same slot all receive the same row.
	ResolveOrCreate(ctx context.Context, shelfID, slotID string, capacity int) (*model.Location, error)
}
