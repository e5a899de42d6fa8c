package item

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	// GetBySerial returns nil, nil when the serial does not exist.
	GetBySerial(ctx context.Context, serial string) (*model.Item, error)
	ListByProduct(ctx context.Context, productID string) ([]model.Item, error)
	// ListAvailableSerials returns up to limit available serials of a product, lowest first.
	ListAvailableSerials(ctx context.Context, productID string, limit int) ([]string, error)
	CountAvailable(ctx context.Context, productID string) (int, error)

	CreateBatch(ctx context.Context, batch *dto.NewBatch) ([]model.Item, error)

	// UpdateStatus moves serial from -> to only if its status is still from.
	// It reports false when no row matched.
	UpdateStatus(ctx context.Context, serial string, from, to model.ItemStatus) (bool, error)
	// UpdateLocation moves serial to locationID only if its location is still from.
	UpdateLocation(ctx context.Context, serial string, from *string, locationID string) (bool, error)
}
