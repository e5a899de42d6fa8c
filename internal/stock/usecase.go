package stock

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
)

type UseCase interface {
	GetProductStock(ctx context.Context, productID string) (*dto.ProductStock, error)
	ListProductStock(ctx context.Context) ([]dto.ProductStock, error)
	ShelfOccupancy(ctx context.Context, shelfID string) ([]dto.SlotOccupancy, error)
	// ListLowStock uses the configured threshold unless threshold is given.
	ListLowStock(ctx context.Context, threshold *int) ([]dto.ProductStock, error)
	RefreshCachedQuantity(ctx context.Context, productID string) (int, error)
}
