package stock

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
)

type Repository interface {
	// ProductStock returns nil, nil when the product does not exist.
	ProductStock(ctx context.Context, productID string) (*dto.ProductStock, error)
	ListProductStock(ctx context.Context) ([]dto.ProductStock, error)
	// ShelfOccupancy groups located units by slot and product; an empty shelfID means every shelf.
	ShelfOccupancy(ctx context.Context, shelfID string) ([]dto.SlotOccupancy, error)
	// LowStock lists products whose available count is at or below threshold.
	LowStock(ctx context.Context, threshold int) ([]dto.ProductStock, error)
}
