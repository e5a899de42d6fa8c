package product

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*model.Product, error)
	ActivePrice(ctx context.Context, productID string) (*model.ProductPrice, error)
	// ReplacePrice deactivates the current price and inserts p as the active one.
	ReplacePrice(ctx context.Context, p *model.ProductPrice) error
	// LockForUpdate holds the product row until the unit of work ends.
	LockForUpdate(ctx context.Context, productID string) error
	SetCachedQuantity(ctx context.Context, productID string, quantity int) error
}

// AvailableCounter counts live available units; implemented by the item repository.
type AvailableCounter interface {
	CountAvailable(ctx context.Context, productID string) (int, error)
}
