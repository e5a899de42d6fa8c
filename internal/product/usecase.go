package product

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
)

type UseCase interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetActivePrice(ctx context.Context, productID string) (*model.ProductPrice, error)
	SetPrice(ctx context.Context, input *dto.SetPriceInput) (*model.ProductPrice, error)
	RefreshCachedQuantity(ctx context.Context, productID string) (int, error)
}
