package usecase

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"go.uber.org/zap"
)

type stockUseCase struct {
	repo         stock.Repository
	products     product.UseCase
	lowThreshold int
	logger       logger.ZapLogger
}

func NewStockUseCase(repo stock.Repository, products product.UseCase, lowThreshold int, log logger.ZapLogger) stock.UseCase {
	return &stockUseCase{
		repo:         repo,
		products:     products,
		lowThreshold: lowThreshold,
		logger:       log,
	}
}

func (uc *stockUseCase) GetProductStock(ctx context.Context, productID string) (*dto.ProductStock, error) {
	ps, err := uc.repo.ProductStock(ctx, productID)
	if err != nil {
		return nil, err
	}
	if ps == nil {
		return nil, apperr.NotFound("stock.GetProductStock", "product %s not found", productID)
	}
	return ps, nil
}

func (uc *stockUseCase) ListProductStock(ctx context.Context) ([]dto.ProductStock, error) {
	return uc.repo.ListProductStock(ctx)
}

func (uc *stockUseCase) ShelfOccupancy(ctx context.Context, shelfID string) ([]dto.SlotOccupancy, error) {
	return uc.repo.ShelfOccupancy(ctx, shelfID)
}

func (uc *stockUseCase) ListLowStock(ctx context.Context, threshold *int) ([]dto.ProductStock, error) {
	limit := uc.lowThreshold
	if threshold != nil {
		if *threshold < 0 {
			return nil, apperr.Invalid("stock.ListLowStock", "threshold cannot be negative")
		}
		limit = *threshold
	}
	return uc.repo.LowStock(ctx, limit)
}

func (uc *stockUseCase) RefreshCachedQuantity(ctx context.Context, productID string) (int, error) {
	n, err := uc.products.RefreshCachedQuantity(ctx, productID)
	if err != nil {
		return 0, err
	}
	uc.logger.Debug("cached quantity refreshed",
		zap.String("product_id", productID),
		zap.Int("quantity", n),
	)
	return n, nil
}
