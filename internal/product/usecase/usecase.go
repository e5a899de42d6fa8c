package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/authz"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/fekuna/omnipos-stock-service/internal/txmanager"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type productUseCase struct {
	tx      txmanager.Manager
	repo    product.Repository
	counter product.AvailableCounter
	guard   *authz.Guard
	logger  logger.ZapLogger
}

func NewProductUseCase(tx txmanager.Manager, repo product.Repository, counter product.AvailableCounter, guard *authz.Guard, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		tx:      tx,
		repo:    repo,
		counter: counter,
		guard:   guard,
		logger:  log,
	}
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product.GetProduct", "product %s not found", id)
	}
	return p, nil
}

func (uc *productUseCase) GetActivePrice(ctx context.Context, productID string) (*model.ProductPrice, error) {
	price, err := uc.repo.ActivePrice(ctx, productID)
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, apperr.NotFound("product.GetActivePrice", "product %s has no active price", productID)
	}
	return price, nil
}

func (uc *productUseCase) SetPrice(ctx context.Context, input *dto.SetPriceInput) (*model.ProductPrice, error) {
	const op = "product.SetPrice"

	if input.Price.IsNegative() {
		return nil, apperr.Invalid(op, "price cannot be negative")
	}
	if err := uc.guard.Require(ctx, input.ActorID, authz.ResourceProducts, authz.ActionUpdate); err != nil {
		return nil, err
	}

	price := &model.ProductPrice{
		ID:            uuid.New().String(),
		ProductID:     input.ProductID,
		Price:         input.Price,
		EffectiveFrom: time.Now().UTC(),
		IsActive:      true,
	}

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := uc.repo.FindByID(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound(op, "product %s not found", input.ProductID)
		}
		return uc.repo.ReplacePrice(ctx, price)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("product price replaced",
		zap.String("product_id", input.ProductID),
		zap.String("price", input.Price.String()),
		zap.String("actor_id", input.ActorID),
	)
	return price, nil
}

func (uc *productUseCase) RefreshCachedQuantity(ctx context.Context, productID string) (int, error) {
	var n int
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := uc.repo.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("product.RefreshCachedQuantity", "product %s not found", productID)
		}
		n, err = product.SyncCachedQuantity(ctx, uc.repo, uc.counter, productID)
		return err
	})
	return n, err
}
