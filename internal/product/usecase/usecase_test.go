package usecase_test

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/authz"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/fekuna/omnipos-stock-service/internal/product/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manager = "manager-1"

func newProductUseCase(store *memory.Store) product.UseCase {
	guard := authz.NewGuard(authz.CheckerFunc(func(_ context.Context, actorID, resource, _ string) (bool, error) {
		return actorID == manager && resource == authz.ResourceProducts, nil
	}), logger.NewNop())
	return usecase.NewProductUseCase(store, store.Products(), store.Items(), guard, logger.NewNop())
}

func TestSetPrice_ReplacesActivePrice(t *testing.T) {
	store := memory.New()
	old := decimal.RequireFromString("10.00")
	p := store.SeedProduct(model.Product{Name: "Lamp"}, &old)
	uc := newProductUseCase(store)
	ctx := context.Background()

	price, err := uc.SetPrice(ctx, &dto.SetPriceInput{
		ProductID: p.ID, Price: decimal.RequireFromString("12.50"), ActorID: manager,
	})
	require.NoError(t, err)
	assert.True(t, price.IsActive)

	active, err := uc.GetActivePrice(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, price.ID, active.ID)
	assert.True(t, active.Price.Equal(decimal.RequireFromString("12.50")))
}

func TestSetPrice_Rejections(t *testing.T) {
	store := memory.New()
	p := store.SeedProduct(model.Product{Name: "Lamp"}, nil)
	uc := newProductUseCase(store)
	ctx := context.Background()

	_, err := uc.SetPrice(ctx, &dto.SetPriceInput{ProductID: p.ID, Price: decimal.NewFromInt(-5), ActorID: manager})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = uc.SetPrice(ctx, &dto.SetPriceInput{ProductID: p.ID, Price: decimal.NewFromInt(5), ActorID: "clerk"})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = uc.SetPrice(ctx, &dto.SetPriceInput{ProductID: "missing", Price: decimal.NewFromInt(5), ActorID: manager})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = uc.GetActivePrice(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetProduct_NotFound(t *testing.T) {
	uc := newProductUseCase(memory.New())

	_, err := uc.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
