package usecase_test

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/authz"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	productuc "github.com/fekuna/omnipos-stock-service/internal/product/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStockUseCase(store *memory.Store) stock.UseCase {
	guard := authz.NewGuard(authz.CheckerFunc(func(context.Context, string, string, string) (bool, error) {
		return true, nil
	}), logger.NewNop())
	products := productuc.NewProductUseCase(store, store.Products(), store.Items(), guard, logger.NewNop())
	return usecase.NewStockUseCase(store.Stock(), products, 2, logger.NewNop())
}

func TestGetProductStock_CountsByStatus(t *testing.T) {
	store := memory.New()
	p := store.SeedProduct(model.Product{Name: "Router"}, nil)
	store.SeedItems(p.ID, 3, model.ItemAvailable, nil)
	store.SeedItems(p.ID, 2, model.ItemSold, nil)
	store.SeedItems(p.ID, 1, model.ItemDamaged, nil)
	store.SeedItems(p.ID, 1, model.ItemInRepair, nil)
	uc := newStockUseCase(store)

	ps, err := uc.GetProductStock(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, ps.Available)
	assert.Equal(t, 2, ps.Sold)
	assert.Equal(t, 1, ps.Damaged)
	assert.Equal(t, 1, ps.InRepair)
	assert.Equal(t, 0, ps.Unavailable)
	assert.Equal(t, 7, ps.Total)
	assert.Equal(t, 2, ps.Count(model.ItemSold))

	_, err = uc.GetProductStock(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListLowStock_Threshold(t *testing.T) {
	store := memory.New()
	plenty := store.SeedProduct(model.Product{Name: "Cable"}, nil)
	store.SeedItems(plenty.ID, 5, model.ItemAvailable, nil)
	few := store.SeedProduct(model.Product{Name: "Charger"}, nil)
	store.SeedItems(few.ID, 1, model.ItemAvailable, nil)
	none := store.SeedProduct(model.Product{Name: "Dock"}, nil)
	store.SeedItems(none.ID, 4, model.ItemSold, nil)
	uc := newStockUseCase(store)

	low, err := uc.ListLowStock(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, none.ID, low[0].ProductID)
	assert.Equal(t, few.ID, low[1].ProductID)

	wide := 5
	low, err = uc.ListLowStock(context.Background(), &wide)
	require.NoError(t, err)
	assert.Len(t, low, 3)

	negative := -1
	_, err = uc.ListLowStock(context.Background(), &negative)
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestShelfOccupancy_GroupsBySlotAndProduct(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	a1, err := store.Locations().ResolveOrCreate(ctx, "A", "01", 10)
	require.NoError(t, err)
	b1, err := store.Locations().ResolveOrCreate(ctx, "B", "01", 10)
	require.NoError(t, err)

	p := store.SeedProduct(model.Product{Name: "Mouse"}, nil)
	store.SeedItems(p.ID, 2, model.ItemAvailable, &a1.ID)
	store.SeedItems(p.ID, 1, model.ItemSold, &a1.ID)
	store.SeedItems(p.ID, 4, model.ItemAvailable, &b1.ID)
	uc := newStockUseCase(store)

	slots, err := uc.ShelfOccupancy(ctx, "A")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "01", slots[0].SlotID)
	assert.Equal(t, 3, slots[0].Units)
	assert.Equal(t, 10, slots[0].Capacity)

	all, err := uc.ShelfOccupancy(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRefreshCachedQuantity_RepairsDrift(t *testing.T) {
	store := memory.New()
	p := store.SeedProduct(model.Product{Name: "Keyboard", Quantity: 40}, nil)
	store.SeedItems(p.ID, 3, model.ItemAvailable, nil)
	store.SeedItems(p.ID, 2, model.ItemDamaged, nil)
	uc := newStockUseCase(store)

	n, err := uc.RefreshCachedQuantity(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	stored, _ := store.Product(p.ID)
	assert.Equal(t, 3, stored.Quantity)

	_, err = uc.RefreshCachedQuantity(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
