package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/authz"
	"github.com/fekuna/omnipos-stock-service/internal/item"
	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/item/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notify"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	staff    = "staff-1"
	customer = "customer-1"
)

type recorder struct {
	mu       sync.Mutex
	outcomes []notify.Outcome
}

func (r *recorder) Notify(_ context.Context, o notify.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recorder) last() notify.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[len(r.outcomes)-1]
}

type harness struct {
	store   *memory.Store
	uc      item.UseCase
	rec     *recorder
	product model.Product
	price   decimal.Decimal
}

func newHarness(t *testing.T, checker authz.Checker) *harness {
	t.Helper()

	if checker == nil {
		checker = authz.CheckerFunc(func(_ context.Context, actorID, _, _ string) (bool, error) {
			return actorID == staff, nil
		})
	}

	store := memory.New()
	price := decimal.RequireFromString("199.90")
	p := store.SeedProduct(model.Product{Name: "Phone X"}, &price)
	rec := &recorder{}

	uc := usecase.NewItemUseCase(usecase.Deps{
		Tx:              store,
		Items:           store.Items(),
		Products:        store.Products(),
		Locations:       store.Locations(),
		Ledger:          ledger.NewWriter(store.Ledger()),
		Guard:           authz.NewGuard(checker, logger.NewNop()),
		Notifier:        rec,
		DefaultCapacity: 50,
		Logger:          logger.NewNop(),
	})
	return &harness{store: store, uc: uc, rec: rec, product: p, price: price}
}

func TestAddStock_CreatesUnitsWithLedgerRows(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	items, err := h.uc.AddStock(ctx, &dto.AddStockInput{
		ProductID: h.product.ID,
		Quantity:  3,
		ActorID:   staff,
		ShelfID:   "A1",
		SlotID:    "01",
	})
	require.NoError(t, err)
	require.Len(t, items, 3)

	for i, it := range items {
		assert.Equal(t, model.ItemAvailable, it.Status)
		require.NotNil(t, it.LocationID)
		require.NotNil(t, it.PriceID)
		if i > 0 {
			assert.Less(t, items[i-1].Serial, it.Serial)
		}
	}

	entries := h.store.LedgerEntries()
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, model.TxInventoryAddition, e.TransactionType)
		assert.Equal(t, items[i].Serial, e.ItemSerial)
		assert.Equal(t, staff, e.UserID)
		require.NotNil(t, e.ToLocationID)
		assert.Equal(t, *items[i].LocationID, *e.ToLocationID)
	}

	p, _ := h.store.Product(h.product.ID)
	assert.Equal(t, 3, p.Quantity)

	out := h.rec.last()
	assert.True(t, out.Success)
	assert.Equal(t, notify.StockAdded, out.Event)
	assert.Len(t, out.Entries, 3)
}

func TestAddStock_JoinsExistingLocation(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	first, err := h.uc.AddStock(ctx, &dto.AddStockInput{
		ProductID: h.product.ID, Quantity: 1, ActorID: staff, ShelfID: "B2", SlotID: "07",
	})
	require.NoError(t, err)

	second, err := h.uc.AddStock(ctx, &dto.AddStockInput{
		ProductID: h.product.ID, Quantity: 2, ActorID: staff,
	})
	require.NoError(t, err)
	for _, it := range second {
		require.NotNil(t, it.LocationID)
		assert.Equal(t, *first[0].LocationID, *it.LocationID)
	}

	p, _ := h.store.Product(h.product.ID)
	assert.Equal(t, 3, p.Quantity)
}

func TestAddStock_DamagedIntakeIsNotAvailable(t *testing.T) {
	h := newHarness(t, nil)

	items, err := h.uc.AddStock(context.Background(), &dto.AddStockInput{
		ProductID:     h.product.ID,
		Quantity:      2,
		ActorID:       staff,
		InitialStatus: model.ItemDamaged,
	})
	require.NoError(t, err)
	for _, it := range items {
		assert.Equal(t, model.ItemDamaged, it.Status)
		assert.Nil(t, it.LocationID)
	}

	p, _ := h.store.Product(h.product.ID)
	assert.Equal(t, 0, p.Quantity)
}

func TestAddStock_Validation(t *testing.T) {
	cases := []struct {
		name  string
		input dto.AddStockInput
	}{
		{"zero quantity", dto.AddStockInput{Quantity: 0, ActorID: staff}},
		{"sold on intake", dto.AddStockInput{Quantity: 1, ActorID: staff, InitialStatus: model.ItemSold}},
		{"shelf without slot", dto.AddStockInput{Quantity: 1, ActorID: staff, ShelfID: "A1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, nil)
			in := tc.input
			in.ProductID = h.product.ID

			_, err := h.uc.AddStock(context.Background(), &in)
			assert.ErrorIs(t, err, apperr.ErrInvalid)
			assert.Empty(t, h.store.AllItems())
		})
	}
}

func TestAddStock_Unauthorized(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.uc.AddStock(context.Background(), &dto.AddStockInput{
		ProductID: h.product.ID, Quantity: 1, ActorID: customer,
	})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Empty(t, h.store.AllItems())
	assert.Empty(t, h.store.LedgerEntries())
}

func TestAddStock_PermissionCheckerFailureDenies(t *testing.T) {
	h := newHarness(t, authz.CheckerFunc(func(context.Context, string, string, string) (bool, error) {
		return false, errors.New("rbac unavailable")
	}))

	_, err := h.uc.AddStock(context.Background(), &dto.AddStockInput{
		ProductID: h.product.ID, Quantity: 1, ActorID: staff,
	})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Empty(t, h.store.AllItems())
}

func TestAddStock_UnknownProduct(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.uc.AddStock(context.Background(), &dto.AddStockInput{
		ProductID: "missing", Quantity: 1, ActorID: staff,
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	out := h.rec.last()
	assert.False(t, out.Success)
	assert.Equal(t, notify.StockAdded, out.Event)
}

func TestAddStock_LedgerFailureRollsBackBatch(t *testing.T) {
	h := newHarness(t, nil)
	calls := 0
	h.store.BeforeLedgerAppend = func(*model.Transaction) error {
		calls++
		if calls == 3 {
			return errors.New("disk full")
		}
		return nil
	}

	_, err := h.uc.AddStock(context.Background(), &dto.AddStockInput{
		ProductID: h.product.ID, Quantity: 4, ActorID: staff, ShelfID: "C1", SlotID: "01",
	})
	require.Error(t, err)

	assert.Empty(t, h.store.AllItems())
	assert.Empty(t, h.store.LedgerEntries())
	p, _ := h.store.Product(h.product.ID)
	assert.Equal(t, 0, p.Quantity)
}

func TestTransition_RetirementNeedsReason(t *testing.T) {
	h := newHarness(t, nil)
	unit := h.store.SeedItems(h.product.ID, 1, model.ItemDamaged, nil)[0]

	_, err := h.uc.Transition(context.Background(), &dto.TransitionInput{
		Serial: unit.Serial, Target: model.ItemUnavailable, ActorID: staff, Reason: "  ",
	})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	it, err := h.uc.Transition(context.Background(), &dto.TransitionInput{
		Serial: unit.Serial, Target: model.ItemUnavailable, ActorID: staff, Reason: "screen shattered",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ItemUnavailable, it.Status)

	entries := h.store.LedgerEntries()
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Notes)
	assert.Equal(t, "screen shattered", *entries[0].Notes)
	assert.Equal(t, model.TxStatusChange, entries[0].TransactionType)
}

func TestTransition_RepairReturnsToStock(t *testing.T) {
	h := newHarness(t, nil)
	unit := h.store.SeedItems(h.product.ID, 1, model.ItemInRepair, nil)[0]

	it, err := h.uc.Transition(context.Background(), &dto.TransitionInput{
		Serial: unit.Serial, Target: model.ItemAvailable, ActorID: staff,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ItemAvailable, it.Status)

	entries := h.store.LedgerEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, model.TxRepair, entries[0].TransactionType)

	p, _ := h.store.Product(h.product.ID)
	assert.Equal(t, 1, p.Quantity)
}

func TestTransition_IllegalEdge(t *testing.T) {
	h := newHarness(t, nil)
	unit := h.store.SeedItems(h.product.ID, 1, model.ItemAvailable, nil)[0]

	_, err := h.uc.Transition(context.Background(), &dto.TransitionInput{
		Serial: unit.Serial, Target: model.ItemInRepair, ActorID: staff,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Empty(t, h.store.LedgerEntries())
}

func TestTransition_PipelineEdgesAreNotManual(t *testing.T) {
	h := newHarness(t, nil)
	edges := []struct{ from, to model.ItemStatus }{
		{model.ItemAvailable, model.ItemSold},
		{model.ItemSold, model.ItemUnavailable},
		{model.ItemSold, model.ItemInRepair},
	}
	for _, e := range edges {
		t.Run(string(e.from)+"_to_"+string(e.to), func(t *testing.T) {
			unit := h.store.SeedItems(h.product.ID, 1, e.from, nil)[0]

			_, err := h.uc.Transition(context.Background(), &dto.TransitionInput{
				Serial: unit.Serial, Target: e.to, ActorID: staff, Reason: "by hand",
			})
			assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

			stored, _ := h.store.Item(unit.Serial)
			assert.Equal(t, e.from, stored.Status)
		})
	}
	assert.Empty(t, h.store.LedgerEntries())
}

func TestTransition_UnknownSerial(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.uc.Transition(context.Background(), &dto.TransitionInput{
		Serial: "SN9999999999", Target: model.ItemSold, ActorID: staff,
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTransition_ConcurrentChangesYieldOneConflict(t *testing.T) {
	h := newHarness(t, nil)
	unit := h.store.SeedItems(h.product.ID, 1, model.ItemDamaged, nil)[0]

	// Both callers read "damaged" before either writes.
	var barrier sync.WaitGroup
	barrier.Add(2)
	h.store.BeforeItemUpdate = func(string) error {
		barrier.Done()
		barrier.Wait()
		return nil
	}

	targets := []dto.TransitionInput{
		{Serial: unit.Serial, Target: model.ItemInRepair, ActorID: staff},
		{Serial: unit.Serial, Target: model.ItemUnavailable, ActorID: staff, Reason: "write-off"},
	}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i := range targets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.uc.Transition(context.Background(), &targets[i])
		}(i)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperr.ErrConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)
	assert.Len(t, h.store.LedgerEntries(), 1)
}

func TestGetItem_NotFound(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.uc.GetItem(context.Background(), "SN0000000001")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListItems_LowestSerialFirst(t *testing.T) {
	h := newHarness(t, nil)
	seeded := h.store.SeedItems(h.product.ID, 3, model.ItemAvailable, nil)

	items, err := h.uc.ListItems(context.Background(), h.product.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i := range seeded {
		assert.Equal(t, seeded[i].Serial, items[i].Serial)
	}
}
