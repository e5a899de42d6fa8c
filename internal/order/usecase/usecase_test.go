package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/authz"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notify"
	"github.com/fekuna/omnipos-stock-service/internal/order"
	"github.com/fekuna/omnipos-stock-service/internal/order/dto"
	"github.com/fekuna/omnipos-stock-service/internal/order/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	admin    = "admin-1"
	customer = "customer-1"
	stranger = "customer-2"
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
	store *memory.Store
	uc    order.UseCase
	rec   *recorder
	price decimal.Decimal
}

// Customers may place orders and ask for refunds; only the admin may review them.
func newHarness(t *testing.T) *harness {
	t.Helper()

	checker := authz.CheckerFunc(func(_ context.Context, actorID, resource, action string) (bool, error) {
		if actorID == admin {
			return true, nil
		}
		return (actorID == customer || actorID == stranger) && action == authz.ActionCreate &&
			(resource == authz.ResourceOrders || resource == authz.ResourceRefunds), nil
	})
	return newHarnessWith(t, checker)
}

func newHarnessWith(t *testing.T, checker authz.Checker) *harness {
	t.Helper()

	store := memory.New()
	rec := &recorder{}
	uc := usecase.NewOrderUseCase(usecase.Deps{
		Tx:       store,
		Orders:   store.Orders(),
		Items:    store.Items(),
		Products: store.Products(),
		Ledger:   ledger.NewWriter(store.Ledger()),
		Guard:    authz.NewGuard(checker, logger.NewNop()),
		Notifier: rec,
		Logger:   logger.NewNop(),
	})
	return &harness{store: store, uc: uc, rec: rec, price: decimal.RequireFromString("250.00")}
}

func (h *harness) product(t *testing.T, available int) (model.Product, []model.Item) {
	t.Helper()
	p := h.store.SeedProduct(model.Product{Name: "Tablet"}, &h.price)
	return p, h.store.SeedItems(p.ID, available, model.ItemAvailable, nil)
}

func (h *harness) place(t *testing.T, lines ...dto.OrderLineInput) *model.Order {
	t.Helper()
	o, err := h.uc.ProcessOrder(context.Background(), &dto.ProcessOrderInput{UserID: customer, Lines: lines})
	require.NoError(t, err)
	return o
}

func (h *harness) deliver(t *testing.T, o *model.Order) {
	t.Helper()
	_, err := h.uc.CompleteOrder(context.Background(), &dto.OrderActionInput{OrderID: o.ID, ActorID: admin})
	require.NoError(t, err)
}

func (h *harness) status(t *testing.T, serial string) model.ItemStatus {
	t.Helper()
	it, ok := h.store.Item(serial)
	require.True(t, ok, serial)
	return it.Status
}

func TestProcessOrder_AllocatesLowestSerials(t *testing.T) {
	h := newHarness(t)
	p, items := h.product(t, 3)

	o := h.place(t, dto.OrderLineInput{ProductID: p.ID, Quantity: 2, UnitPrice: h.price})

	assert.Equal(t, model.OrderPending, o.Status)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{8}$`, o.OrderNumber)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("500.00")))
	require.Len(t, o.Lines, 2)
	assert.Equal(t, items[0].Serial, o.Lines[0].ItemSerial)
	assert.Equal(t, items[1].Serial, o.Lines[1].ItemSerial)

	assert.Equal(t, model.ItemSold, h.status(t, items[0].Serial))
	assert.Equal(t, model.ItemSold, h.status(t, items[1].Serial))
	assert.Equal(t, model.ItemAvailable, h.status(t, items[2].Serial))

	entries := h.store.LedgerEntries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, model.TxSale, e.TransactionType)
		require.NotNil(t, e.OrderID)
		assert.Equal(t, o.ID, *e.OrderID)
	}

	stored, _ := h.store.Product(p.ID)
	assert.Equal(t, 1, stored.Quantity)
	assert.Equal(t, notify.OrderPlaced, h.rec.last().Event)
}

func TestProcessOrder_InsufficientStockChangesNothing(t *testing.T) {
	h := newHarness(t)
	phone, phones := h.product(t, 5)
	cover, covers := h.product(t, 1)

	_, err := h.uc.ProcessOrder(context.Background(), &dto.ProcessOrderInput{
		UserID: customer,
		Lines: []dto.OrderLineInput{
			{ProductID: phone.ID, Quantity: 2, UnitPrice: h.price},
			{ProductID: cover.ID, Quantity: 2, UnitPrice: h.price},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.False(t, apperr.IsRetryable(err))

	for _, it := range append(phones, covers...) {
		assert.Equal(t, model.ItemAvailable, h.status(t, it.Serial))
	}
	assert.Empty(t, h.store.LedgerEntries())
	assert.Zero(t, h.store.OrderCount())

	out := h.rec.last()
	assert.False(t, out.Success)
	assert.Equal(t, notify.OrderPlaced, out.Event)
}

func TestProcessOrder_Validation(t *testing.T) {
	h := newHarness(t)
	p, _ := h.product(t, 1)

	cases := map[string][]dto.OrderLineInput{
		"no lines":        nil,
		"zero quantity":   {{ProductID: p.ID, Quantity: 0, UnitPrice: h.price}},
		"missing product": {{Quantity: 1, UnitPrice: h.price}},
		"negative price":  {{ProductID: p.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.uc.ProcessOrder(context.Background(), &dto.ProcessOrderInput{UserID: customer, Lines: lines})
			assert.ErrorIs(t, err, apperr.ErrInvalid)
		})
	}
	assert.Zero(t, h.store.OrderCount())
}

func TestProcessOrder_UnauthorizedBeforeAnyChange(t *testing.T) {
	h := newHarness(t)
	p, items := h.product(t, 2)

	_, err := h.uc.ProcessOrder(context.Background(), &dto.ProcessOrderInput{
		UserID: "anonymous",
		Lines:  []dto.OrderLineInput{{ProductID: p.ID, Quantity: 1, UnitPrice: h.price}},
	})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, model.ItemAvailable, h.status(t, items[0].Serial))
	assert.Zero(t, h.store.OrderCount())
}

func TestProcessOrder_SameSourceEventPlacesOnce(t *testing.T) {
	h := newHarness(t)
	p, items := h.product(t, 4)
	input := &dto.ProcessOrderInput{
		UserID:        customer,
		Lines:         []dto.OrderLineInput{{ProductID: p.ID, Quantity: 2, UnitPrice: h.price}},
		SourceEventID: "evt-42",
	}

	first, err := h.uc.ProcessOrder(context.Background(), input)
	require.NoError(t, err)
	notified := len(h.rec.outcomes)

	again, err := h.uc.ProcessOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.OrderNumber, again.OrderNumber)
	require.Len(t, again.Lines, 2)

	assert.Equal(t, 1, h.store.OrderCount())
	assert.Len(t, h.store.LedgerEntries(), 2)
	assert.Equal(t, model.ItemAvailable, h.status(t, items[2].Serial))
	assert.Len(t, h.rec.outcomes, notified, "a replay is not notified again")

	stored, _ := h.store.Product(p.ID)
	assert.Equal(t, 2, stored.Quantity)
}

func TestProcessOrder_LedgerFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	p, items := h.product(t, 3)
	calls := 0
	h.store.BeforeLedgerAppend = func(*model.Transaction) error {
		calls++
		if calls == 2 {
			return errors.New("connection reset")
		}
		return nil
	}

	_, err := h.uc.ProcessOrder(context.Background(), &dto.ProcessOrderInput{
		UserID: customer,
		Lines:  []dto.OrderLineInput{{ProductID: p.ID, Quantity: 3, UnitPrice: h.price}},
	})
	require.Error(t, err)

	for _, it := range items {
		assert.Equal(t, model.ItemAvailable, h.status(t, it.Serial))
	}
	assert.Empty(t, h.store.LedgerEntries())
	assert.Zero(t, h.store.OrderCount())
}

func TestCompleteOrder_LeavesItemsSold(t *testing.T) {
	h := newHarness(t)
	p, items := h.product(t, 2)
	o := h.place(t, dto.OrderLineInput{ProductID: p.ID, Quantity: 2, UnitPrice: h.price})

	done, err := h.uc.CompleteOrder(context.Background(), &dto.OrderActionInput{OrderID: o.ID, ActorID: admin})
	require.NoError(t, err)
	assert.Equal(t, model.OrderDelivered, done.Status)

	for _, it := range items {
		assert.Equal(t, model.ItemSold, h.status(t, it.Serial))
	}
	assert.Len(t, h.store.LedgerEntries(), 2)

	_, err = h.uc.CompleteOrder(context.Background(), &dto.OrderActionInput{OrderID: o.ID, ActorID: admin})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestCompleteOrder_CustomerCannotReview(t *testing.T) {
	h := newHarness(t)
	p, _ := h.product(t, 1)
	o := h.place(t, dto.OrderLineInput{ProductID: p.ID, Quantity: 1, UnitPrice: h.price})

	_, err := h.uc.CompleteOrder(context.Background(), &dto.OrderActionInput{OrderID: o.ID, ActorID: customer})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	stored, err := h.uc.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, stored.Status)
}

func TestRejectOrder_RetiresUnits(t *testing.T) {
	h := newHarness(t)
	p, items := h.product(t, 3)
	o := h.place(t, dto.OrderLineInput{ProductID: p.ID, Quantity: 2, UnitPrice: h.price})

	_, err := h.uc.RejectOrder(context.Background(), &dto.OrderActionInput{OrderID: o.ID, ActorID: admin})
	assert.ErrorIs(t, err, apperr.ErrInvalid)

	rejected, err := h.uc.RejectOrder(context.Background(), &dto.OrderActionInput{
		OrderID: o.ID, ActorID: admin, Reason: "payment bounced",
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderRejected, rejected.Status)

	assert.Equal(t, model.ItemUnavailable, h.status(t, items[0].Serial))
	assert.Equal(t, model.ItemUnavailable, h.status(t, items[1].Serial))
	assert.Equal(t, model.ItemAvailable, h.status(t, items[2].Serial))

	entries := h.store.LedgerEntries()
	require.Len(t, entries, 4)
	for _, e := range entries[2:] {
		assert.Equal(t, model.TxRejection, e.TransactionType)
		assert.Equal(t, admin, e.UserID)
		require.NotNil(t, e.Notes)
		assert.Equal(t, "payment bounced", *e.Notes)
	}

	stored, _ := h.store.Product(p.ID)
	assert.Equal(t, 1, stored.Quantity)
}

func TestRejectOrder_UnknownOrder(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.RejectOrder(context.Background(), &dto.OrderActionInput{
		OrderID: "missing", ActorID: admin, Reason: "fraud",
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRejectOrder_UnitMovedUnderneathConflicts(t *testing.T) {
	h := newHarness(t)
	p, items := h.product(t, 2)
	o := h.place(t, dto.OrderLineInput{ProductID: p.ID, Quantity: 2, UnitPrice: h.price})

	// A unit of the order left "sold" outside the order flow.
	ctx := context.Background()
	_, err := h.store.Items().UpdateStatus(ctx, items[1].Serial, model.ItemSold, model.ItemInRepair)
	require.NoError(t, err)

	_, err = h.uc.RejectOrder(ctx, &dto.OrderActionInput{OrderID: o.ID, ActorID: admin, Reason: "fraud"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	assert.Equal(t, model.ItemSold, h.status(t, items[0].Serial))
	stored, _ := h.uc.GetOrder(ctx, o.ID)
	assert.Equal(t, model.OrderPending, stored.Status)
	assert.Len(t, h.store.LedgerEntries(), 2)
}

func TestCreateRefundRequest_Rules(t *testing.T) {
	h := newHarness(t)
	p, _ := h.product(t, 2)
	ctx := context.Background()

	pending := h.place(t, dto.OrderLineInput{ProductID: p.ID, Quantity: 1, UnitPrice: h.price})
	_, err := h.uc.CreateRefundRequest(ctx, &dto.CreateRefundInput{
		OrderID: pending.ID, UserID: customer, Description: "cracked",
	})
	assert.ErrorIs(t, err, apperr.ErrInvalid, "pending orders cannot be refunded")

	delivered := h.place(t, dto.OrderLineInput{ProductID: p.ID, Quantity: 1, UnitPrice: h.price})
	h.deliver(t, delivered)

	_, err = h.uc.CreateRefundRequest(ctx, &dto.CreateRefundInput{
		OrderID: delivered.ID, UserID: customer, Description: " ",
	})
	assert.ErrorIs(t, err, apperr.ErrInvalid, "description is required")

	_, err = h.uc.CreateRefundRequest(ctx, &dto.CreateRefundInput{
		OrderID: delivered.ID, UserID: stranger, Description: "cracked",
	})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized, "only the owner may ask")

	rr, err := h.uc.CreateRefundRequest(ctx, &dto.CreateRefundInput{
		OrderID: delivered.ID, UserID: customer, Description: "cracked",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RefundPending, rr.Status)

	_, err = h.uc.CreateRefundRequest(ctx, &dto.CreateRefundInput{
		OrderID: delivered.ID, UserID: customer, Description: "still cracked",
	})
	assert.ErrorIs(t, err, apperr.ErrInvalid, "one pending request per order")

	listed, err := h.uc.ListRefundRequests(ctx, &dto.RefundFilters{OrderID: delivered.ID})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, rr.ID, listed[0].ID)
}

func TestCreateRefundRequest_RequiresPermission(t *testing.T) {
	var asked []string
	checker := authz.CheckerFunc(func(_ context.Context, actorID, resource, action string) (bool, error) {
		asked = append(asked, resource+":"+action)
		if actorID == admin {
			return true, nil
		}
		return resource == authz.ResourceOrders && action == authz.ActionCreate, nil
	})
	h := newHarnessWith(t, checker)
	p, _ := h.product(t, 1)

	o := h.place(t, dto.OrderLineInput{ProductID: p.ID, Quantity: 1, UnitPrice: h.price})
	h.deliver(t, o)

	_, err := h.uc.CreateRefundRequest(context.Background(), &dto.CreateRefundInput{
		OrderID: o.ID, UserID: customer, Description: "cracked",
	})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Contains(t, asked, authz.ResourceRefunds+":"+authz.ActionCreate)

	listed, err := h.uc.ListRefundRequests(context.Background(), &dto.RefundFilters{OrderID: o.ID})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestProcessRefund_SendsUnitsToRepair(t *testing.T) {
	h := newHarness(t)
	p, items := h.product(t, 2)
	ctx := context.Background()

	o := h.place(t, dto.OrderLineInput{ProductID: p.ID, Quantity: 2, UnitPrice: h.price})
	h.deliver(t, o)
	rr, err := h.uc.CreateRefundRequest(ctx, &dto.CreateRefundInput{OrderID: o.ID, UserID: customer, Description: "dead pixels"})
	require.NoError(t, err)

	notes := "confirmed faulty"
	approved, err := h.uc.ProcessRefund(ctx, &dto.ReviewRefundInput{RefundID: rr.ID, ActorID: admin, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, model.RefundApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, admin, *approved.ReviewedBy)
	assert.NotNil(t, approved.ReviewedAt)

	for _, it := range items {
		assert.Equal(t, model.ItemInRepair, h.status(t, it.Serial))
	}
	stored, _ := h.uc.GetOrder(ctx, o.ID)
	assert.Equal(t, model.OrderRefunded, stored.Status)

	entries := h.store.LedgerEntries()
	require.Len(t, entries, 4)
	for _, e := range entries[2:] {
		assert.Equal(t, model.TxRefund, e.TransactionType)
	}

	_, err = h.uc.ProcessRefund(ctx, &dto.ReviewRefundInput{RefundID: rr.ID, ActorID: admin})
	assert.ErrorIs(t, err, apperr.ErrAlreadyResolved)
	_, err = h.uc.RejectRefund(ctx, &dto.ReviewRefundInput{RefundID: rr.ID, ActorID: admin})
	assert.ErrorIs(t, err, apperr.ErrAlreadyResolved)
	assert.Len(t, h.store.LedgerEntries(), 4)
}

func TestRejectRefund_LeavesOrderAndUnits(t *testing.T) {
	h := newHarness(t)
	p, items := h.product(t, 1)
	ctx := context.Background()

	o := h.place(t, dto.OrderLineInput{ProductID: p.ID, Quantity: 1, UnitPrice: h.price})
	h.deliver(t, o)
	rr, err := h.uc.CreateRefundRequest(ctx, &dto.CreateRefundInput{OrderID: o.ID, UserID: customer, Description: "changed my mind"})
	require.NoError(t, err)

	_, err = h.uc.RejectRefund(ctx, &dto.ReviewRefundInput{RefundID: rr.ID, ActorID: customer})
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	rejected, err := h.uc.RejectRefund(ctx, &dto.ReviewRefundInput{RefundID: rr.ID, ActorID: admin})
	require.NoError(t, err)
	assert.Equal(t, model.RefundRejected, rejected.Status)

	assert.Equal(t, model.ItemSold, h.status(t, items[0].Serial))
	stored, _ := h.uc.GetOrder(ctx, o.ID)
	assert.Equal(t, model.OrderDelivered, stored.Status)

	// A rejected request does not block a new one.
	_, err = h.uc.CreateRefundRequest(ctx, &dto.CreateRefundInput{OrderID: o.ID, UserID: customer, Description: "really broken"})
	assert.NoError(t, err)
}

func TestProcessRefund_UnknownRequest(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.ProcessRefund(context.Background(), &dto.ReviewRefundInput{RefundID: "missing", ActorID: admin})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
