package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/authz"
	"github.com/fekuna/omnipos-stock-service/internal/item"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notify"
	"github.com/fekuna/omnipos-stock-service/internal/order"
	"github.com/fekuna/omnipos-stock-service/internal/order/dto"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/observability"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/txmanager"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Deps struct {
	Tx       txmanager.Manager
	Orders   order.Repository
	Items    item.Repository
	Products product.Repository
	Ledger   *ledger.Writer
	Guard    *authz.Guard
	Notifier notify.Notifier
	Logger   logger.ZapLogger
}

type orderUseCase struct {
	deps    Deps
	machine *item.Machine
	tracer  trace.Tracer
	now     func() time.Time
}

func NewOrderUseCase(deps Deps) order.UseCase {
	return &orderUseCase{
		deps:    deps,
		machine: item.NewMachine(deps.Items, deps.Ledger),
		tracer:  observability.Tracer("order"),
		now:     time.Now,
	}
}

// newOrderNumber renders ORD-YYYYMMDD-XXXXXXXX from the order id.
func newOrderNumber(at time.Time, id string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("ORD-%s-%s", at.Format("20060102"), suffix)
}

func (uc *orderUseCase) ProcessOrder(ctx context.Context, input *dto.ProcessOrderInput) (o *model.Order, err error) {
	const op = "order.ProcessOrder"

	ctx, span := uc.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("order.user_id", input.UserID),
		attribute.Int("order.lines", len(input.Lines)),
	))
	defer func() { observability.EndSpan(span, err) }()

	if len(input.Lines) == 0 {
		return nil, apperr.Invalid(op, "order has no lines")
	}
	total := decimal.Zero
	for _, l := range input.Lines {
		if l.ProductID == "" {
			return nil, apperr.Invalid(op, "order line without product")
		}
		if l.Quantity <= 0 {
			return nil, apperr.Invalid(op, "quantity of %s must be positive", l.ProductID)
		}
		if l.UnitPrice.IsNegative() {
			return nil, apperr.Invalid(op, "unit price of %s cannot be negative", l.ProductID)
		}
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	if err := uc.deps.Guard.Require(ctx, input.UserID, authz.ResourceOrders, authz.ActionCreate); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	id := uuid.New().String()
	o = &model.Order{
		BaseModel:   model.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now},
		OrderNumber: newOrderNumber(now, id),
		UserID:      input.UserID,
		Status:      model.OrderPending,
		TotalAmount: total,
	}
	if input.SourceEventID != "" {
		eventID := input.SourceEventID
		o.SourceEventID = &eventID
	}

	var (
		entries []model.Transaction
		placed  *model.Order
	)
	err = uc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if o.SourceEventID != nil {
			existing, err := uc.deps.Orders.FindBySourceEvent(ctx, *o.SourceEventID)
			if err != nil {
				return fmt.Errorf("find order of event %s: %w", *o.SourceEventID, err)
			}
			if existing != nil {
				placed = existing
				return nil
			}
		}

		// The order row goes first so sale ledger rows can reference it.
		if err := uc.deps.Orders.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		lines := make([]model.OrderLine, 0)
		touched := []string{}
		entries = entries[:0]
		for _, l := range input.Lines {
			serials, err := uc.deps.Items.ListAvailableSerials(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return fmt.Errorf("allocate %s: %w", l.ProductID, err)
			}
			if len(serials) < l.Quantity {
				return apperr.InsufficientStock(op, "product %s has %d available, %d requested",
					l.ProductID, len(serials), l.Quantity)
			}

			for _, serial := range serials {
				_, entry, err := uc.machine.Apply(ctx, item.TransitionRequest{
					Serial:          serial,
					Target:          model.ItemSold,
					ActorID:         input.UserID,
					Reason:          "sold on " + o.OrderNumber,
					Expected:        model.ItemAvailable,
					TransactionType: model.TxSale,
					OrderID:         &o.ID,
				})
				if err != nil {
					return err
				}
				entries = append(entries, *entry)
				lines = append(lines, model.OrderLine{
					ID:         uuid.New().String(),
					OrderID:    o.ID,
					ItemSerial: serial,
					Price:      l.UnitPrice,
				})
			}
			touched = append(touched, l.ProductID)
		}

		if err := uc.deps.Orders.AddLines(ctx, lines); err != nil {
			return fmt.Errorf("add order lines: %w", err)
		}
		o.Lines = lines

		return product.SyncCachedQuantities(ctx, uc.deps.Products, uc.deps.Items, touched)
	})
	if err != nil {
		uc.deps.Notifier.Notify(ctx, notify.Failed(notify.OrderPlaced, input.UserID, "", err))
		return nil, err
	}
	if placed != nil {
		uc.deps.Logger.Info("order already placed for event",
			zap.String("event_id", input.SourceEventID),
			zap.String("order_id", placed.ID),
			zap.String("order_number", placed.OrderNumber),
		)
		return placed, nil
	}

	uc.deps.Logger.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.Int("units", len(o.Lines)),
		zap.String("total", o.TotalAmount.String()),
	)
	uc.deps.Notifier.Notify(ctx, notify.Succeeded(notify.OrderPlaced, input.UserID, o.ID,
		map[string]interface{}{"OrderNumber": o.OrderNumber, "Count": len(o.Lines)}, entries))
	return o, nil
}

func (uc *orderUseCase) CompleteOrder(ctx context.Context, input *dto.OrderActionInput) (o *model.Order, err error) {
	const op = "order.CompleteOrder"

	ctx, span := uc.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("order.id", input.OrderID)))
	defer func() { observability.EndSpan(span, err) }()

	if err := uc.deps.Guard.Require(ctx, input.ActorID, authz.ResourceOrders, authz.ActionUpdate); err != nil {
		return nil, err
	}

	err = uc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err = uc.pendingOrder(ctx, op, input.OrderID)
		if err != nil {
			return err
		}
		return uc.moveOrder(ctx, op, o, model.OrderDelivered)
	})
	if err != nil {
		uc.deps.Notifier.Notify(ctx, notify.Failed(notify.OrderCompleted, input.ActorID, input.OrderID, err))
		return nil, err
	}

	uc.deps.Logger.Info("order completed",
		zap.String("order_id", o.ID),
		zap.String("actor_id", input.ActorID),
	)
	uc.deps.Notifier.Notify(ctx, notify.Succeeded(notify.OrderCompleted, input.ActorID, o.ID,
		map[string]interface{}{"OrderNumber": o.OrderNumber}, nil))
	return o, nil
}

func (uc *orderUseCase) RejectOrder(ctx context.Context, input *dto.OrderActionInput) (o *model.Order, err error) {
	const op = "order.RejectOrder"

	ctx, span := uc.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("order.id", input.OrderID)))
	defer func() { observability.EndSpan(span, err) }()

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, apperr.Invalid(op, "a rejection reason is required")
	}
	if err := uc.deps.Guard.Require(ctx, input.ActorID, authz.ResourceOrders, authz.ActionUpdate); err != nil {
		return nil, err
	}

	var entries []model.Transaction
	err = uc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err = uc.pendingOrder(ctx, op, input.OrderID)
		if err != nil {
			return err
		}

		// Rejected units are retired, not restocked.
		entries, err = uc.moveLines(ctx, o, input.ActorID, model.ItemUnavailable, model.TxRejection, reason)
		if err != nil {
			return err
		}
		return uc.moveOrder(ctx, op, o, model.OrderRejected)
	})
	if err != nil {
		uc.deps.Notifier.Notify(ctx, notify.Failed(notify.OrderRejected, input.ActorID, input.OrderID, err))
		return nil, err
	}

	uc.deps.Logger.Info("order rejected",
		zap.String("order_id", o.ID),
		zap.Int("units", len(entries)),
		zap.String("actor_id", input.ActorID),
	)
	uc.deps.Notifier.Notify(ctx, notify.Succeeded(notify.OrderRejected, input.ActorID, o.ID,
		map[string]interface{}{"OrderNumber": o.OrderNumber, "Count": len(entries), "Reason": reason}, entries))
	return o, nil
}

func (uc *orderUseCase) CreateRefundRequest(ctx context.Context, input *dto.CreateRefundInput) (rr *model.RefundRequest, err error) {
	const op = "order.CreateRefundRequest"

	ctx, span := uc.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("order.id", input.OrderID)))
	defer func() { observability.EndSpan(span, err) }()

	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperr.Invalid(op, "a refund description is required")
	}
	if err := uc.deps.Guard.Require(ctx, input.UserID, authz.ResourceRefunds, authz.ActionCreate); err != nil {
		return nil, err
	}

	var orderNumber string
	err = uc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := uc.deps.Orders.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.NotFound(op, "order %s not found", input.OrderID)
		}
		orderNumber = o.OrderNumber
		if o.UserID != input.UserID {
			return apperr.Unauthorized(op, "only the owner of order %s may request a refund", o.OrderNumber)
		}
		if o.Status != model.OrderDelivered {
			return apperr.Invalid(op, "order %s is %s, only delivered orders can be refunded", o.OrderNumber, o.Status)
		}

		pending, err := uc.deps.Orders.HasPendingRefund(ctx, o.ID)
		if err != nil {
			return err
		}
		if pending {
			return apperr.Invalid(op, "order %s already has a pending refund request", o.OrderNumber)
		}

		rr = &model.RefundRequest{
			ID:          uuid.New().String(),
			OrderID:     o.ID,
			UserID:      input.UserID,
			Description: description,
			PhotoURL:    input.PhotoURL,
			Status:      model.RefundPending,
			CreatedAt:   uc.now().UTC(),
		}
		return uc.deps.Orders.CreateRefund(ctx, rr)
	})
	if err != nil {
		uc.deps.Notifier.Notify(ctx, notify.Failed(notify.RefundRequested, input.UserID, input.OrderID, err))
		return nil, err
	}

	uc.deps.Logger.Info("refund requested",
		zap.String("refund_id", rr.ID),
		zap.String("order_id", rr.OrderID),
	)
	uc.deps.Notifier.Notify(ctx, notify.Succeeded(notify.RefundRequested, input.UserID, rr.ID,
		map[string]interface{}{"OrderNumber": orderNumber}, nil))
	return rr, nil
}

func (uc *orderUseCase) ProcessRefund(ctx context.Context, input *dto.ReviewRefundInput) (rr *model.RefundRequest, err error) {
	const op = "order.ProcessRefund"

	ctx, span := uc.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("refund.id", input.RefundID)))
	defer func() { observability.EndSpan(span, err) }()

	if err := uc.deps.Guard.Require(ctx, input.ActorID, authz.ResourceRefunds, authz.ActionUpdate); err != nil {
		return nil, err
	}

	var (
		o       *model.Order
		entries []model.Transaction
	)
	err = uc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		rr, err = uc.pendingRefund(ctx, op, input.RefundID)
		if err != nil {
			return err
		}

		o, err = uc.deps.Orders.FindByID(ctx, rr.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.NotFound(op, "order %s not found", rr.OrderID)
		}
		if o.Status != model.OrderDelivered {
			return apperr.InvalidTransition(op, "order %s is %s, expected %s", o.OrderNumber, o.Status, model.OrderDelivered)
		}

		notes := "refund approved"
		if input.Notes != nil && strings.TrimSpace(*input.Notes) != "" {
			notes = strings.TrimSpace(*input.Notes)
		}
		entries, err = uc.moveLines(ctx, o, input.ActorID, model.ItemInRepair, model.TxRefund, notes)
		if err != nil {
			return err
		}

		if err := uc.resolve(ctx, op, rr, model.RefundApproved, input); err != nil {
			return err
		}
		return uc.moveOrder(ctx, op, o, model.OrderRefunded)
	})
	if err != nil {
		uc.deps.Notifier.Notify(ctx, notify.Failed(notify.RefundApproved, input.ActorID, input.RefundID, err))
		return nil, err
	}

	uc.deps.Logger.Info("refund approved",
		zap.String("refund_id", rr.ID),
		zap.String("order_id", o.ID),
		zap.Int("units", len(entries)),
		zap.String("actor_id", input.ActorID),
	)
	uc.deps.Notifier.Notify(ctx, notify.Succeeded(notify.RefundApproved, input.ActorID, rr.ID,
		map[string]interface{}{"OrderNumber": o.OrderNumber, "Count": len(entries)}, entries))
	return rr, nil
}

func (uc *orderUseCase) RejectRefund(ctx context.Context, input *dto.ReviewRefundInput) (rr *model.RefundRequest, err error) {
	const op = "order.RejectRefund"

	ctx, span := uc.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("refund.id", input.RefundID)))
	defer func() { observability.EndSpan(span, err) }()

	if err := uc.deps.Guard.Require(ctx, input.ActorID, authz.ResourceRefunds, authz.ActionUpdate); err != nil {
		return nil, err
	}

	var orderNumber string
	err = uc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		rr, err = uc.pendingRefund(ctx, op, input.RefundID)
		if err != nil {
			return err
		}
		o, err := uc.deps.Orders.FindByID(ctx, rr.OrderID)
		if err != nil {
			return err
		}
		if o != nil {
			orderNumber = o.OrderNumber
		}
		return uc.resolve(ctx, op, rr, model.RefundRejected, input)
	})
	if err != nil {
		uc.deps.Notifier.Notify(ctx, notify.Failed(notify.RefundRejected, input.ActorID, input.RefundID, err))
		return nil, err
	}

	uc.deps.Logger.Info("refund rejected",
		zap.String("refund_id", rr.ID),
		zap.String("actor_id", input.ActorID),
	)
	uc.deps.Notifier.Notify(ctx, notify.Succeeded(notify.RefundRejected, input.ActorID, rr.ID,
		map[string]interface{}{"OrderNumber": orderNumber}, nil))
	return rr, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	o, err := uc.deps.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound("order.GetOrder", "order %s not found", id)
	}
	return o, nil
}

func (uc *orderUseCase) ListRefundRequests(ctx context.Context, filters *dto.RefundFilters) ([]model.RefundRequest, error) {
	if filters == nil {
		filters = &dto.RefundFilters{}
	}
	return uc.deps.Orders.ListRefunds(ctx, filters)
}

func (uc *orderUseCase) pendingOrder(ctx context.Context, op, id string) (*model.Order, error) {
	o, err := uc.deps.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound(op, "order %s not found", id)
	}
	if o.Status != model.OrderPending {
		return nil, apperr.InvalidTransition(op, "order %s is %s, expected %s", o.OrderNumber, o.Status, model.OrderPending)
	}
	return o, nil
}

func (uc *orderUseCase) moveOrder(ctx context.Context, op string, o *model.Order, to model.OrderStatus) error {
	ok, err := uc.deps.Orders.UpdateStatus(ctx, o.ID, o.Status, to)
	if err != nil {
		return fmt.Errorf("update order %s: %w", o.ID, err)
	}
	if !ok {
		return apperr.Conflict(op, "order %s changed concurrently, re-read and retry", o.OrderNumber)
	}
	o.Status = to
	o.UpdatedAt = uc.now().UTC()
	return nil
}

// moveLines transitions every sold unit of o to target, one ledger row each.
func (uc *orderUseCase) moveLines(ctx context.Context, o *model.Order, actorID string, target model.ItemStatus, txType, notes string) ([]model.Transaction, error) {
	entries := make([]model.Transaction, 0, len(o.Lines))
	for _, line := range o.Lines {
		_, entry, err := uc.machine.Apply(ctx, item.TransitionRequest{
			Serial:          line.ItemSerial,
			Target:          target,
			ActorID:         actorID,
			Reason:          notes,
			Expected:        model.ItemSold,
			TransactionType: txType,
			OrderID:         &o.ID,
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (uc *orderUseCase) pendingRefund(ctx context.Context, op, id string) (*model.RefundRequest, error) {
	rr, err := uc.deps.Orders.FindRefundByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rr == nil {
		return nil, apperr.NotFound(op, "refund request %s not found", id)
	}
	if rr.Status != model.RefundPending {
		return nil, apperr.AlreadyResolved(op, "refund request %s is already %s", id, rr.Status)
	}
	return rr, nil
}

func (uc *orderUseCase) resolve(ctx context.Context, op string, rr *model.RefundRequest, status model.RefundStatus, input *dto.ReviewRefundInput) error {
	at := uc.now().UTC()
	ok, err := uc.deps.Orders.ResolveRefund(ctx, &dto.RefundResolution{
		ID:          rr.ID,
		Status:      status,
		ReviewedBy:  input.ActorID,
		ReviewNotes: input.Notes,
		ReviewedAt:  at,
	})
	if err != nil {
		return fmt.Errorf("resolve refund %s: %w", rr.ID, err)
	}
	if !ok {
		return apperr.AlreadyResolved(op, "refund request %s was resolved concurrently", rr.ID)
	}

	reviewer := input.ActorID
	rr.Status = status
	rr.ReviewedBy = &reviewer
	rr.ReviewNotes = input.Notes
	rr.ReviewedAt = &at
	return nil
}
