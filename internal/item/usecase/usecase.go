package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/authz"
	"github.com/fekuna/omnipos-stock-service/internal/item"
	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/location"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notify"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/observability"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/txmanager"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Deps groups the collaborators of the item use case.
type Deps struct {
	Tx              txmanager.Manager
	Items           item.Repository
	Products        product.Repository
	Locations       location.Repository
	Ledger          *ledger.Writer
	Guard           *authz.Guard
	Notifier        notify.Notifier
	DefaultCapacity int
	Logger          logger.ZapLogger
}

type itemUseCase struct {
	deps    Deps
	machine *item.Machine
	tracer  trace.Tracer
}

func NewItemUseCase(deps Deps) item.UseCase {
	return &itemUseCase{
		deps:    deps,
		machine: item.NewMachine(deps.Items, deps.Ledger),
		tracer:  observability.Tracer("item"),
	}
}

func (uc *itemUseCase) GetItem(ctx context.Context, serial string) (*model.Item, error) {
	it, err := uc.deps.Items.GetBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, apperr.NotFound("item.GetItem", "item %s not found", serial)
	}
	return it, nil
}

func (uc *itemUseCase) ListItems(ctx context.Context, productID string) ([]model.Item, error) {
	return uc.deps.Items.ListByProduct(ctx, productID)
}

func (uc *itemUseCase) AddStock(ctx context.Context, input *dto.AddStockInput) (items []model.Item, err error) {
	const op = "item.AddStock"

	ctx, span := uc.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("product.id", input.ProductID),
		attribute.Int("quantity", input.Quantity),
	))
	defer func() { observability.EndSpan(span, err) }()

	status := input.InitialStatus
	if status == "" {
		status = model.ItemAvailable
	}
	if status != model.ItemAvailable && status != model.ItemDamaged {
		return nil, apperr.Invalid(op, "new stock must be available or damaged, got %q", status)
	}
	if input.Quantity <= 0 {
		return nil, apperr.Invalid(op, "quantity must be positive")
	}
	if (input.ShelfID == "") != (input.SlotID == "") {
		return nil, apperr.Invalid(op, "shelf and slot must be given together")
	}
	if err := uc.deps.Guard.Require(ctx, input.ActorID, authz.ResourceItems, authz.ActionCreate); err != nil {
		return nil, err
	}

	var entries []model.Transaction
	err = uc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := uc.deps.Products.FindByID(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound(op, "product %s not found", input.ProductID)
		}

		price, err := uc.deps.Products.ActivePrice(ctx, input.ProductID)
		if err != nil {
			return err
		}
		var priceID *string
		if price != nil {
			priceID = &price.ID
		}

		locationID, err := uc.intakeLocation(ctx, input)
		if err != nil {
			return err
		}

		items, err = uc.deps.Items.CreateBatch(ctx, &dto.NewBatch{
			ProductID:  input.ProductID,
			Quantity:   input.Quantity,
			Status:     status,
			LocationID: locationID,
			PriceID:    priceID,
		})
		if err != nil {
			return err
		}

		notes := input.Notes
		if notes == "" {
			notes = fmt.Sprintf("received as %s", status)
		}
		entries = make([]model.Transaction, 0, len(items))
		for _, it := range items {
			entry, err := uc.deps.Ledger.Append(ctx, model.Transaction{
				ItemSerial:      it.Serial,
				UserID:          input.ActorID,
				TransactionType: model.TxInventoryAddition,
				Notes:           &notes,
				ToLocationID:    locationID,
			})
			if err != nil {
				return err
			}
			entries = append(entries, *entry)
		}

		_, err = product.SyncCachedQuantity(ctx, uc.deps.Products, uc.deps.Items, input.ProductID)
		return err
	})
	if err != nil {
		uc.deps.Notifier.Notify(ctx, notify.Failed(notify.StockAdded, input.ActorID, input.ProductID, err))
		return nil, err
	}

	uc.deps.Logger.Info("stock added",
		zap.String("product_id", input.ProductID),
		zap.Int("count", len(items)),
		zap.String("status", string(status)),
		zap.String("actor_id", input.ActorID),
	)
	uc.deps.Notifier.Notify(ctx, notify.Succeeded(notify.StockAdded, input.ActorID, input.ProductID,
		map[string]interface{}{"Count": len(items), "ProductID": input.ProductID}, entries))
	return items, nil
}

// intakeLocation resolves the slot named in input, or falls back to where the product's
// existing units already sit.
func (uc *itemUseCase) intakeLocation(ctx context.Context, input *dto.AddStockInput) (*string, error) {
	if input.ShelfID != "" {
		loc, err := uc.deps.Locations.ResolveOrCreate(ctx, input.ShelfID, input.SlotID, uc.deps.DefaultCapacity)
		if err != nil {
			return nil, err
		}
		return &loc.ID, nil
	}

	existing, err := uc.deps.Items.ListByProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	for _, it := range existing {
		if it.LocationID != nil {
			id := *it.LocationID
			return &id, nil
		}
	}
	return nil, nil
}

func (uc *itemUseCase) Transition(ctx context.Context, input *dto.TransitionInput) (it *model.Item, err error) {
	const op = "item.Transition"

	ctx, span := uc.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("item.serial", input.Serial),
		attribute.String("item.target", string(input.Target)),
	))
	defer func() { observability.EndSpan(span, err) }()

	reason := strings.TrimSpace(input.Reason)
	if input.Target == model.ItemUnavailable && reason == "" {
		return nil, apperr.Invalid(op, "a reason is required to retire item %s", input.Serial)
	}
	if err := uc.deps.Guard.Require(ctx, input.ActorID, authz.ResourceItems, authz.ActionUpdate); err != nil {
		return nil, err
	}

	var (
		entry *model.Transaction
		from  model.ItemStatus
	)
	err = uc.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := uc.deps.Items.GetBySerial(ctx, input.Serial)
		if err != nil {
			return err
		}
		if current == nil {
			return apperr.NotFound(op, "item %s not found", input.Serial)
		}
		from = current.Status
		if item.CanTransition(from, input.Target) && !item.IsOperatorTransition(from, input.Target) {
			return apperr.InvalidTransition(op, "item %s moves from %s to %s only through the order pipeline",
				input.Serial, from, input.Target)
		}

		txType := model.TxStatusChange
		if from == model.ItemInRepair && input.Target == model.ItemAvailable {
			txType = model.TxRepair
		}

		it, entry, err = uc.machine.Apply(ctx, item.TransitionRequest{
			Serial:          input.Serial,
			Target:          input.Target,
			ActorID:         input.ActorID,
			Reason:          reason,
			Expected:        from,
			TransactionType: txType,
		})
		if err != nil {
			return err
		}

		_, err = product.SyncCachedQuantity(ctx, uc.deps.Products, uc.deps.Items, it.ProductID)
		return err
	})
	if err != nil {
		uc.deps.Notifier.Notify(ctx, notify.Failed(notify.ItemTransitioned, input.ActorID, input.Serial, err))
		return nil, err
	}

	uc.deps.Logger.Info("item transitioned",
		zap.String("serial", input.Serial),
		zap.String("from", string(from)),
		zap.String("to", string(input.Target)),
		zap.String("actor_id", input.ActorID),
	)
	uc.deps.Notifier.Notify(ctx, notify.Succeeded(notify.ItemTransitioned, input.ActorID, input.Serial,
		map[string]interface{}{"Serial": input.Serial, "From": string(from), "To": string(input.Target)},
		[]model.Transaction{*entry}))
	return it, nil
}
