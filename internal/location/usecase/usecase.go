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
	"github.com/fekuna/omnipos-stock-service/internal/location"
	"github.com/fekuna/omnipos-stock-service/internal/location/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notify"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/observability"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/txmanager"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const lockPrefix = "lock:relocate:"

type Deps struct {
	Tx        txmanager.Manager
	Locations location.Repository
	Items     item.Repository
	Products  product.Repository
	Ledger    *ledger.Writer
	Guard     *authz.Guard
	Notifier  notify.Notifier
	// Locker is optional; without it relocations rely on the conditional updates alone.
	Locker          location.Locker
	LockTTL         time.Duration
	DefaultCapacity int
	Logger          logger.ZapLogger
}

type locationUseCase struct {
	deps   Deps
	tracer trace.Tracer
}

func NewLocationUseCase(deps Deps) location.UseCase {
	if deps.LockTTL <= 0 {
		deps.LockTTL = 30 * time.Second
	}
	return &locationUseCase{deps: deps, tracer: observability.Tracer("location")}
}

func (uc *locationUseCase) Relocate(ctx context.Context, input *dto.RelocateInput) (moved int, err error) {
	const op = "location.Relocate"

	ctx, span := uc.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("product.id", input.ProductID),
		attribute.String("location.shelf", input.ShelfID),
		attribute.String("location.slot", input.SlotID),
	))
	defer func() { observability.EndSpan(span, err) }()

	shelf := strings.TrimSpace(input.ShelfID)
	slot := strings.TrimSpace(input.SlotID)
	if shelf == "" || slot == "" {
		return 0, apperr.Invalid(op, "shelf and slot are required")
	}
	if err := uc.deps.Guard.Require(ctx, input.ActorID, authz.ResourceLocations, authz.ActionUpdate); err != nil {
		return 0, err
	}

	if uc.deps.Locker != nil {
		release, err := uc.lock(ctx, input.ProductID)
		if err != nil {
			return 0, err
		}
		defer release()
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

		items, err := uc.deps.Items.ListByProduct(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return apperr.NotFound(op, "product %s has no items to relocate", input.ProductID)
		}

		target, err := uc.deps.Locations.ResolveOrCreate(ctx, shelf, slot, uc.deps.DefaultCapacity)
		if err != nil {
			return err
		}

		entries = entries[:0]
		for _, it := range items {
			if it.LocationID != nil && *it.LocationID == target.ID {
				continue
			}
			ok, err := uc.deps.Items.UpdateLocation(ctx, it.Serial, it.LocationID, target.ID)
			if err != nil {
				return fmt.Errorf("move item %s: %w", it.Serial, err)
			}
			if !ok {
				return apperr.Conflict(op, "item %s moved concurrently, re-read and retry", it.Serial)
			}

			notes := fmt.Sprintf("moved to %s", target.Code())
			targetID := target.ID
			entry, err := uc.deps.Ledger.Append(ctx, model.Transaction{
				ItemSerial:      it.Serial,
				UserID:          input.ActorID,
				TransactionType: model.TxLocationChange,
				Notes:           &notes,
				FromLocationID:  it.LocationID,
				ToLocationID:    &targetID,
			})
			if err != nil {
				return err
			}
			entries = append(entries, *entry)
		}
		return nil
	})
	if err != nil {
		uc.deps.Notifier.Notify(ctx, notify.Failed(notify.LocationRelocated, input.ActorID, input.ProductID, err))
		return 0, err
	}

	uc.deps.Logger.Info("product relocated",
		zap.String("product_id", input.ProductID),
		zap.String("shelf", shelf),
		zap.String("slot", slot),
		zap.Int("moved", len(entries)),
		zap.String("actor_id", input.ActorID),
	)
	uc.deps.Notifier.Notify(ctx, notify.Succeeded(notify.LocationRelocated, input.ActorID, input.ProductID,
		map[string]interface{}{"Count": len(entries), "ProductID": input.ProductID, "Shelf": shelf, "Slot": slot},
		entries))
	return len(entries), nil
}

func (uc *locationUseCase) lock(ctx context.Context, productID string) (func(), error) {
	const op = "location.Relocate"

	key := lockPrefix + productID
	token := uuid.New().String()

	ok, err := uc.deps.Locker.AcquireLock(ctx, key, token, uc.deps.LockTTL)
	if err != nil {
		// The lock is advisory; the transaction's conditional updates still guard the move.
		uc.deps.Logger.Warn("relocation lock unavailable, continuing without it",
			zap.String("key", key),
			zap.Error(err),
		)
		return func() {}, nil
	}
	if !ok {
		return nil, apperr.Conflict(op, "product %s is being relocated by another request", productID)
	}

	return func() {
		if err := uc.deps.Locker.ReleaseLock(context.WithoutCancel(ctx), key, token); err != nil {
			uc.deps.Logger.Warn("failed to release relocation lock",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}, nil
}
