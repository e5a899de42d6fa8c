package order

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/order/dto"
)

type Repository interface {
	Create(ctx context.Context, o *model.Order) error
	AddLines(ctx context.Context, lines []model.OrderLine) error
	// FindByID returns the order with its lines, or nil, nil when absent.
	FindByID(ctx context.Context, id string) (*model.Order, error)
	// FindBySourceEvent returns the order placed for an intake event, or nil, nil.
	FindBySourceEvent(ctx context.Context, eventID string) (*model.Order, error)
	// UpdateStatus reports false when the order is no longer in status from.
	UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) (bool, error)

	CreateRefund(ctx context.Context, r *model.RefundRequest) error
	FindRefundByID(ctx context.Context, id string) (*model.RefundRequest, error)
	HasPendingRefund(ctx context.Context, orderID string) (bool, error)
	// ResolveRefund applies res only while the request is still pending.
	ResolveRefund(ctx context.Context, res *dto.RefundResolution) (bool, error)
	ListRefunds(ctx context.Context, filters *dto.RefundFilters) ([]model.RefundRequest, error)
}
