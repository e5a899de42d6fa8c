package order

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/order/dto"
)

type UseCase interface {
	ProcessOrder(ctx context.Context, input *dto.ProcessOrderInput) (*model.Order, error)
	CompleteOrder(ctx context.Context, input *dto.OrderActionInput) (*model.Order, error)
	RejectOrder(ctx context.Context, input *dto.OrderActionInput) (*model.Order, error)

	CreateRefundRequest(ctx context.Context, input *dto.CreateRefundInput) (*model.RefundRequest, error)
	ProcessRefund(ctx context.Context, input *dto.ReviewRefundInput) (*model.RefundRequest, error)
	RejectRefund(ctx context.Context, input *dto.ReviewRefundInput) (*model.RefundRequest, error)

	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListRefundRequests(ctx context.Context, filters *dto.RefundFilters) ([]model.RefundRequest, error)
}
