package handler

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/order"
	"github.com/fekuna/omnipos-stock-service/internal/order/dto"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/rpc"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.stock.v1.OrderService"

type ProcessOrderRequest struct {
	Lines []dto.OrderLineInput `json:"lines"`
}

type OrderActionRequest struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

type GetOrderRequest struct {
	OrderID string `json:"order_id"`
}

type CreateRefundRequest struct {
	OrderID     string  `json:"order_id"`
	Description string  `json:"description"`
	PhotoURL    *string `json:"photo_url"`
}

type ReviewRefundRequest struct {
	RefundID string  `json:"refund_id"`
	Notes    *string `json:"notes"`
}

type ListRefundsRequest struct {
	Status  *model.RefundStatus `json:"status"`
	OrderID string              `json:"order_id"`
}

type ListRefundsResponse struct {
	Refunds []model.RefundRequest `json:"refunds"`
}

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *OrderHandler) ServiceDesc() *grpc.ServiceDesc {
	return rpc.Service(ServiceName,
		rpc.Method(ServiceName, "ProcessOrder", h.ProcessOrder),
		rpc.Method(ServiceName, "CompleteOrder", h.CompleteOrder),
		rpc.Method(ServiceName, "RejectOrder", h.RejectOrder),
		rpc.Method(ServiceName, "GetOrder", h.GetOrder),
		rpc.Method(ServiceName, "CreateRefundRequest", h.CreateRefundRequest),
		rpc.Method(ServiceName, "ProcessRefund", h.ProcessRefund),
		rpc.Method(ServiceName, "RejectRefund", h.RejectRefund),
		rpc.Method(ServiceName, "ListRefundRequests", h.ListRefundRequests),
	)
}

// ProcessOrder places an order for the calling user.
func (h *OrderHandler) ProcessOrder(ctx context.Context, req *ProcessOrderRequest) (*model.Order, error) {
	return h.uc.ProcessOrder(ctx, &dto.ProcessOrderInput{
		UserID: auth.GetActorID(ctx),
		Lines:  req.Lines,
	})
}

func (h *OrderHandler) CompleteOrder(ctx context.Context, req *OrderActionRequest) (*model.Order, error) {
	return h.uc.CompleteOrder(ctx, &dto.OrderActionInput{
		OrderID: req.OrderID,
		ActorID: auth.GetActorID(ctx),
	})
}

func (h *OrderHandler) RejectOrder(ctx context.Context, req *OrderActionRequest) (*model.Order, error) {
	return h.uc.RejectOrder(ctx, &dto.OrderActionInput{
		OrderID: req.OrderID,
		ActorID: auth.GetActorID(ctx),
		Reason:  req.Reason,
	})
}

func (h *OrderHandler) GetOrder(ctx context.Context, req *GetOrderRequest) (*model.Order, error) {
	return h.uc.GetOrder(ctx, req.OrderID)
}

func (h *OrderHandler) CreateRefundRequest(ctx context.Context, req *CreateRefundRequest) (*model.RefundRequest, error) {
	return h.uc.CreateRefundRequest(ctx, &dto.CreateRefundInput{
		OrderID:     req.OrderID,
		UserID:      auth.GetActorID(ctx),
		Description: req.Description,
		PhotoURL:    req.PhotoURL,
	})
}

func (h *OrderHandler) ProcessRefund(ctx context.Context, req *ReviewRefundRequest) (*model.RefundRequest, error) {
	return h.uc.ProcessRefund(ctx, &dto.ReviewRefundInput{
		RefundID: req.RefundID,
		ActorID:  auth.GetActorID(ctx),
		Notes:    req.Notes,
	})
}

func (h *OrderHandler) RejectRefund(ctx context.Context, req *ReviewRefundRequest) (*model.RefundRequest, error) {
	return h.uc.RejectRefund(ctx, &dto.ReviewRefundInput{
		RefundID: req.RefundID,
		ActorID:  auth.GetActorID(ctx),
		Notes:    req.Notes,
	})
}

func (h *OrderHandler) ListRefundRequests(ctx context.Context, req *ListRefundsRequest) (*ListRefundsResponse, error) {
	refunds, err := h.uc.ListRefundRequests(ctx, &dto.RefundFilters{
		Status:  req.Status,
		OrderID: req.OrderID,
	})
	if err != nil {
		return nil, err
	}
	return &ListRefundsResponse{Refunds: refunds}, nil
}
