package handler

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/item"
	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/rpc"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.stock.v1.ItemService"

type AddStockRequest struct {
	ProductID     string           `json:"product_id"`
	Quantity      int              `json:"quantity"`
	InitialStatus model.ItemStatus `json:"initial_status"`
	ShelfID       string           `json:"shelf_id"`
	SlotID        string           `json:"slot_id"`
	Notes         string           `json:"notes"`
}

type TransitionRequest struct {
	Serial string           `json:"serial"`
	Target model.ItemStatus `json:"target"`
	Reason string           `json:"reason"`
}

type GetItemRequest struct {
	Serial string `json:"serial"`
}

type ListItemsRequest struct {
	ProductID string `json:"product_id"`
}

type ItemsResponse struct {
	Items []model.Item `json:"items"`
}

type ItemHandler struct {
	uc     item.UseCase
	logger logger.ZapLogger
}

func NewItemHandler(uc item.UseCase, log logger.ZapLogger) *ItemHandler {
	return &ItemHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ItemHandler) ServiceDesc() *grpc.ServiceDesc {
	return rpc.Service(ServiceName,
		rpc.Method(ServiceName, "AddStock", h.AddStock),
		rpc.Method(ServiceName, "Transition", h.Transition),
		rpc.Method(ServiceName, "GetItem", h.GetItem),
		rpc.Method(ServiceName, "ListItems", h.ListItems),
	)
}

func (h *ItemHandler) AddStock(ctx context.Context, req *AddStockRequest) (*ItemsResponse, error) {
	items, err := h.uc.AddStock(ctx, &dto.AddStockInput{
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		ActorID:       auth.GetActorID(ctx),
		InitialStatus: req.InitialStatus,
		ShelfID:       req.ShelfID,
		SlotID:        req.SlotID,
		Notes:         req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &ItemsResponse{Items: items}, nil
}

func (h *ItemHandler) Transition(ctx context.Context, req *TransitionRequest) (*model.Item, error) {
	return h.uc.Transition(ctx, &dto.TransitionInput{
		Serial:  req.Serial,
		Target:  req.Target,
		ActorID: auth.GetActorID(ctx),
		Reason:  req.Reason,
	})
}

func (h *ItemHandler) GetItem(ctx context.Context, req *GetItemRequest) (*model.Item, error) {
	return h.uc.GetItem(ctx, req.Serial)
}

func (h *ItemHandler) ListItems(ctx context.Context, req *ListItemsRequest) (*ItemsResponse, error) {
	items, err := h.uc.ListItems(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	return &ItemsResponse{Items: items}, nil
}
