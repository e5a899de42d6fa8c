package handler

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	ledgerdto "github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/location"
	locationdto "github.com/fekuna/omnipos-stock-service/internal/location/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/rpc"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.stock.v1.StockService"

type ProductRequest struct {
	ProductID string `json:"product_id"`
}

type ListStockRequest struct{}

type StockListResponse struct {
	Products []dto.ProductStock `json:"products"`
}

type ShelfOccupancyRequest struct {
	ShelfID string `json:"shelf_id"`
}

type ShelfOccupancyResponse struct {
	Slots []dto.SlotOccupancy `json:"slots"`
}

type LowStockRequest struct {
	Threshold *int `json:"threshold"`
}

type QuantityResponse struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type RelocateRequest struct {
	ProductID string `json:"product_id"`
	ShelfID   string `json:"shelf_id"`
	SlotID    string `json:"slot_id"`
}

type RelocateResponse struct {
	Moved int `json:"moved"`
}

type ListTransactionsRequest struct {
	ItemSerial      string     `json:"item_serial"`
	OrderID         string     `json:"order_id"`
	UserID          string     `json:"user_id"`
	TransactionType string     `json:"transaction_type"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	Page            int        `json:"page"`
	PageSize        int        `json:"page_size"`
}

type ListTransactionsResponse struct {
	Transactions []model.TransactionView `json:"transactions"`
	Total        int                     `json:"total"`
}

// StockHandler serves the warehouse views: projections, relocation and the ledger.
type StockHandler struct {
	stockUC    stock.UseCase
	locationUC location.UseCase
	ledgerUC   ledger.UseCase
	logger     logger.ZapLogger
}

func NewStockHandler(stockUC stock.UseCase, locationUC location.UseCase, ledgerUC ledger.UseCase, log logger.ZapLogger) *StockHandler {
	return &StockHandler{
		stockUC:    stockUC,
		locationUC: locationUC,
		ledgerUC:   ledgerUC,
		logger:     log,
	}
}

func (h *StockHandler) ServiceDesc() *grpc.ServiceDesc {
	return rpc.Service(ServiceName,
		rpc.Method(ServiceName, "GetProductStock", h.GetProductStock),
		rpc.Method(ServiceName, "ListProductStock", h.ListProductStock),
		rpc.Method(ServiceName, "ShelfOccupancy", h.ShelfOccupancy),
		rpc.Method(ServiceName, "ListLowStock", h.ListLowStock),
		rpc.Method(ServiceName, "RefreshCachedQuantity", h.RefreshCachedQuantity),
		rpc.Method(ServiceName, "Relocate", h.Relocate),
		rpc.Method(ServiceName, "ListTransactions", h.ListTransactions),
	)
}

func (h *StockHandler) GetProductStock(ctx context.Context, req *ProductRequest) (*dto.ProductStock, error) {
	return h.stockUC.GetProductStock(ctx, req.ProductID)
}

func (h *StockHandler) ListProductStock(ctx context.Context, _ *ListStockRequest) (*StockListResponse, error) {
	products, err := h.stockUC.ListProductStock(ctx)
	if err != nil {
		return nil, err
	}
	return &StockListResponse{Products: products}, nil
}

func (h *StockHandler) ShelfOccupancy(ctx context.Context, req *ShelfOccupancyRequest) (*ShelfOccupancyResponse, error) {
	slots, err := h.stockUC.ShelfOccupancy(ctx, req.ShelfID)
	if err != nil {
		return nil, err
	}
	return &ShelfOccupancyResponse{Slots: slots}, nil
}

func (h *StockHandler) ListLowStock(ctx context.Context, req *LowStockRequest) (*StockListResponse, error) {
	products, err := h.stockUC.ListLowStock(ctx, req.Threshold)
	if err != nil {
		return nil, err
	}
	return &StockListResponse{Products: products}, nil
}

func (h *StockHandler) RefreshCachedQuantity(ctx context.Context, req *ProductRequest) (*QuantityResponse, error) {
	n, err := h.stockUC.RefreshCachedQuantity(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	return &QuantityResponse{ProductID: req.ProductID, Quantity: n}, nil
}

func (h *StockHandler) Relocate(ctx context.Context, req *RelocateRequest) (*RelocateResponse, error) {
	moved, err := h.locationUC.Relocate(ctx, &locationdto.RelocateInput{
		ProductID: req.ProductID,
		ShelfID:   req.ShelfID,
		SlotID:    req.SlotID,
		ActorID:   auth.GetActorID(ctx),
	})
	if err != nil {
		return nil, err
	}
	return &RelocateResponse{Moved: moved}, nil
}

func (h *StockHandler) ListTransactions(ctx context.Context, req *ListTransactionsRequest) (*ListTransactionsResponse, error) {
	entries, total, err := h.ledgerUC.ListTransactions(ctx, &ledgerdto.TransactionFilters{
		ItemSerial:      req.ItemSerial,
		OrderID:         req.OrderID,
		UserID:          req.UserID,
		TransactionType: req.TransactionType,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Page:            req.Page,
		PageSize:        req.PageSize,
	})
	if err != nil {
		return nil, err
	}
	return &ListTransactionsResponse{Transactions: entries, Total: total}, nil
}
