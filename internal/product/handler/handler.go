package handler

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/rpc"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.stock.v1.ProductService"

type GetProductRequest struct {
	ProductID string `json:"product_id"`
}

type SetPriceRequest struct {
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
}

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) ServiceDesc() *grpc.ServiceDesc {
	return rpc.Service(ServiceName,
		rpc.Method(ServiceName, "GetProduct", h.GetProduct),
		rpc.Method(ServiceName, "GetActivePrice", h.GetActivePrice),
		rpc.Method(ServiceName, "SetPrice", h.SetPrice),
	)
}

func (h *ProductHandler) GetProduct(ctx context.Context, req *GetProductRequest) (*model.Product, error) {
	return h.uc.GetProduct(ctx, req.ProductID)
}

func (h *ProductHandler) GetActivePrice(ctx context.Context, req *GetProductRequest) (*model.ProductPrice, error) {
	return h.uc.GetActivePrice(ctx, req.ProductID)
}

func (h *ProductHandler) SetPrice(ctx context.Context, req *SetPriceRequest) (*model.ProductPrice, error) {
	return h.uc.SetPrice(ctx, &dto.SetPriceInput{
		ProductID: req.ProductID,
		Price:     req.Price,
		ActorID:   auth.GetActorID(ctx),
	})
}
