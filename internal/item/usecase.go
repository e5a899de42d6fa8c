package item

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	GetItem(ctx context.Context, serial string) (*model.Item, error)
	ListItems(ctx context.Context, productID string) ([]model.Item, error)
	AddStock(ctx context.Context, input *dto.AddStockInput) ([]model.Item, error)
	Transition(ctx context.Context, input *dto.TransitionInput) (*model.Item, error)
}
