package ledger

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.TransactionView, int, error)
}
