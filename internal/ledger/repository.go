package ledger

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

// Repository is append-only; it has no update or delete.
type Repository interface {
	Append(ctx context.Context, entry *model.Transaction) error
	List(ctx context.Context, filters *dto.TransactionFilters) ([]model.TransactionView, int, error)
}
