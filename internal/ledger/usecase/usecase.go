package usecase

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"go.uber.org/zap"
)

const maxPageSize = 200

type ledgerUseCase struct {
	repo   ledger.Repository
	logger logger.ZapLogger
}

func NewLedgerUseCase(repo ledger.Repository, log logger.ZapLogger) ledger.UseCase {
	return &ledgerUseCase{
		repo:   repo,
		logger: log,
	}
}

// ListTransactions returns ledger rows newest first. The actor fields describe who acted;
// the customer fields describe who owns the attached order, which may be someone else.
func (uc *ledgerUseCase) ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.TransactionView, int, error) {
	if filters == nil {
		filters = &dto.TransactionFilters{}
	}
	if filters.StartDate != nil && filters.EndDate != nil && filters.EndDate.Before(*filters.StartDate) {
		return nil, 0, apperr.Invalid("ledger.ListTransactions", "end date is before start date")
	}
	if filters.PageSize > maxPageSize {
		filters.PageSize = maxPageSize
	}
	if filters.PageSize > 0 && filters.Page < 1 {
		filters.Page = 1
	}

	entries, total, err := uc.repo.List(ctx, filters)
	if err != nil {
		uc.logger.Error("failed to list transactions", zap.Error(err))
		return nil, 0, err
	}
	return entries, total, nil
}
