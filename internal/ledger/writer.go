package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/google/uuid"
)

// Writer appends ledger rows. It must be called inside the unit of work that performs the
// change being recorded, so the row commits or rolls back with it.
type Writer struct {
	repo Repository
	now  func() time.Time
}

func NewWriter(repo Repository) *Writer {
	return &Writer{repo: repo, now: time.Now}
}

func (w *Writer) Append(ctx context.Context, entry model.Transaction) (*model.Transaction, error) {
	const op = "ledger.Append"

	if entry.ItemSerial == "" {
		return nil, apperr.Invalid(op, "item serial is required")
	}
	if entry.UserID == "" {
		return nil, apperr.Invalid(op, "acting user is required")
	}
	if entry.TransactionType == "" {
		return nil, apperr.Invalid(op, "transaction type is required")
	}

	entry.ID = uuid.New().String()
	entry.CreatedAt = w.now().UTC()

	if err := w.repo.Append(ctx, &entry); err != nil {
		return nil, fmt.Errorf("append ledger entry for %s: %w", entry.ItemSerial, err)
	}
	return &entry, nil
}
