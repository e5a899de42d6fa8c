package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/order/dto"
	"github.com/fekuna/omnipos-stock-service/internal/order/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orderCols  = []string{"id", "order_number", "user_id", "status", "total_amount", "source_event_id", "created_at", "updated_at"}
	lineCols   = []string{"id", "order_id", "item_serial", "price"}
	refundCols = []string{"id", "order_id", "user_id", "description", "photo_url", "status", "reviewed_by", "review_notes", "reviewed_at", "created_at"}
)

func newRepo(t *testing.T) (*repository.PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewPGRepository(sqlx.NewDb(db, "pgx")), mock
}

func newOrder() *model.Order {
	now := time.Now()
	event := "evt-1"
	return &model.Order{
		BaseModel:     model.BaseModel{ID: "o1", CreatedAt: now, UpdatedAt: now},
		OrderNumber:   "ORD-20261019-ABCDEF12",
		UserID:        "c1",
		Status:        model.OrderPending,
		TotalAmount:   decimal.RequireFromString("500.00"),
		SourceEventID: &event,
	}
}

func TestCreate_StoresSourceEvent(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(`INSERT INTO orders \(id, order_number, user_id, status, total_amount, source_event_id, created_at, updated_at\)`).
		WithArgs("o1", "ORD-20261019-ABCDEF12", "c1", "pending", sqlmock.AnyArg(), "evt-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), newOrder()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEventIsConflict(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(`INSERT INTO orders`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "orders_source_event_id_key"})

	err := repo.Create(context.Background(), newOrder())
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.True(t, apperr.IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindBySourceEvent_LoadsLines(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(`FROM orders WHERE source_event_id = \$1`).
		WithArgs("evt-1").
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow("o1", "ORD-20261019-ABCDEF12", "c1", "pending", "500.00", "evt-1", now, now))
	mock.ExpectQuery(`FROM order_items WHERE order_id = \$1\s+ORDER BY item_serial COLLATE "C"`).
		WithArgs("o1").
		WillReturnRows(sqlmock.NewRows(lineCols).
			AddRow("l1", "o1", "SN0000000001", "250.00").
			AddRow("l2", "o1", "SN0000000002", "250.00"))

	o, err := repo.FindBySourceEvent(context.Background(), "evt-1")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "o1", o.ID)
	require.NotNil(t, o.SourceEventID)
	assert.Equal(t, "evt-1", *o.SourceEventID)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("500")))
	require.Len(t, o.Lines, 2)
	assert.Equal(t, "SN0000000001", o.Lines[0].ItemSerial)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_MissingIsNil(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`FROM orders WHERE id = \$1`).
		WithArgs("o404").
		WillReturnRows(sqlmock.NewRows(orderCols))

	o, err := repo.FindByID(context.Background(), "o404")
	require.NoError(t, err)
	assert.Nil(t, o)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_IsConditional(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(`UPDATE orders\s+SET status = \$1, updated_at = NOW\(\)\s+WHERE id = \$2 AND status = \$3`).
		WithArgs("delivered", "o1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateStatus(context.Background(), "o1", model.OrderPending, model.OrderDelivered)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefund_DuplicatePendingIsInvalid(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(`INSERT INTO refund_requests`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.CreateRefund(context.Background(), &model.RefundRequest{
		ID: "r1", OrderID: "o1", UserID: "c1", Description: "cracked", Status: model.RefundPending,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveRefund_OnlyWhilePending(t *testing.T) {
	repo, mock := newRepo(t)
	at := time.Now()

	mock.ExpectExec(`UPDATE refund_requests\s+SET status = \$1, reviewed_by = \$2, review_notes = \$3, reviewed_at = \$4\s+WHERE id = \$5 AND status = \$6`).
		WithArgs("approved", "admin-1", nil, at, "r1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.ResolveRefund(context.Background(), &dto.RefundResolution{
		ID: "r1", Status: model.RefundApproved, ReviewedBy: "admin-1", ReviewedAt: at,
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRefunds_Filters(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()
	pending := model.RefundPending

	mock.ExpectQuery(`FROM refund_requests WHERE status = \$1 AND order_id = \$2 ORDER BY created_at DESC, id DESC`).
		WithArgs("pending", "o1").
		WillReturnRows(sqlmock.NewRows(refundCols).
			AddRow("r1", "o1", "c1", "cracked", nil, "pending", nil, nil, nil, now))

	refunds, err := repo.ListRefunds(context.Background(), &dto.RefundFilters{Status: &pending, OrderID: "o1"})
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.Equal(t, "r1", refunds[0].ID)
	assert.Nil(t, refunds[0].ReviewedBy)

	mock.ExpectQuery(`FROM refund_requests ORDER BY created_at DESC, id DESC`).
		WithArgs().
		WillReturnRows(sqlmock.NewRows(refundCols))

	refunds, err = repo.ListRefunds(context.Background(), &dto.RefundFilters{})
	require.NoError(t, err)
	assert.Empty(t, refunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}
