package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/order/dto"
	"github.com/fekuna/omnipos-stock-service/internal/platform/postgres"
	"github.com/fekuna/omnipos-stock-service/internal/txmanager"
	"github.com/jmoiron/sqlx"
)

const orderColumns = `id, order_number, user_id, status, total_amount, source_event_id, created_at, updated_at`

const refundColumns = `id, order_id, user_id, description, photo_url, status, reviewed_by, review_notes, reviewed_at, created_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, o *model.Order) error {
	query := `
        INSERT INTO orders (id, order_number, user_id, status, total_amount, source_event_id, created_at, updated_at)
        VALUES (:id, :order_number, :user_id, :status, :total_amount, :source_event_id, :created_at, :updated_at)
    `
	_, err := txmanager.ExecutorFrom(ctx, r.DB).NamedExecContext(ctx, query, o)
	if postgres.IsUniqueViolation(err) {
		// A concurrent delivery of the same event won the insert; a retry resolves to its order.
		return apperr.Conflict("order.Create", "order %s collides with an existing order", o.OrderNumber)
	}
	return err
}

func (r *PGRepository) AddLines(ctx context.Context, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	query := `
        INSERT INTO order_items (id, order_id, item_serial, price)
        VALUES (:id, :order_id, :item_serial, :price)
    `
	_, err := txmanager.ExecutorFrom(ctx, r.DB).NamedExecContext(ctx, query, lines)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *PGRepository) FindBySourceEvent(ctx context.Context, eventID string) (*model.Order, error) {
	return r.findOne(ctx, "source_event_id = $1", eventID)
}

func (r *PGRepository) findOne(ctx context.Context, where string, arg interface{}) (*model.Order, error) {
	exec := txmanager.ExecutorFrom(ctx, r.DB)

	var o model.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + where
	if err := exec.GetContext(ctx, &o, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	o.Lines = []model.OrderLine{}
	linesQuery := `
        SELECT id, order_id, item_serial, price
        FROM order_items WHERE order_id = $1
        ORDER BY item_serial COLLATE "C"
    `
	if err := exec.SelectContext(ctx, &o.Lines, linesQuery, o.ID); err != nil {
		return nil, fmt.Errorf("load lines of order %s: %w", o.ID, err)
	}
	return &o, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) (bool, error) {
	query := `
        UPDATE orders
        SET status = $1, updated_at = NOW()
        WHERE id = $2 AND status = $3
    `
	res, err := txmanager.ExecutorFrom(ctx, r.DB).ExecContext(ctx, query, string(to), id, string(from))
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *PGRepository) CreateRefund(ctx context.Context, rr *model.RefundRequest) error {
	query := `
        INSERT INTO refund_requests (id, order_id, user_id, description, photo_url, status, created_at)
        VALUES (:id, :order_id, :user_id, :description, :photo_url, :status, :created_at)
    `
	_, err := txmanager.ExecutorFrom(ctx, r.DB).NamedExecContext(ctx, query, rr)
	if postgres.IsUniqueViolation(err) {
		return apperr.Invalid("order.CreateRefundRequest", "order %s already has a pending refund request", rr.OrderID)
	}
	return err
}

func (r *PGRepository) FindRefundByID(ctx context.Context, id string) (*model.RefundRequest, error) {
	var rr model.RefundRequest
	query := `SELECT ` + refundColumns + ` FROM refund_requests WHERE id = $1`
	if err := txmanager.ExecutorFrom(ctx, r.DB).GetContext(ctx, &rr, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rr, nil
}

func (r *PGRepository) HasPendingRefund(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM refund_requests WHERE order_id = $1 AND status = $2)`
	err := txmanager.ExecutorFrom(ctx, r.DB).GetContext(ctx, &exists, query, orderID, string(model.RefundPending))
	return exists, err
}

func (r *PGRepository) ResolveRefund(ctx context.Context, res *dto.RefundResolution) (bool, error) {
	query := `
        UPDATE refund_requests
        SET status = $1, reviewed_by = $2, review_notes = $3, reviewed_at = $4
        WHERE id = $5 AND status = $6
    `
	result, err := txmanager.ExecutorFrom(ctx, r.DB).ExecContext(ctx, query,
		string(res.Status), res.ReviewedBy, res.ReviewNotes, res.ReviewedAt, res.ID, string(model.RefundPending))
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *PGRepository) ListRefunds(ctx context.Context, f *dto.RefundFilters) ([]model.RefundRequest, error) {
	exec := txmanager.ExecutorFrom(ctx, r.DB)

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != nil {
		conditions = append(conditions, "status = :status")
		args["status"] = string(*f.Status)
	}
	if f.OrderID != "" {
		conditions = append(conditions, "order_id = :order_id")
		args["order_id"] = f.OrderID
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query, qargs, err := sqlx.Named(
		"SELECT "+refundColumns+" FROM refund_requests"+whereClause+" ORDER BY created_at DESC, id DESC", args)
	if err != nil {
		return nil, err
	}

	refunds := []model.RefundRequest{}
	if err := exec.SelectContext(ctx, &refunds, exec.Rebind(query), qargs...); err != nil {
		return nil, fmt.Errorf("list refund requests: %w", err)
	}
	return refunds, nil
}
