package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/txmanager"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Append(ctx context.Context, t *model.Transaction) error {
	query := `
        INSERT INTO transactions (
            id, item_serial, user_id, transaction_type, notes, order_id,
            from_location_id, to_location_id, created_at
        )
        VALUES (
            :id, :item_serial, :user_id, :transaction_type, :notes, :order_id,
            :from_location_id, :to_location_id, :created_at
        )
    `
	_, err := txmanager.ExecutorFrom(ctx, r.DB).NamedExecContext(ctx, query, t)
	return err
}

const enrichedSelect = `
    SELECT t.id, t.item_serial, t.user_id, t.transaction_type, t.notes, t.order_id,
           t.from_location_id, t.to_location_id, t.created_at,
           actor.full_name AS actor_name, actor.role AS actor_role,
           o.user_id AS customer_id, customer.full_name AS customer_name, o.order_number
    FROM transactions t
    LEFT JOIN profiles actor ON actor.id = t.user_id
    LEFT JOIN orders o ON o.id = t.order_id
    LEFT JOIN profiles customer ON customer.id = o.user_id`

func (r *PGRepository) List(ctx context.Context, f *dto.TransactionFilters) ([]model.TransactionView, int, error) {
	exec := txmanager.ExecutorFrom(ctx, r.DB)

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ItemSerial != "" {
		conditions = append(conditions, "t.item_serial = :item_serial")
		args["item_serial"] = f.ItemSerial
	}
	if f.OrderID != "" {
		conditions = append(conditions, "t.order_id = :order_id")
		args["order_id"] = f.OrderID
	}
	if f.UserID != "" {
		conditions = append(conditions, "t.user_id = :user_id")
		args["user_id"] = f.UserID
	}
	if f.TransactionType != "" {
		conditions = append(conditions, "t.transaction_type = :transaction_type")
		args["transaction_type"] = f.TransactionType
	}
	if f.StartDate != nil {
		conditions = append(conditions, "t.created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "t.created_at < :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM transactions t"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := exec.GetContext(ctx, &count, exec.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := enrichedSelect + whereClause + " ORDER BY t.created_at DESC, t.id DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	listQuery, listArgs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, 0, err
	}

	items := []model.TransactionView{}
	if err := exec.SelectContext(ctx, &items, exec.Rebind(listQuery), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return items, count, nil
}
