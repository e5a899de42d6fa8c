package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/txmanager"
	"github.com/jmoiron/sqlx"
)

const itemColumns = `serial, product_id, status, location_id, price_id, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetBySerial(ctx context.Context, serial string) (*model.Item, error) {
	var it model.Item
	query := `SELECT ` + itemColumns + ` FROM items WHERE serial = $1`
	err := txmanager.ExecutorFrom(ctx, r.DB).GetContext(ctx, &it, query, serial)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &it, nil
}

func (r *PGRepository) ListByProduct(ctx context.Context, productID string) ([]model.Item, error) {
	items := []model.Item{}
	query := `SELECT ` + itemColumns + ` FROM items WHERE product_id = $1 ORDER BY serial COLLATE "C"`
	if err := txmanager.ExecutorFrom(ctx, r.DB).SelectContext(ctx, &items, query, productID); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PGRepository) ListAvailableSerials(ctx context.Context, productID string, limit int) ([]string, error) {
	serials := []string{}
	query := `
        SELECT serial FROM items
        WHERE product_id = $1 AND status = $2
        ORDER BY serial COLLATE "C"
        LIMIT $3
    `
	err := txmanager.ExecutorFrom(ctx, r.DB).SelectContext(ctx, &serials, query,
		productID, string(model.ItemAvailable), limit)
	if err != nil {
		return nil, err
	}
	return serials, nil
}

func (r *PGRepository) CountAvailable(ctx context.Context, productID string) (int, error) {
	var n int
	query := `SELECT count(*) FROM items WHERE product_id = $1 AND status = $2`
	err := txmanager.ExecutorFrom(ctx, r.DB).GetContext(ctx, &n, query, productID, string(model.ItemAvailable))
	return n, err
}

func (r *PGRepository) CreateBatch(ctx context.Context, b *dto.NewBatch) ([]model.Item, error) {
	// Serials come from a sequence so they are never reused, even after rollbacks.
	query := `
        INSERT INTO items (serial, product_id, status, location_id, price_id, created_at, updated_at)
        SELECT 'SN' || lpad(nextval('item_serial_seq')::text, 10, '0'), $1, $2, $3, $4, NOW(), NOW()
        FROM generate_series(1, $5)
        RETURNING ` + itemColumns

	items := []model.Item{}
	err := txmanager.ExecutorFrom(ctx, r.DB).SelectContext(ctx, &items, query,
		b.ProductID, string(b.Status), b.LocationID, b.PriceID, b.Quantity)
	if err != nil {
		return nil, fmt.Errorf("insert item batch: %w", err)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Serial < items[j].Serial })
	return items, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, serial string, from, to model.ItemStatus) (bool, error) {
	query := `
        UPDATE items
        SET status = $1, updated_at = NOW()
        WHERE serial = $2 AND status = $3
    `
	res, err := txmanager.ExecutorFrom(ctx, r.DB).ExecContext(ctx, query, string(to), serial, string(from))
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *PGRepository) UpdateLocation(ctx context.Context, serial string, from *string, locationID string) (bool, error) {
	query := `
        UPDATE items
        SET location_id = $1, updated_at = NOW()
        WHERE serial = $2 AND location_id IS NOT DISTINCT FROM $3
    `
	res, err := txmanager.ExecutorFrom(ctx, r.DB).ExecContext(ctx, query, locationID, serial, from)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
