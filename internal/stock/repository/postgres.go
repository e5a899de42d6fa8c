package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/internal/txmanager"
	"github.com/jmoiron/sqlx"
)

// Counts come straight from item rows; products.quantity is never read here.
const countsSelect = `
    SELECT p.id AS product_id, p.name AS product_name,
           count(i.serial) FILTER (WHERE i.status = 'available')   AS available,
           count(i.serial) FILTER (WHERE i.status = 'sold')        AS sold,
           count(i.serial) FILTER (WHERE i.status = 'damaged')     AS damaged,
           count(i.serial) FILTER (WHERE i.status = 'in_repair')   AS in_repair,
           count(i.serial) FILTER (WHERE i.status = 'unavailable') AS unavailable,
           count(i.serial) AS total
    FROM products p
    LEFT JOIN items i ON i.product_id = p.id`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ProductStock(ctx context.Context, productID string) (*dto.ProductStock, error) {
	var ps dto.ProductStock
	query := countsSelect + ` WHERE p.id = $1 GROUP BY p.id, p.name`
	if err := txmanager.ExecutorFrom(ctx, r.DB).GetContext(ctx, &ps, query, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ps, nil
}

func (r *PGRepository) ListProductStock(ctx context.Context) ([]dto.ProductStock, error) {
	stock := []dto.ProductStock{}
	query := countsSelect + ` GROUP BY p.id, p.name ORDER BY p.name ASC, p.id ASC`
	if err := txmanager.ExecutorFrom(ctx, r.DB).SelectContext(ctx, &stock, query); err != nil {
		return nil, fmt.Errorf("list product stock: %w", err)
	}
	return stock, nil
}

func (r *PGRepository) ShelfOccupancy(ctx context.Context, shelfID string) ([]dto.SlotOccupancy, error) {
	query := `
        SELECT l.id AS location_id, l.shelf_id, l.slot_id, l.capacity,
               p.id AS product_id, p.name AS product_name, count(*) AS units
        FROM items i
        JOIN locations l ON l.id = i.location_id
        JOIN products p ON p.id = i.product_id
        WHERE ($1 = '' OR l.shelf_id = $1)
        GROUP BY l.id, l.shelf_id, l.slot_id, l.capacity, p.id, p.name
        ORDER BY l.shelf_id, l.slot_id, p.name
    `
	occupancy := []dto.SlotOccupancy{}
	if err := txmanager.ExecutorFrom(ctx, r.DB).SelectContext(ctx, &occupancy, query, shelfID); err != nil {
		return nil, fmt.Errorf("shelf occupancy: %w", err)
	}
	return occupancy, nil
}

func (r *PGRepository) LowStock(ctx context.Context, threshold int) ([]dto.ProductStock, error) {
	stock := []dto.ProductStock{}
	query := countsSelect + `
        GROUP BY p.id, p.name
        HAVING count(i.serial) FILTER (WHERE i.status = 'available') <= $1
        ORDER BY available ASC, p.name ASC`
	if err := txmanager.ExecutorFrom(ctx, r.DB).SelectContext(ctx, &stock, query, threshold); err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return stock, nil
}
