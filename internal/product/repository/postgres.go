package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `
        SELECT id, name, description, category, quantity, created_at, updated_at
        FROM products WHERE id = $1 LIMIT 1
    `
	err := txmanager.ExecutorFrom(ctx, r.DB).GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) ActivePrice(ctx context.Context, productID string) (*model.ProductPrice, error) {
	var price model.ProductPrice
	query := `
        SELECT id, product_id, price, effective_from, is_active
        FROM product_prices
        WHERE product_id = $1 AND is_active = true
        LIMIT 1
    `
	err := txmanager.ExecutorFrom(ctx, r.DB).GetContext(ctx, &price, query, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &price, nil
}

func (r *PGRepository) ReplacePrice(ctx context.Context, p *model.ProductPrice) error {
	exec := txmanager.ExecutorFrom(ctx, r.DB)

	// The partial unique index on (product_id) WHERE is_active forces this order.
	_, err := exec.ExecContext(ctx,
		`UPDATE product_prices SET is_active = false WHERE product_id = $1 AND is_active = true`,
		p.ProductID,
	)
	if err != nil {
		return fmt.Errorf("deactivate price: %w", err)
	}

	query := `
        INSERT INTO product_prices (id, product_id, price, effective_from, is_active)
        VALUES (:id, :product_id, :price, :effective_from, :is_active)
    `
	if _, err := exec.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("insert price: %w", err)
	}
	return nil
}

func (r *PGRepository) LockForUpdate(ctx context.Context, productID string) error {
	_, err := txmanager.ExecutorFrom(ctx, r.DB).ExecContext(ctx,
		`SELECT id FROM products WHERE id = $1 FOR UPDATE`, productID)
	return err
}

func (r *PGRepository) SetCachedQuantity(ctx context.Context, productID string, quantity int) error {
	_, err := txmanager.ExecutorFrom(ctx, r.DB).ExecContext(ctx,
		`UPDATE products SET quantity = $1, updated_at = NOW() WHERE id = $2`,
		quantity, productID,
	)
	return err
}
