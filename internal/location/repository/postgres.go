package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/txmanager"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Location, error) {
	var loc model.Location
	query := `SELECT id, shelf_id, slot_id, capacity, is_active FROM locations WHERE id = $1`
	err := txmanager.ExecutorFrom(ctx, r.DB).GetContext(ctx, &loc, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &loc, nil
}

func (r *PGRepository) ResolveOrCreate(ctx context.Context, shelfID, slotID string, capacity int) (*model.Location, error) {
	exec := txmanager.ExecutorFrom(ctx, r.DB)

	// DO NOTHING keeps the race loser from failing; the SELECT below reads the winner's row.
	_, err := exec.ExecContext(ctx, `
        INSERT INTO locations (id, shelf_id, slot_id, capacity, is_active)
        VALUES ($1, $2, $3, $4, true)
        ON CONFLICT (shelf_id, slot_id) DO NOTHING
    `, uuid.New().String(), shelfID, slotID, capacity)
	if err != nil {
		return nil, fmt.Errorf("upsert location %s-%s: %w", shelfID, slotID, err)
	}

	var loc model.Location
	query := `SELECT id, shelf_id, slot_id, capacity, is_active FROM locations WHERE shelf_id = $1 AND slot_id = $2`
	if err := exec.GetContext(ctx, &loc, query, shelfID, slotID); err != nil {
		return nil, fmt.Errorf("fetch location %s-%s: %w", shelfID, slotID, err)
	}
	return &loc, nil
}
