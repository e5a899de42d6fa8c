package authz

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// PGChecker resolves permissions from the RBAC tables owned by the identity service.
type PGChecker struct {
	DB *sqlx.DB
}

func NewPGChecker(db *sqlx.DB) *PGChecker {
	return &PGChecker{DB: db}
}

func (c *PGChecker) HasPermission(ctx context.Context, actorID, resource, action string) (bool, error) {
	var allowed bool
	query := `
        SELECT EXISTS (
            SELECT 1
            FROM profiles p
            JOIN role_permissions rp ON rp.role = p.role
            WHERE p.id = $1 AND rp.resource = $2 AND rp.action = $3
        )
    `
	if err := c.DB.GetContext(ctx, &allowed, query, actorID, resource, action); err != nil {
		return false, err
	}
	return allowed, nil
}
