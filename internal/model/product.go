package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`
	Category    *string `db:"category" json:"category"`
	// Quantity is a denormalized count of available items; never used for allocation.
	Quantity int `db:"quantity" json:"quantity"`
}

// ProductPrice is one version of a product's unit price. Exactly one row per product is active.
type ProductPrice struct {
	ID            string          `db:"id" json:"id"`
	ProductID     string          `db:"product_id" json:"product_id"`
	Price         decimal.Decimal `db:"price" json:"price"`
	EffectiveFrom time.Time       `db:"effective_from" json:"effective_from"`
	IsActive      bool            `db:"is_active" json:"is_active"`
}
