package model

import "time"

type ItemStatus string

const (
	ItemAvailable   ItemStatus = "available"
	ItemSold        ItemStatus = "sold"
	ItemDamaged     ItemStatus = "damaged"
	ItemInRepair    ItemStatus = "in_repair"
	ItemUnavailable ItemStatus = "unavailable"
)

// ItemStatuses lists every persisted status in display order.
var ItemStatuses = []ItemStatus{ItemAvailable, ItemSold, ItemDamaged, ItemInRepair, ItemUnavailable}

func (s ItemStatus) Valid() bool {
	for _, st := range ItemStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// Item is one serialized unit. Rows are never deleted; retirement is ItemUnavailable.
type Item struct {
	Serial     string     `db:"serial" json:"serial"`
	ProductID  string     `db:"product_id" json:"product_id"`
	Status     ItemStatus `db:"status" json:"status"`
	LocationID *string    `db:"location_id" json:"location_id"`
	PriceID    *string    `db:"price_id" json:"price_id"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}
