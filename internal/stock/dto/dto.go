package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

// ProductStock is the live count of a product's units by status.
type ProductStock struct {
	ProductID   string `db:"product_id" json:"product_id"`
	ProductName string `db:"product_name" json:"product_name"`
	Available   int    `db:"available" json:"available"`
	Sold        int    `db:"sold" json:"sold"`
	Damaged     int    `db:"damaged" json:"damaged"`
	InRepair    int    `db:"in_repair" json:"in_repair"`
	Unavailable int    `db:"unavailable" json:"unavailable"`
	Total       int    `db:"total" json:"total"`
}

// Count returns the number of units in status s.
func (p ProductStock) Count(s model.ItemStatus) int {
	switch s {
	case model.ItemAvailable:
		return p.Available
	case model.ItemSold:
		return p.Sold
	case model.ItemDamaged:
		return p.Damaged
	case model.ItemInRepair:
		return p.InRepair
	case model.ItemUnavailable:
		return p.Unavailable
	}
	return 0
}

// SlotOccupancy is how many units of one product sit in one slot.
type SlotOccupancy struct {
	LocationID  string `db:"location_id" json:"location_id"`
	ShelfID     string `db:"shelf_id" json:"shelf_id"`
	SlotID      string `db:"slot_id" json:"slot_id"`
	Capacity    int    `db:"capacity" json:"capacity"`
	ProductID   string `db:"product_id" json:"product_id"`
	ProductName string `db:"product_name" json:"product_name"`
	Units       int    `db:"units" json:"units"`
}
