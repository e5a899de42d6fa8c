package model

import "fmt"

type Location struct {
	ID       string `db:"id" json:"id"`
	ShelfID  string `db:"shelf_id" json:"shelf_id"`
	SlotID   string `db:"slot_id" json:"slot_id"`
	Capacity int    `db:"capacity" json:"capacity"`
	IsActive bool   `db:"is_active" json:"is_active"`
}

// Code renders the location as shelf-slot, e.g. A1-01.
func (l Location) Code() string {
	return fmt.Sprintf("%s-%s", l.ShelfID, l.SlotID)
}
