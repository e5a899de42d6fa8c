package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

type AddStockInput struct {
	ProductID string
	Quantity  int
	ActorID   string
	// InitialStatus is available when empty; damaged records goods received damaged.
	InitialStatus model.ItemStatus
	ShelfID       string
	SlotID        string
	Notes         string
}

type TransitionInput struct {
	Serial  string
	Target  model.ItemStatus
	ActorID string
	Reason  string
}

// NewBatch is the repository-level request for one intake batch.
type NewBatch struct {
	ProductID  string
	Quantity   int
	Status     model.ItemStatus
	LocationID *string
	PriceID    *string
}
