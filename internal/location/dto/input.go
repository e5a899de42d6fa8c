package dto

type RelocateInput struct {
	ProductID string
	ShelfID   string
	SlotID    string
	ActorID   string
}
