package dto

import (
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/shopspring/decimal"
)

type OrderLineInput struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type ProcessOrderInput struct {
	UserID string
	Lines  []OrderLineInput
	// SourceEventID makes the call idempotent: an order already placed for it is returned as is.
	SourceEventID string
}

// OrderActionInput drives completeOrder and rejectOrder; Reason is required for rejection.
type OrderActionInput struct {
	OrderID string
	ActorID string
	Reason  string
}

type CreateRefundInput struct {
	OrderID     string
	UserID      string
	Description string
	PhotoURL    *string
}

type ReviewRefundInput struct {
	RefundID string
	ActorID  string
	Notes    *string
}

// RefundResolution is the repository-level review of a pending refund request.
type RefundResolution struct {
	ID          string
	Status      model.RefundStatus
	ReviewedBy  string
	ReviewNotes *string
	ReviewedAt  time.Time
}
