package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderDelivered OrderStatus = "delivered"
	OrderRejected  OrderStatus = "rejected"
	OrderRefunded  OrderStatus = "refunded"
)

type Order struct {
	BaseModel
	OrderNumber string          `db:"order_number" json:"order_number"`
	UserID      string          `db:"user_id" json:"user_id"`
	Status      OrderStatus     `db:"status" json:"status"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	// SourceEventID is set for orders placed from the intake topic.
	SourceEventID *string     `db:"source_event_id" json:"source_event_id,omitempty"`
	Lines         []OrderLine `db:"-" json:"lines"`
}

// OrderLine binds one sold serial to its sale price.
type OrderLine struct {
	ID         string          `db:"id" json:"id"`
	OrderID    string          `db:"order_id" json:"order_id"`
	ItemSerial string          `db:"item_serial" json:"item_serial"`
	Price      decimal.Decimal `db:"price" json:"price"`
}

type RefundStatus string

const (
	RefundPending  RefundStatus = "pending"
	RefundApproved RefundStatus = "approved"
	RefundRejected RefundStatus = "rejected"
)

type RefundRequest struct {
	ID          string       `db:"id" json:"id"`
	OrderID     string       `db:"order_id" json:"order_id"`
	UserID      string       `db:"user_id" json:"user_id"`
	Description string       `db:"description" json:"description"`
	PhotoURL    *string      `db:"photo_url" json:"photo_url"`
	Status      RefundStatus `db:"status" json:"status"`
	ReviewedBy  *string      `db:"reviewed_by" json:"reviewed_by"`
	ReviewNotes *string      `db:"review_notes" json:"review_notes"`
	ReviewedAt  *time.Time   `db:"reviewed_at" json:"reviewed_at"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}
