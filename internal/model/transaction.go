package model

import "time"

// Transaction types written to the ledger.
const (
	TxInventoryAddition = "inventory_addition"
	TxSale              = "sale"
	TxStatusChange      = "status_change"
	TxLocationChange    = "location_change"
	TxRefund            = "refund"
	TxRejection         = "rejection"
	TxRepair            = "repair"
)

// Transaction is an immutable ledger row. It has no update path.
type Transaction struct {
	ID              string    `db:"id" json:"id"`
	ItemSerial      string    `db:"item_serial" json:"item_serial"`
	UserID          string    `db:"user_id" json:"user_id"`
	TransactionType string    `db:"transaction_type" json:"transaction_type"`
	Notes           *string   `db:"notes" json:"notes"`
	OrderID         *string   `db:"order_id" json:"order_id"`
	FromLocationID  *string   `db:"from_location_id" json:"from_location_id"`
	ToLocationID    *string   `db:"to_location_id" json:"to_location_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// TransactionView is a ledger row enriched at read time.
type TransactionView struct {
	Transaction
	ActorName    *string `db:"actor_name" json:"actor_name"`
	ActorRole    *string `db:"actor_role" json:"actor_role"`
	CustomerID   *string `db:"customer_id" json:"customer_id"`
	CustomerName *string `db:"customer_name" json:"customer_name"`
	OrderNumber  *string `db:"order_number" json:"order_number"`
}

// Profile is the display identity of a user, owned outside this service.
type Profile struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	Role     string `db:"role" json:"role"`
}
