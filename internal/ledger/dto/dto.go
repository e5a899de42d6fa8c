package dto

import "time"

type TransactionFilters struct {
	ItemSerial      string
	OrderID         string
	UserID          string
	TransactionType string
	StartDate       *time.Time
	EndDate         *time.Time
	Page            int
	PageSize        int
}
