package dto

import "github.com/shopspring/decimal"

type SetPriceInput struct {
	ProductID string
	Price     decimal.Decimal
	ActorID   string
}
