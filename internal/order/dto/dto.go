package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

type RefundFilters struct {
	Status  *model.RefundStatus
	OrderID string
}
