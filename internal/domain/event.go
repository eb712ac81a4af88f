package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItemAddedEvent struct {
	OrderID      uint64          `json:"orderId"`
	ProductID    uint64          `json:"productId"`
	Action       string          `json:"action"`
	Quantity     int64           `json:"quantity"`
	LineQuantity int64           `json:"lineQuantity"`
	OrderTotal   decimal.Decimal `json:"orderTotal"`
	AddedAt      time.Time       `json:"addedAt"`
}
