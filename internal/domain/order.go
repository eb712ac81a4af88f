package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID         uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	CustomerID uint64          `json:"customerId" gorm:"not null;index"`
	Status     OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Total      decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	Items      []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

// OrderItem is one line of an order. At most one row may exist per
// (order, product) pair; adding the same product again merges quantities.
// UnitPrice is captured when the row is first created and never re-priced,
// so historical totals survive later product price changes.
type OrderItem struct {
	ID        uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID   uint64          `json:"orderId" gorm:"not null;uniqueIndex:uniq_order_product"`
	ProductID uint64          `json:"productId" gorm:"not null;uniqueIndex:uniq_order_product"`
	Quantity  int64           `json:"quantity" gorm:"not null;check:quantity > 0"`
	UnitPrice decimal.Decimal `json:"unitPrice" gorm:"type:decimal(10,2);not null"`
	Product   *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}
