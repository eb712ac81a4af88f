package domain

import "github.com/shopspring/decimal"

// LowStockThreshold is the fixed cutoff for the low-stock report.
const LowStockThreshold = 10

type Product struct {
	ID         uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	Name       string          `json:"name" gorm:"size:255;not null"`
	Quantity   int64           `json:"quantity" gorm:"not null;check:quantity >= 0"`
	Price      decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null;check:price >= 0"`
	Active     bool            `json:"active" gorm:"not null;default:true"`
	CategoryID uint64          `json:"categoryId" gorm:"not null;index"`
}

func (p Product) InStock() bool {
	return p.Quantity > 0
}

func (p Product) LowStock() bool {
	return p.Quantity > 0 && p.Quantity <= LowStockThreshold
}
