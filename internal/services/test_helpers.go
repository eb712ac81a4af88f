package services

import (
	"time"

	"order-management/internal/domain"

	"github.com/shopspring/decimal"
)

func CreateTestOrder(id, customerID uint64, status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:         id,
		CustomerID: customerID,
		Status:     status,
		Total:      decimal.Zero,
		CreatedAt:  time.Now(),
	}
}

func CreateTestProduct(id uint64, name string, quantity int64, price string) *domain.Product {
	return &domain.Product{
		ID:         id,
		Name:       name,
		Quantity:   quantity,
		Price:      decimal.RequireFromString(price),
		Active:     true,
		CategoryID: TestCategoryID,
	}
}

const (
	TestOrderID      = uint64(1)
	TestProductID    = uint64(1)
	TestCustomerID   = uint64(1)
	TestCategoryID   = uint64(1)
	TestProductName  = "Test Product"
	TestProductPrice = "100.00"
)
