package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrProductInactive   = errors.New("product is not active")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInvalidPrice      = errors.New("price must not be negative")
	ErrMissingName       = errors.New("name is required")
	ErrMissingEmail      = errors.New("email is required")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrCyclicHierarchy   = errors.New("category cannot be its own ancestor")
	ErrProductReferenced = errors.New("product is referenced by existing order items")

	// ErrAllocationTimeout means the allocation transaction exceeded its
	// deadline while waiting on row locks; the caller may retry.
	ErrAllocationTimeout = errors.New("allocation timed out")
)

// InsufficientStockError is a business rejection, not a fault. Available is
// the authoritative stock read under the product row lock, so the caller can
// retry with an adjusted amount.
type InsufficientStockError struct {
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d available", e.Available)
}

func IsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var e *InsufficientStockError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
