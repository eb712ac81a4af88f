package services

import (
	"context"

	"order-management/internal/domain"
	"order-management/internal/repository"

	"github.com/shopspring/decimal"
)

type OrderDetail struct {
	Order    *domain.Order
	Customer *domain.Customer
}

// OrderService covers the plain read/write paths around orders; everything
// that touches stock goes through AllocationService instead.
type OrderService struct {
	store repository.Store
}

func NewOrderService(store repository.Store) *OrderService {
	return &OrderService{store: store}
}

func (s *OrderService) CreateOrder(ctx context.Context, customerID uint64) (*domain.Order, error) {
	customer, err := s.store.FindCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrCustomerNotFound
	}

	order := &domain.Order{
		CustomerID: customerID,
		Status:     domain.StatusPending,
		Total:      decimal.Zero,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) GetOrderDetail(ctx context.Context, orderID uint64) (*OrderDetail, error) {
	order, err := s.store.FindOrderWithItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}

	customer, err := s.store.FindCustomer(ctx, order.CustomerID)
	if err != nil {
		return nil, err
	}

	return &OrderDetail{Order: order, Customer: customer}, nil
}

// UpdateStatus overwrites the order status unconditionally after an
// enum-membership check; there is no transition graph. The existence check
// and the write share one transaction holding the order row lock, so an
// order removed concurrently reports not-found instead of silently
// updating zero rows.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint64, status domain.OrderStatus) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}
	return s.store.InTx(ctx, func(tx repository.Store) error {
		order, err := tx.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrOrderNotFound
		}
		return tx.UpdateOrderStatus(ctx, orderID, status)
	})
}
