package services

import (
	"context"
	"errors"
	"log"
	"time"

	"order-management/internal/domain"
	rabbit "order-management/internal/infra/rabbitmq"
	"order-management/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// defaultTxTimeout bounds how long an allocation may wait on row locks held
// by concurrent requests.
const defaultTxTimeout = 5 * time.Second

type AddItemResult struct {
	Action       string
	LineQuantity int64
	OrderTotal   decimal.Decimal
}

// AllocationService owns the inventory-allocation transaction: it is the only
// code path that decrements product stock, and the only writer of order
// totals (via recomputeTotal).
type AllocationService struct {
	store     repository.Store
	publisher rabbit.PublisherInterface
	txTimeout time.Duration
}

func NewAllocationService(store repository.Store, pub rabbit.PublisherInterface) *AllocationService {
	return &AllocationService{
		store:     store,
		publisher: pub,
		txTimeout: defaultTxTimeout,
	}
}

// SetTxTimeout overrides the allocation deadline.
func (s *AllocationService) SetTxTimeout(d time.Duration) {
	s.txTimeout = d
}

// AddItem adds quantity units of a product to an order. In one transaction it
// locks the order row then the product row (fixed lock order), verifies stock
// against the quantity read under the lock, merges into the existing line
// item or creates one with the product's current price, decrements stock and
// recomputes the order total. A stock shortfall aborts the transaction with
// InsufficientStockError and leaves no residue.
func (s *AllocationService) AddItem(ctx context.Context, orderID, productID uint64, quantity int64) (*AddItemResult, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var res AddItemResult
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		order, err := tx.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrOrderNotFound
		}

		product, err := tx.FindProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		if !product.Active {
			return domain.ErrProductInactive
		}

		// product.Quantity was read under the row lock; it is the
		// authoritative stock, not a pre-transaction snapshot.
		if product.Quantity < quantity {
			return &domain.InsufficientStockError{Available: product.Quantity}
		}

		item, err := tx.FindOrderItem(ctx, orderID, productID)
		if err != nil {
			return err
		}
		if item != nil {
			// merge; unit price stays fixed at first insertion
			res.Action = ActionUpdated
			res.LineQuantity = item.Quantity + quantity
			if err := tx.UpdateOrderItemQuantity(ctx, item.ID, res.LineQuantity); err != nil {
				return err
			}
		} else {
			res.Action = ActionCreated
			res.LineQuantity = quantity
			item = &domain.OrderItem{
				OrderID:   orderID,
				ProductID: productID,
				Quantity:  quantity,
				UnitPrice: product.Price,
			}
			if err := tx.CreateOrderItem(ctx, item); err != nil {
				return err
			}
		}

		if err := tx.UpdateProductQuantity(ctx, productID, product.Quantity-quantity); err != nil {
			return err
		}

		total, err := recomputeTotal(ctx, tx, orderID)
		if err != nil {
			return err
		}
		res.OrderTotal = total
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("allocation timed out: order=%d product=%d qty=%d", orderID, productID, quantity)
			return nil, domain.ErrAllocationTimeout
		}
		if !isBusinessError(err) {
			log.Printf("allocation failed: order=%d product=%d qty=%d: %v", orderID, productID, quantity, err)
		}
		return nil, err
	}

	go s.publishItemAdded(context.Background(), orderID, productID, quantity, res)

	return &res, nil
}

// Recompute rewrites the order's total from its current line items, under the
// order row lock. Idempotent; AddItem already runs the same step inside its
// own transaction.
func (s *AllocationService) Recompute(ctx context.Context, orderID uint64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		order, err := tx.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrOrderNotFound
		}
		total, err = recomputeTotal(ctx, tx, orderID)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// recomputeTotal is the single writer of Order.Total. Exact decimal sum over
// unit_price * quantity; never triggered implicitly by unrelated saves.
func recomputeTotal(ctx context.Context, tx repository.Store, orderID uint64) (decimal.Decimal, error) {
	items, err := tx.ListOrderItems(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	if err := tx.UpdateOrderTotal(ctx, orderID, total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (s *AllocationService) publishItemAdded(ctx context.Context, orderID, productID uint64, quantity int64, res AddItemResult) {
	if s.publisher == nil {
		return
	}
	evt := domain.OrderItemAddedEvent{
		OrderID:      orderID,
		ProductID:    productID,
		Action:       res.Action,
		Quantity:     quantity,
		LineQuantity: res.LineQuantity,
		OrderTotal:   res.OrderTotal,
		AddedAt:      time.Now(),
	}
	if err := s.publisher.Publish(ctx, "order.item_added", evt); err != nil {
		log.Printf("failed to publish order.item_added event: %v", err)
	}
}

// isBusinessError separates expected rejections from storage faults so only
// the latter get logged with full context.
func isBusinessError(err error) bool {
	if _, ok := domain.IsInsufficientStock(err); ok {
		return true
	}
	return errors.Is(err, domain.ErrOrderNotFound) ||
		errors.Is(err, domain.ErrProductNotFound) ||
		errors.Is(err, domain.ErrProductInactive) ||
		errors.Is(err, domain.ErrInvalidQuantity)
}
