package mysql

import (
	"context"
	"errors"
	"log"

	"order-management/internal/domain"
	"order-management/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) repository.Store {
	return &store{db: db}
}

func (s *store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&store{db: tx})
	})
}

// forUpdate adds SELECT ... FOR UPDATE. SQLite has no row locks; its single
// writer already serializes transactions, so the clause is skipped there.
func (s *store) forUpdate() *gorm.DB {
	if s.db.Dialector.Name() == "sqlite" {
		return s.db
	}
	return s.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (s *store) CreateOrder(ctx context.Context, order *domain.Order) error {
	result := s.db.WithContext(ctx).Create(order)
	if result.Error != nil {
		log.Printf("CreateOrder error: %v", result.Error)
		return result.Error
	}
	if order.ID == 0 {
		return errors.New("failed to assign order ID")
	}
	return nil
}

func (s *store) FindOrder(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	if err := s.db.WithContext(ctx).First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("FindOrder error: %v", err)
		return nil, err
	}
	return &o, nil
}

func (s *store) FindOrderWithItems(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("Items.Product").
		First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("FindOrderWithItems error: %v", err)
		return nil, err
	}
	return &o, nil
}

func (s *store) FindOrderForUpdate(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	if err := s.forUpdate().WithContext(ctx).First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("FindOrderForUpdate error: %v", err)
		return nil, err
	}
	return &o, nil
}

func (s *store) UpdateOrderStatus(ctx context.Context, id uint64, status domain.OrderStatus) error {
	return s.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (s *store) UpdateOrderTotal(ctx context.Context, id uint64, total decimal.Decimal) error {
	return s.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Update("total", total).Error
}

func (s *store) FindOrderItem(ctx context.Context, orderID, productID uint64) (*domain.OrderItem, error) {
	var item domain.OrderItem
	err := s.db.WithContext(ctx).
		Where("order_id = ? AND product_id = ?", orderID, productID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("FindOrderItem error: %v", err)
		return nil, err
	}
	return &item, nil
}

func (s *store) ListOrderItems(ctx context.Context, orderID uint64) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id").
		Find(&items).Error
	if err != nil {
		log.Printf("ListOrderItems error: %v", err)
		return nil, err
	}
	return items, nil
}

func (s *store) CreateOrderItem(ctx context.Context, item *domain.OrderItem) error {
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		log.Printf("CreateOrderItem error: %v", err)
		return err
	}
	return nil
}

func (s *store) UpdateOrderItemQuantity(ctx context.Context, id uint64, quantity int64) error {
	return s.db.WithContext(ctx).
		Model(&domain.OrderItem{}).
		Where("id = ?", id).
		Update("quantity", quantity).Error
}

func (s *store) CreateProduct(ctx context.Context, product *domain.Product) error {
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		log.Printf("CreateProduct error: %v", err)
		return err
	}
	return nil
}

func (s *store) FindProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	var p domain.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("FindProduct error: %v", err)
		return nil, err
	}
	return &p, nil
}

func (s *store) FindProductForUpdate(ctx context.Context, id uint64) (*domain.Product, error) {
	var p domain.Product
	if err := s.forUpdate().WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("FindProductForUpdate error: %v", err)
		return nil, err
	}
	return &p, nil
}

func (s *store) UpdateProductQuantity(ctx context.Context, id uint64, quantity int64) error {
	return s.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Update("quantity", quantity).Error
}

// DeleteProduct refuses to remove a product that any order item references,
// so historical order data survives. Callers run it inside InTx so the
// reference check and the delete see the same state.
func (s *store) DeleteProduct(ctx context.Context, id uint64) error {
	var refs int64
	err := s.db.WithContext(ctx).
		Model(&domain.OrderItem{}).
		Where("product_id = ?", id).
		Count(&refs).Error
	if err != nil {
		log.Printf("DeleteProduct count error: %v", err)
		return err
	}
	if refs > 0 {
		return domain.ErrProductReferenced
	}
	result := s.db.WithContext(ctx).Delete(&domain.Product{}, id)
	if result.Error != nil {
		log.Printf("DeleteProduct error: %v", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (s *store) ListProductsByStock(ctx context.Context, filter repository.StockFilter) ([]domain.Product, error) {
	q := s.db.WithContext(ctx).Order("id")
	switch filter {
	case repository.StockLow:
		q = q.Where("quantity > 0 AND quantity <= ?", domain.LowStockThreshold)
	case repository.StockOut:
		q = q.Where("quantity = 0")
	}
	var products []domain.Product
	if err := q.Find(&products).Error; err != nil {
		log.Printf("ListProductsByStock error: %v", err)
		return nil, err
	}
	return products, nil
}

func (s *store) CreateCategory(ctx context.Context, category *domain.Category) error {
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		log.Printf("CreateCategory error: %v", err)
		return err
	}
	return nil
}

func (s *store) FindCategory(ctx context.Context, id uint64) (*domain.Category, error) {
	var c domain.Category
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("FindCategory error: %v", err)
		return nil, err
	}
	return &c, nil
}

func (s *store) UpdateCategoryParent(ctx context.Context, id uint64, parentID *uint64) error {
	return s.db.WithContext(ctx).
		Model(&domain.Category{}).
		Where("id = ?", id).
		Update("parent_id", parentID).Error
}

func (s *store) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	if err := s.db.WithContext(ctx).Create(customer).Error; err != nil {
		log.Printf("CreateCustomer error: %v", err)
		return err
	}
	return nil
}

func (s *store) FindCustomer(ctx context.Context, id uint64) (*domain.Customer, error) {
	var c domain.Customer
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("FindCustomer error: %v", err)
		return nil, err
	}
	return &c, nil
}
