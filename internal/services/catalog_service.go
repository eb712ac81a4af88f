package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"order-management/internal/domain"
	"order-management/internal/repository"

	"github.com/go-redis/redis/v8"
)

// maxCategoryDepth bounds the ancestor walk so an already-corrupt tree cannot
// loop the request forever.
const maxCategoryDepth = 100

const stockCacheTTL = 10 * time.Second

// CatalogService covers products, categories and customers. None of it runs
// on the allocation hot path.
type CatalogService struct {
	store       repository.Store
	redisClient *redis.Client
}

func NewCatalogService(store repository.Store) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

func (s *CatalogService) CreateProduct(ctx context.Context, product *domain.Product) error {
	if product.Name == "" {
		return domain.ErrMissingName
	}
	if product.Quantity < 0 {
		return domain.ErrInvalidQuantity
	}
	if product.Price.IsNegative() {
		return domain.ErrInvalidPrice
	}
	category, err := s.store.FindCategory(ctx, product.CategoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return domain.ErrCategoryNotFound
	}
	return s.store.CreateProduct(ctx, product)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, productID uint64) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		return tx.DeleteProduct(ctx, productID)
	})
}

// StockReport lists products by stock level, served from a short-lived redis
// cache when one is configured. Staleness is bounded by the TTL.
func (s *CatalogService) StockReport(ctx context.Context, filter repository.StockFilter) ([]domain.Product, error) {
	cacheKey := stockCacheKey(filter)

	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var products []domain.Product
			if err := json.Unmarshal([]byte(cached), &products); err == nil {
				return products, nil
			}
		}
	}

	products, err := s.store.ListProductsByStock(ctx, filter)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(products); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, stockCacheTTL)
		}
	}

	return products, nil
}

// WarmupStockCache primes the stock report cache at startup.
func (s *CatalogService) WarmupStockCache(ctx context.Context) error {
	if s.redisClient == nil {
		return nil
	}
	for _, filter := range []repository.StockFilter{repository.StockAll, repository.StockLow, repository.StockOut} {
		if _, err := s.StockReport(ctx, filter); err != nil {
			log.Printf("failed to warm up stock cache for filter %d: %v", filter, err)
			return err
		}
	}
	return nil
}

func stockCacheKey(filter repository.StockFilter) string {
	return fmt.Sprintf("stock:report:%d", filter)
}

func (s *CatalogService) CreateCategory(ctx context.Context, category *domain.Category) error {
	if category.Name == "" {
		return domain.ErrMissingName
	}
	if category.ParentID != nil {
		parent, err := s.store.FindCategory(ctx, *category.ParentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return domain.ErrCategoryNotFound
		}
	}
	return s.store.CreateCategory(ctx, category)
}

// SetCategoryParent reassigns a category's parent after walking the proposed
// parent's ancestor chain. The walk keeps a visited set and a depth bound, so
// it terminates even on corrupt data; finding the category itself anywhere in
// the chain is a cycle and leaves the tree unchanged.
func (s *CatalogService) SetCategoryParent(ctx context.Context, categoryID uint64, parentID *uint64) error {
	category, err := s.store.FindCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return domain.ErrCategoryNotFound
	}

	if parentID != nil {
		if err := s.checkAncestry(ctx, categoryID, *parentID); err != nil {
			return err
		}
	}

	return s.store.UpdateCategoryParent(ctx, categoryID, parentID)
}

func (s *CatalogService) checkAncestry(ctx context.Context, categoryID, parentID uint64) error {
	seen := map[uint64]bool{categoryID: true}
	current := parentID
	for depth := 0; depth < maxCategoryDepth; depth++ {
		if seen[current] {
			return domain.ErrCyclicHierarchy
		}
		seen[current] = true

		node, err := s.store.FindCategory(ctx, current)
		if err != nil {
			return err
		}
		if node == nil {
			return domain.ErrCategoryNotFound
		}
		if node.ParentID == nil {
			return nil
		}
		current = *node.ParentID
	}
	// depth bound exceeded without reaching a root: treat as cyclic
	return domain.ErrCyclicHierarchy
}

func (s *CatalogService) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	if customer.Name == "" {
		return domain.ErrMissingName
	}
	if customer.Email == "" {
		return domain.ErrMissingEmail
	}
	return s.store.CreateCustomer(ctx, customer)
}
