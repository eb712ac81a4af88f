package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"order-management/internal/domain"
	"order-management/internal/repository"
	"order-management/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

const orderCacheTTL = 10 * time.Second

type Handler struct {
	alloc   *services.AllocationService
	orders  *services.OrderService
	catalog *services.CatalogService
	rdb     *redis.Client
}

func NewHandler(alloc *services.AllocationService, orders *services.OrderService, catalog *services.CatalogService, rdb *redis.Client) *Handler {
	return &Handler{alloc: alloc, orders: orders, catalog: catalog, rdb: rdb}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/orders", h.CreateOrder)
	r.POST("/orders/:orderID/items", h.AddItem)
	r.GET("/orders/:orderID", h.GetOrder)
	r.PATCH("/orders/:orderID/status", h.UpdateOrderStatus)

	r.GET("/products/stock", h.StockReport)
	r.POST("/products", h.CreateProduct)
	r.DELETE("/products/:productID", h.DeleteProduct)

	r.POST("/categories", h.CreateCategory)
	r.PUT("/categories/:categoryID/parent", h.SetCategoryParent)

	r.POST("/customers", h.CreateCustomer)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), req.CustomerID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": order.ID})
}

func (h *Handler) AddItem(c *gin.Context) {
	orderID, ok := parseID(c, "orderID")
	if !ok {
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.alloc.AddItem(c.Request.Context(), orderID, req.ProductID, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.invalidateOrderCache(orderID)

	c.JSON(http.StatusOK, AddItemResponse{
		Success:      true,
		Action:       res.Action,
		LineQuantity: res.LineQuantity,
		OrderTotal:   res.OrderTotal,
	})
}

func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := parseID(c, "orderID")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	cacheKey := orderCacheKey(orderID)

	if h.rdb != nil {
		if cached, err := h.rdb.Get(ctx, cacheKey).Result(); err == nil {
			c.Data(http.StatusOK, "application/json", []byte(cached))
			return
		}
	}

	detail, err := h.orders.GetOrderDetail(ctx, orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := newOrderDetailResponse(detail)

	if h.rdb != nil {
		if data, err := json.Marshal(resp); err == nil {
			h.rdb.Set(ctx, cacheKey, data, orderCacheTTL)
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseID(c, "orderID")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.orders.UpdateStatus(c.Request.Context(), orderID, domain.OrderStatus(req.Status)); err != nil {
		h.respondError(c, err)
		return
	}

	h.invalidateOrderCache(orderID)

	c.JSON(http.StatusOK, gin.H{"success": true, "status": req.Status})
}

func (h *Handler) StockReport(c *gin.Context) {
	lowStock := c.Query("low_stock") == "true"
	outOfStock := c.Query("out_of_stock") == "true"
	if lowStock && outOfStock {
		c.JSON(http.StatusBadRequest, gin.H{"error": "choose either low_stock or out_of_stock"})
		return
	}

	filter := repository.StockAll
	switch {
	case lowStock:
		filter = repository.StockLow
	case outOfStock:
		filter = repository.StockOut
	}

	products, err := h.catalog.StockReport(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": newStockRows(products)})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := &domain.Product{
		Name:       req.Name,
		Quantity:   req.Quantity,
		Price:      req.Price,
		Active:     true,
		CategoryID: req.CategoryID,
	}
	if err := h.catalog.CreateProduct(c.Request.Context(), product); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": product.ID})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	productID, ok := parseID(c, "productID")
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(c.Request.Context(), productID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := &domain.Category{Name: req.Name, ParentID: req.ParentID}
	if err := h.catalog.CreateCategory(c.Request.Context(), category); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": category.ID})
}

func (h *Handler) SetCategoryParent(c *gin.Context) {
	categoryID, ok := parseID(c, "categoryID")
	if !ok {
		return
	}

	var req SetCategoryParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.catalog.SetCategoryParent(c.Request.Context(), categoryID, req.ParentID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) CreateCustomer(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer := &domain.Customer{Name: req.Name, Email: req.Email, Address: req.Address}
	if err := h.catalog.CreateCustomer(c.Request.Context(), customer); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": customer.ID})
}

func (h *Handler) invalidateOrderCache(orderID uint64) {
	if h.rdb != nil {
		h.rdb.Del(context.Background(), orderCacheKey(orderID))
	}
}

func orderCacheKey(orderID uint64) string {
	return "order:detail:" + strconv.FormatUint(orderID, 10)
}

func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

// respondError maps the error taxonomy onto HTTP statuses. Unexpected errors
// come back generic; details stay in the server log.
func (h *Handler) respondError(c *gin.Context, err error) {
	if stockErr, ok := domain.IsInsufficientStock(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock", "available": stockErr.Available})
		return
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrMissingName),
		errors.Is(err, domain.ErrMissingEmail),
		errors.Is(err, domain.ErrProductInactive),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrCyclicHierarchy):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProductReferenced):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAllocationTimeout):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
