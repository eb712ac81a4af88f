package http

import (
	"time"

	"order-management/internal/domain"
	"order-management/internal/services"

	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	CustomerID uint64 `json:"customer_id" binding:"required"`
}

type AddItemRequest struct {
	ProductID uint64 `json:"product_id" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required"`
}

type AddItemResponse struct {
	Success      bool            `json:"success"`
	Action       string          `json:"action"`
	LineQuantity int64           `json:"line_quantity"`
	OrderTotal   decimal.Decimal `json:"order_total"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type CreateProductRequest struct {
	Name       string          `json:"name" binding:"required"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	CategoryID uint64          `json:"category_id" binding:"required"`
}

type CreateCategoryRequest struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *uint64 `json:"parent_id"`
}

type SetCategoryParentRequest struct {
	ParentID *uint64 `json:"parent_id"`
}

type CreateCustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Address string `json:"address"`
}

type OrderItemDetail struct {
	ProductID   uint64          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type OrderDetailResponse struct {
	ID            uint64            `json:"id"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	Status        string            `json:"status"`
	Total         decimal.Decimal   `json:"total"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []OrderItemDetail `json:"items"`
}

type StockRow struct {
	ID       uint64          `json:"id"`
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	InStock  bool            `json:"in_stock"`
	LowStock bool            `json:"low_stock"`
	Active   bool            `json:"active"`
}

func newOrderDetailResponse(detail *services.OrderDetail) OrderDetailResponse {
	resp := OrderDetailResponse{
		ID:        detail.Order.ID,
		Status:    string(detail.Order.Status),
		Total:     detail.Order.Total,
		CreatedAt: detail.Order.CreatedAt,
		Items:     make([]OrderItemDetail, 0, len(detail.Order.Items)),
	}
	if detail.Customer != nil {
		resp.CustomerName = detail.Customer.Name
		resp.CustomerEmail = detail.Customer.Email
	}
	for _, item := range detail.Order.Items {
		row := OrderItemDetail{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal(),
		}
		if item.Product != nil {
			row.ProductName = item.Product.Name
		}
		resp.Items = append(resp.Items, row)
	}
	return resp
}

func newStockRows(products []domain.Product) []StockRow {
	rows := make([]StockRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, StockRow{
			ID:       p.ID,
			Name:     p.Name,
			Quantity: p.Quantity,
			Price:    p.Price,
			InStock:  p.InStock(),
			LowStock: p.LowStock(),
			Active:   p.Active,
		})
	}
	return rows
}
