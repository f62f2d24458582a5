package shopify

import "time"

type ProductPage struct {
	Items      []ProductDTO `json:"items"`
	NextCursor string       `json:"next_cursor"`
	TotalCount int          `json:"total_count"`
}

type ProductDTO struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	ProductType string     `json:"product_type"`
	Vendor      string     `json:"vendor"`
	Price       string     `json:"price"`
	Archived    bool       `json:"archived"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

type CustomerPage struct {
	Items      []CustomerDTO `json:"items"`
	NextCursor string        `json:"next_cursor"`
	TotalCount int           `json:"total_count"`
}

type CustomerDTO struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	OrdersCount int        `json:"orders_count"`
	TotalSpent  string     `json:"total_spent"`
	LastOrderAt *time.Time `json:"last_order_at"`
	CreatedAt   *time.Time `json:"created_at"`
}

type OrderPage struct {
	Items      []OrderDTO `json:"items"`
	NextCursor string     `json:"next_cursor"`
	TotalCount int        `json:"total_count"`
}

type OrderDTO struct {
	ID                string         `json:"id"`
	OrderNumber       string         `json:"order_number"`
	CustomerID        string         `json:"customer_id"`
	TotalPrice        string         `json:"total_price"`
	FinancialStatus   string         `json:"financial_status"`
	FulfillmentStatus string         `json:"fulfillment_status"`
	ProcessedAt       time.Time      `json:"processed_at"`
	LineItems         []OrderLineDTO `json:"line_items"`
}

type OrderLineDTO struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}
