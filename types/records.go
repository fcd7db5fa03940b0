package types

import "time"

// Record is implemented by every entity the record store manages.
// The id is immutable after creation.
type Record interface {
	RecordID() string
}

// ProductStatus is the lifecycle status of a product.
type ProductStatus string

// Product statuses.
const (
	ProductActive   ProductStatus = "active"
	ProductDraft    ProductStatus = "draft"
	ProductArchived ProductStatus = "archived"
)

// Product is a sellable item, addressed by SKU in admin commands.
type Product struct {
	ID          string        `json:"id"`
	SKU         string        `json:"sku"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Price       float64       `json:"price"`
	CostPrice   float64       `json:"cost_price,omitempty"`
	Inventory   int           `json:"inventory"`
	Status      ProductStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at,omitzero"`
	UpdatedAt   time.Time     `json:"updated_at,omitzero"`
}

// RecordID implements Record.
func (p Product) RecordID() string { return p.ID }

// OrderStatus is a position in the order lifecycle state machine.
type OrderStatus string

// Order statuses.
const (
	OrderPending           OrderStatus = "pending"
	OrderConfirmed         OrderStatus = "confirmed"
	OrderProcessing        OrderStatus = "processing"
	OrderOnHold            OrderStatus = "on_hold"
	OrderShipped           OrderStatus = "shipped"
	OrderPartiallyShipped  OrderStatus = "partially_shipped"
	OrderDelivered         OrderStatus = "delivered"
	OrderCompleted         OrderStatus = "completed"
	OrderCancelled         OrderStatus = "cancelled"
	OrderRefunded          OrderStatus = "refunded"
	OrderPartiallyRefunded OrderStatus = "partially_refunded"
)

// PaymentStatus tracks whether an order has been charged.
type PaymentStatus string

// Payment statuses.
const (
	PaymentPending           PaymentStatus = "pending"
	PaymentAuthorized        PaymentStatus = "authorized"
	PaymentPaid              PaymentStatus = "paid"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

// FulfillmentStatus tracks whether an order has left the warehouse.
type FulfillmentStatus string

// Fulfillment statuses.
const (
	FulfillmentNone      FulfillmentStatus = "unfulfilled"
	FulfillmentPartial   FulfillmentStatus = "partially_fulfilled"
	FulfillmentFulfilled FulfillmentStatus = "fulfilled"
)

// Order is a customer order, addressed by order number in admin commands.
type Order struct {
	ID          string            `json:"id"`
	OrderNumber string            `json:"order_number"`
	Customer    string            `json:"customer,omitempty"`
	Status      OrderStatus       `json:"status"`
	Payment     PaymentStatus     `json:"payment_status"`
	Fulfillment FulfillmentStatus `json:"fulfillment_status"`
	Total       float64           `json:"total"`
	CreatedAt   time.Time         `json:"created_at,omitzero"`
	UpdatedAt   time.Time         `json:"updated_at,omitzero"`
}

// RecordID implements Record.
func (o Order) RecordID() string { return o.ID }

// Promotion is a discount campaign.
type Promotion struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	DiscountPct float64   `json:"discount_pct"`
	Active      bool      `json:"active"`
	StartsAt    time.Time `json:"starts_at,omitzero"`
	EndsAt      time.Time `json:"ends_at,omitzero"`
}

// RecordID implements Record.
func (p Promotion) RecordID() string { return p.ID }
