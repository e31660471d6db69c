package models

import (
	"time"
)

// OrderStatus is the closed set of order lifecycle states. The main line runs
// pending → processing → paid → packed → shipped → out_for_delivery →
// delivered, with cancellation and refund as side branches.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusProcessing     OrderStatus = "processing"
	StatusPaid           OrderStatus = "paid"
	StatusPacked         OrderStatus = "packed"
	StatusShipped        OrderStatus = "shipped"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCanceled       OrderStatus = "canceled"
	StatusRefunded       OrderStatus = "refunded"
)

var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusProcessing, StatusCanceled},
	StatusProcessing:     {StatusPaid, StatusCanceled},
	StatusPaid:           {StatusPacked, StatusCanceled, StatusRefunded},
	StatusPacked:         {StatusShipped},
	StatusShipped:        {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {StatusRefunded},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusPaid, StatusPacked,
		StatusShipped, StatusOutForDelivery, StatusDelivered,
		StatusCanceled, StatusRefunded:
		return true
	}
	return false
}

// Terminal reports whether no further transition is issued from s by the
// order write path.
func (s OrderStatus) Terminal() bool {
	return s == StatusCanceled || s == StatusRefunded || s == StatusDelivered
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ShippingAddress is the denormalized address snapshot stored on the order.
type ShippingAddress struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postal   string `json:"postal"`
	Country  string `json:"country"`
}

// OrderMetadata holds free-form placement context. GuestEmail is set only
// when the order has no resolved customer.
type OrderMetadata struct {
	Source     string `json:"source,omitempty"`
	Notes      string `json:"notes,omitempty"`
	GuestEmail string `json:"guest_email,omitempty"`
}

type Order struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"order_number"`
	CustomerID    string          `json:"customer_id,omitempty"`
	Status        OrderStatus     `json:"status"`
	Currency      string          `json:"currency"`
	SubtotalCents int64           `json:"subtotal_cents"`
	ShippingCents int64           `json:"shipping_cents"`
	TaxCents      int64           `json:"tax_cents"`
	TotalCents    int64           `json:"total_cents"`
	Shipping      ShippingAddress `json:"shipping"`
	Metadata      OrderMetadata   `json:"metadata"`
	Items         []OrderItem     `json:"items,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Guest reports whether the order was placed without a resolved customer.
func (o *Order) Guest() bool {
	return o.CustomerID == ""
}

// OrderItem is a line item with catalog values snapshotted at order time.
// Later catalog changes never alter historical items.
type OrderItem struct {
	ID             string `json:"id"`
	OrderID        string `json:"order_id"`
	ProductID      string `json:"product_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Currency       string `json:"currency"`
	ImageURL       string `json:"image_url,omitempty"`
}

// OrderEvent is an append-only audit entry for an order.
type OrderEvent struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
