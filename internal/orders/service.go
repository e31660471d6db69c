package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grovegear/storefront/internal/catalog"
	"github.com/grovegear/storefront/internal/errs"
	"github.com/grovegear/storefront/internal/events"
	"github.com/grovegear/storefront/internal/identity"
	"github.com/grovegear/storefront/pkg/models"
	"github.com/sirupsen/logrus"
)

// TokenResolver maps an optional identity token to Identified or Guest.
type TokenResolver interface {
	Resolve(token string) identity.Resolution
}

// EventPublisher pushes the order-created event downstream. Publication is
// best-effort and never fails a placement.
type EventPublisher interface {
	PublishOrderCreated(event events.OrderCreatedEvent) error
}

// FeedBroadcaster pushes placements to the live operational feed.
type FeedBroadcaster interface {
	Broadcast(event string, data interface{})
}

type Service struct {
	store     Store
	catalog   catalog.Store
	resolver  TokenResolver
	pricing   Pricing
	publisher EventPublisher
	feed      FeedBroadcaster
	logger    *logrus.Logger
}

func NewService(store Store, catalogStore catalog.Store, resolver TokenResolver, pricing Pricing, logger *logrus.Logger) *Service {
	return &Service{
		store:    store,
		catalog:  catalogStore,
		resolver: resolver,
		pricing:  pricing,
		logger:   logger,
	}
}

func (s *Service) SetPublisher(p EventPublisher) {
	s.publisher = p
}

func (s *Service) SetFeed(f FeedBroadcaster) {
	s.feed = f
}

// PlaceRequest is the checkout request body. UserID carries the optional
// identity token; failure to resolve it degrades to guest checkout.
type PlaceRequest struct {
	Shipping ShippingDetails `json:"shipping"`
	Quantity int             `json:"quantity,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Source   string          `json:"source,omitempty"`
	Notes    string          `json:"notes,omitempty"`
}

type PlaceResult struct {
	Order  *models.Order `json:"order"`
	Totals Totals        `json:"totals"`
}

// Place validates, prices and durably records a checkout. Writes are issued
// in sequence: order row, item rows, created event. An item-write failure
// after the order row exists surfaces as a PersistenceError carrying the
// partial order id; a failed event write is logged and never fails the call.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	shipping := normalizeShipping(req.Shipping)
	if verr := validateShipping(shipping); verr != nil {
		return nil, verr
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	var customerID, guestEmail string
	switch res := s.resolver.Resolve(req.UserID).(type) {
	case identity.Identified:
		customerID = res.CustomerID
	case identity.Guest:
		guestEmail = shipping.Email
	}

	product, err := s.catalog.FirstActiveProduct(ctx)
	if err != nil {
		var cu *errs.CatalogUnavailableError
		if errors.As(err, &cu) {
			return nil, err
		}
		return nil, &errs.PersistenceError{Op: "look up catalog", Err: err}
	}

	totals := s.pricing.Quote(product.PriceCents, quantity)
	now := time.Now().UTC()

	order := &models.Order{
		ID:            uuid.New().String(),
		OrderNumber:   NewOrderNumber(now),
		CustomerID:    customerID,
		Status:        models.StatusPending,
		Currency:      s.pricing.Currency,
		SubtotalCents: totals.SubtotalCents,
		ShippingCents: totals.ShippingCents,
		TaxCents:      totals.TaxCents,
		TotalCents:    totals.TotalCents,
		Shipping: models.ShippingAddress{
			Name:     shipping.Name,
			Phone:    shipping.Phone,
			Address1: shipping.Address1,
			Address2: shipping.Address2,
			City:     shipping.City,
			State:    shipping.State,
			Postal:   shipping.Postal,
			Country:  shipping.Country,
		},
		Metadata: models.OrderMetadata{
			Source:     req.Source,
			Notes:      req.Notes,
			GuestEmail: guestEmail,
		},
		CreatedAt: now,
	}

	if err := s.createOrderWithRetry(ctx, order); err != nil {
		return nil, err
	}

	item := models.OrderItem{
		ID:             uuid.New().String(),
		OrderID:        order.ID,
		ProductID:      product.ID,
		SKU:            product.SKU,
		Name:           product.Name,
		Quantity:       quantity,
		UnitPriceCents: product.PriceCents,
		Currency:       s.pricing.Currency,
		ImageURL:       product.ImageURL,
	}
	if err := s.store.CreateItems(ctx, []models.OrderItem{item}); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
		}).Error("Order items write failed, order left pending without items")
		return nil, &errs.PersistenceError{Op: "create order items", OrderID: order.ID, Err: err}
	}
	order.Items = []models.OrderItem{item}

	event := &models.OrderEvent{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		Type:      "created",
		Message:   fmt.Sprintf("Order %s created", order.OrderNumber),
		CreatedAt: now,
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		// Best-effort audit trail, never fails the placement.
		s.logger.WithError(err).WithField("order_id", order.ID).Error("Failed to write created event")
	}

	s.publishCreated(order)

	s.logger.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total_cents":  order.TotalCents,
		"guest":        order.Guest(),
	}).Info("Order placed")

	return &PlaceResult{Order: order, Totals: totals}, nil
}

// createOrderWithRetry regenerates the order number exactly once when the
// unique index reports a collision.
func (s *Service) createOrderWithRetry(ctx context.Context, order *models.Order) error {
	err := s.store.CreateOrder(ctx, order)
	if errors.Is(err, ErrNumberTaken) {
		s.logger.WithField("order_number", order.OrderNumber).Warn("Order number collision, retrying with a fresh number")
		order.OrderNumber = NewOrderNumber(time.Now().UTC())
		err = s.store.CreateOrder(ctx, order)
	}
	if err != nil {
		return &errs.PersistenceError{Op: "create order", Err: err}
	}
	return nil
}

func (s *Service) publishCreated(order *models.Order) {
	if s.publisher != nil {
		event := events.OrderCreatedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			CustomerID:  order.CustomerID,
			Guest:       order.Guest(),
			TotalCents:  order.TotalCents,
			Currency:    order.Currency,
			CreatedAt:   order.CreatedAt,
		}
		if err := s.publisher.PublishOrderCreated(event); err != nil {
			s.logger.WithError(err).WithField("order_id", order.ID).Error("Failed to publish order created event")
		}
	}

	if s.feed != nil {
		s.feed.Broadcast("order_created", order)
	}
}

// GetByNumber returns an order by its external handle.
func (s *Service) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return s.store.GetByNumber(ctx, orderNumber)
}

// List returns all orders, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Order, error) {
	return s.store.List(ctx)
}
