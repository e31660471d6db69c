package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/grovegear/storefront/pkg/models"
)

// ErrNumberTaken is returned when an insert lost the order_number uniqueness
// race. The service retries once with a fresh number.
var ErrNumberTaken = errors.New("order number already exists")

// Store persists the order aggregate. The three creation writes are issued
// sequentially by the service, each idempotent under retry: inserts are
// keyed on their unique ids and do nothing on conflict.
type Store interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	CreateEvent(ctx context.Context, event *models.OrderEvent) error
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	List(ctx context.Context) ([]*models.Order, error)
	FindOrdersWithoutItems(ctx context.Context, olderThan time.Time) ([]*models.Order, error)
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (
			id, order_number, customer_id, status, currency,
			subtotal_cents, shipping_cents, tax_cents, total_cents,
			ship_name, ship_phone, ship_address1, ship_address2,
			ship_city, ship_state, ship_postal, ship_country,
			source, notes, guest_email, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (order_number) DO NOTHING
	`
	var customerID sql.NullString
	if order.CustomerID != "" {
		customerID = sql.NullString{String: order.CustomerID, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, query,
		order.ID, order.OrderNumber, customerID, order.Status, order.Currency,
		order.SubtotalCents, order.ShippingCents, order.TaxCents, order.TotalCents,
		order.Shipping.Name, order.Shipping.Phone, order.Shipping.Address1, order.Shipping.Address2,
		order.Shipping.City, order.Shipping.State, order.Shipping.Postal, order.Shipping.Country,
		order.Metadata.Source, order.Metadata.Notes, order.Metadata.GuestEmail, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert result: %w", err)
	}
	if affected == 0 {
		return ErrNumberTaken
	}
	return nil
}

func (s *PostgresStore) CreateItems(ctx context.Context, items []models.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, sku, name, quantity, unit_price_cents, currency, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	for _, item := range items {
		_, err := s.db.ExecContext(ctx, query,
			item.ID, item.OrderID, item.ProductID, item.SKU, item.Name,
			item.Quantity, item.UnitPriceCents, item.Currency, item.ImageURL,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateEvent(ctx context.Context, event *models.OrderEvent) error {
	query := `
		INSERT INTO order_events (id, order_id, type, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID, event.OrderID, event.Type, event.Message, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order event: %w", err)
	}
	return nil
}

const orderColumns = `
	id, order_number, COALESCE(customer_id, ''), status, currency,
	subtotal_cents, shipping_cents, tax_cents, total_cents,
	ship_name, ship_phone, ship_address1, ship_address2,
	ship_city, ship_state, ship_postal, ship_country,
	source, notes, guest_email, created_at
`

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	order := &models.Order{}
	err := row.Scan(
		&order.ID, &order.OrderNumber, &order.CustomerID, &order.Status, &order.Currency,
		&order.SubtotalCents, &order.ShippingCents, &order.TaxCents, &order.TotalCents,
		&order.Shipping.Name, &order.Shipping.Phone, &order.Shipping.Address1, &order.Shipping.Address2,
		&order.Shipping.City, &order.Shipping.State, &order.Shipping.Postal, &order.Shipping.Country,
		&order.Metadata.Source, &order.Metadata.Notes, &order.Metadata.GuestEmail, &order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *PostgresStore) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`
	order, err := scanOrder(s.db.QueryRowContext(ctx, query, orderNumber))
	if err != nil {
		return nil, err
	}

	if err := s.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		if err := s.loadItems(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *PostgresStore) loadItems(ctx context.Context, order *models.Order) error {
	query := `
		SELECT id, order_id, product_id, sku, name, quantity, unit_price_cents, currency, image_url
		FROM order_items WHERE order_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.SKU, &item.Name,
			&item.Quantity, &item.UnitPriceCents, &item.Currency, &item.ImageURL,
		)
		if err != nil {
			return err
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

// FindOrdersWithoutItems returns orders old enough to be past any in-flight
// placement that have no line items, the recognized partial-write state.
func (s *PostgresStore) FindOrdersWithoutItems(ctx context.Context, olderThan time.Time) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders o
		WHERE o.created_at < $1
		AND NOT EXISTS (SELECT 1 FROM order_items i WHERE i.order_id = o.id)
		ORDER BY o.created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to query incomplete orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// CreateTables bootstraps the schema on startup.
func CreateTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id VARCHAR(255) PRIMARY KEY,
			sku VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			price_cents BIGINT NOT NULL,
			currency VARCHAR(8) NOT NULL,
			image_url TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id VARCHAR(255) PRIMARY KEY,
			order_number VARCHAR(64) NOT NULL,
			customer_id VARCHAR(255),
			status VARCHAR(32) NOT NULL,
			currency VARCHAR(8) NOT NULL,
			subtotal_cents BIGINT NOT NULL,
			shipping_cents BIGINT NOT NULL,
			tax_cents BIGINT NOT NULL,
			total_cents BIGINT NOT NULL,
			ship_name VARCHAR(255) NOT NULL,
			ship_phone VARCHAR(64) NOT NULL,
			ship_address1 VARCHAR(255) NOT NULL,
			ship_address2 VARCHAR(255) NOT NULL DEFAULT '',
			ship_city VARCHAR(255) NOT NULL,
			ship_state VARCHAR(8) NOT NULL,
			ship_postal VARCHAR(16) NOT NULL,
			ship_country VARCHAR(8) NOT NULL,
			source VARCHAR(255) NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			guest_email VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_order_number ON orders(order_number)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id VARCHAR(255) PRIMARY KEY,
			order_id VARCHAR(255) NOT NULL REFERENCES orders(id),
			product_id VARCHAR(255) NOT NULL,
			sku VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			quantity INTEGER NOT NULL,
			unit_price_cents BIGINT NOT NULL,
			currency VARCHAR(8) NOT NULL,
			image_url TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
		`CREATE TABLE IF NOT EXISTS order_events (
			id VARCHAR(255) PRIMARY KEY,
			order_id VARCHAR(255) NOT NULL REFERENCES orders(id),
			type VARCHAR(64) NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_events_order_id ON order_events(order_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}
