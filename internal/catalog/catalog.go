// Package catalog looks up sellable products for checkout pricing.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/grovegear/storefront/internal/errs"
	"github.com/grovegear/storefront/pkg/models"
)

type Store interface {
	// FirstActiveProduct returns the current sellable product. A catalog
	// with zero active products returns CatalogUnavailableError.
	FirstActiveProduct(ctx context.Context) (*models.Product, error)
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FirstActiveProduct(ctx context.Context) (*models.Product, error) {
	query := `
		SELECT id, sku, name, price_cents, currency, image_url, active, created_at
		FROM products WHERE active = true ORDER BY created_at ASC LIMIT 1
	`
	product := &models.Product{}
	err := s.db.QueryRowContext(ctx, query).Scan(
		&product.ID, &product.SKU, &product.Name, &product.PriceCents,
		&product.Currency, &product.ImageURL, &product.Active, &product.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errs.CatalogUnavailableError{Reason: "no active products"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active product: %w", err)
	}
	return product, nil
}
