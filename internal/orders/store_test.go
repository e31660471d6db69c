package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/grovegear/storefront/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() *models.Order {
	return &models.Order{
		ID:            "order-1",
		OrderNumber:   "GG-20260315093045-00042",
		Status:        models.StatusPending,
		Currency:      "USD",
		SubtotalCents: 9600,
		ShippingCents: 599,
		TaxCents:      672,
		TotalCents:    10871,
		Shipping: models.ShippingAddress{
			Name:     "Jane Doe",
			Phone:    "5551234567",
			Address1: "1 Oak St",
			City:     "Austin",
			State:    "TX",
			Postal:   "78701",
			Country:  "US",
		},
		Metadata:  models.OrderMetadata{GuestEmail: "jane@x.com"},
		CreatedAt: time.Now().UTC(),
	}
}

func TestPostgresStoreCreateOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)

	mock.ExpectExec("INSERT INTO orders").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.CreateOrder(context.Background(), testOrder())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCreateOrderNumberCollision(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)

	// ON CONFLICT DO NOTHING reports a collision as zero rows affected.
	mock.ExpectExec("INSERT INTO orders").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = store.CreateOrder(context.Background(), testOrder())
	assert.ErrorIs(t, err, ErrNumberTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCreateOrderFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)

	mock.ExpectExec("INSERT INTO orders").
		WillReturnError(errors.New("connection reset"))

	err = store.CreateOrder(context.Background(), testOrder())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNumberTaken)
}

func TestPostgresStoreCreateItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)

	items := []models.OrderItem{
		{ID: "item-1", OrderID: "order-1", ProductID: "prod-1", SKU: "GG-TRAIL-01",
			Name: "Trail Pack", Quantity: 2, UnitPriceCents: 4800, Currency: "USD"},
		{ID: "item-2", OrderID: "order-1", ProductID: "prod-2", SKU: "GG-TRAIL-02",
			Name: "Trail Strap", Quantity: 1, UnitPriceCents: 1200, Currency: "USD"},
	}

	mock.ExpectExec("INSERT INTO order_items").
		WithArgs("item-1", "order-1", "prod-1", "GG-TRAIL-01", "Trail Pack", 2, int64(4800), "USD", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs("item-2", "order-1", "prod-2", "GG-TRAIL-02", "Trail Strap", 1, int64(1200), "USD", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.CreateItems(context.Background(), items)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCreateEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)

	mock.ExpectExec("INSERT INTO order_events").
		WithArgs("event-1", "order-1", "created", "Order GG-20260315093045-00042 created", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.CreateEvent(context.Background(), &models.OrderEvent{
		ID:        "event-1",
		OrderID:   "order-1",
		Type:      "created",
		Message:   "Order GG-20260315093045-00042 created",
		CreatedAt: time.Now().UTC(),
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func orderRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "order_number", "customer_id", "status", "currency",
		"subtotal_cents", "shipping_cents", "tax_cents", "total_cents",
		"ship_name", "ship_phone", "ship_address1", "ship_address2",
		"ship_city", "ship_state", "ship_postal", "ship_country",
		"source", "notes", "guest_email", "created_at",
	})
}

func TestPostgresStoreGetByNumber(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	created := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE order_number").
		WithArgs("GG-20260315093045-00042").
		WillReturnRows(orderRows().AddRow(
			"order-1", "GG-20260315093045-00042", "", "pending", "USD",
			int64(9600), int64(599), int64(672), int64(10871),
			"Jane Doe", "5551234567", "1 Oak St", "",
			"Austin", "TX", "78701", "US",
			"storefront", "", "jane@x.com", created,
		))
	mock.ExpectQuery("SELECT (.+) FROM order_items WHERE order_id").
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_id", "product_id", "sku", "name", "quantity", "unit_price_cents", "currency", "image_url",
		}).AddRow("item-1", "order-1", "prod-1", "GG-TRAIL-01", "Trail Pack", 2, int64(4800), "USD", ""))

	order, err := store.GetByNumber(context.Background(), "GG-20260315093045-00042")
	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
	assert.True(t, order.Guest())
	assert.Len(t, order.Items, 1)
	assert.Equal(t, int64(4800), order.Items[0].UnitPriceCents)
}

func TestPostgresStoreFindOrdersWithoutItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db)
	cutoff := time.Now().UTC().Add(-5 * time.Minute)

	mock.ExpectQuery("SELECT (.+) FROM orders o").
		WithArgs(cutoff).
		WillReturnRows(orderRows().AddRow(
			"order-9", "GG-20260315080000-00117", "", "pending", "USD",
			int64(4800), int64(599), int64(336), int64(5735),
			"Sam Reed", "5559876543", "9 Pine Rd", "",
			"Dallas", "TX", "75201", "US",
			"", "", "sam@x.com", cutoff.Add(-time.Hour),
		))

	orphans, err := store.FindOrdersWithoutItems(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "order-9", orphans[0].ID)
}
