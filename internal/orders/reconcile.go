package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grovegear/storefront/pkg/models"
	"github.com/sirupsen/logrus"
)

// Reconciler scans for the recognized partial-write state: an order row that
// exists with no line items. It detects and reports; compensation is left to
// the operator reviewing the result.
type Reconciler struct {
	store  Store
	logger *logrus.Logger
	config ReconcileConfig
}

type ReconcileConfig struct {
	// MinAge keeps in-flight placements out of the scan.
	MinAge time.Duration
}

type ReconcileResult struct {
	ScannedAt  time.Time         `json:"scanned_at"`
	Incomplete []IncompleteOrder `json:"incomplete_orders"`
	Count      int               `json:"count"`
	Duration   time.Duration     `json:"duration"`
}

type IncompleteOrder struct {
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	Status      models.OrderStatus `json:"status"`
	TotalCents  int64              `json:"total_cents"`
	CreatedAt   time.Time          `json:"created_at"`
}

func NewReconciler(store Store, logger *logrus.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		logger: logger,
		config: ReconcileConfig{
			MinAge: 5 * time.Minute,
		},
	}
}

func (r *Reconciler) SetConfig(config ReconcileConfig) {
	r.config = config
}

// Run scans for itemless orders and flags each with an audit event.
func (r *Reconciler) Run(ctx context.Context) (*ReconcileResult, error) {
	start := time.Now()
	r.logger.Info("Starting partial-write reconciliation scan")

	cutoff := start.Add(-r.config.MinAge)
	orphans, err := r.store.FindOrdersWithoutItems(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("reconciliation scan failed: %w", err)
	}

	result := &ReconcileResult{
		ScannedAt:  start,
		Incomplete: []IncompleteOrder{},
	}

	for _, order := range orphans {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		result.Incomplete = append(result.Incomplete, IncompleteOrder{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Status:      order.Status,
			TotalCents:  order.TotalCents,
			CreatedAt:   order.CreatedAt,
		})

		event := &models.OrderEvent{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			Type:      "reconcile_flagged",
			Message:   fmt.Sprintf("Order %s has no line items", order.OrderNumber),
			CreatedAt: time.Now().UTC(),
		}
		if err := r.store.CreateEvent(ctx, event); err != nil {
			r.logger.WithError(err).WithField("order_id", order.ID).Warn("Failed to flag incomplete order")
		}
	}

	result.Count = len(result.Incomplete)
	result.Duration = time.Since(start)

	r.logger.WithFields(logrus.Fields{
		"incomplete": result.Count,
		"duration":   result.Duration,
	}).Info("Reconciliation scan completed")

	return result, nil
}
