package reportRepo

import (
	"context"
	"time"

	"workerlly/models"
)

// ReportRepository persists notification delivery reports for analytics.
type ReportRepository interface {
	Insert(ctx context.Context, report *models.DeliveryReport) error

	// EventStats aggregates success rates per event type since the given
	// time. Keys are event types, values the mean success rate.
	EventStats(ctx context.Context, since time.Time) (map[string]float64, error)
}
