package locationRepo

import (
	"context"

	"workerlly/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LocationRepository owns the per-job travel-phase location rows.
type LocationRepository interface {
	// GetByJob returns the location row for a job, nil when absent.
	GetByJob(ctx context.Context, jobID primitive.ObjectID) (*models.ActiveJobLocation, error)

	// UpdateSeekerPoint writes the seeker's latest position on an active
	// row. Returns false when the row is missing or inactive.
	UpdateSeekerPoint(ctx context.Context, jobID primitive.ObjectID, point models.GeoPoint) (bool, error)

	// UpdateProviderPoint writes the provider's latest position on an
	// active row.
	UpdateProviderPoint(ctx context.Context, jobID primitive.ObjectID, point models.GeoPoint) (bool, error)

	// SetStatus flips the row between active and inactive.
	SetStatus(ctx context.Context, jobID primitive.ObjectID, status string) error
}
