package profileRepo

import (
	"context"

	"workerlly/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileRepository manages user stats (seeker/provider sides) and the
// wallet ledger. Every mutating method accepts the caller's context so it
// composes into a Mongo session when invoked from a transaction.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.UserStats, error)
	FindSeekerIDs(ctx context.Context, categoryID, cityID primitive.ObjectID) ([]primitive.ObjectID, error)

	// ApplyWalletDelta adjusts the seeker wallet and writes the matching
	// signed ledger entry in one go. Amount is signed: debits negative.
	ApplyWalletDelta(ctx context.Context, userID primitive.ObjectID, amount float64, description string, jobID *primitive.ObjectID, fb *models.FeeBreakdown) error
	FindJobDebit(ctx context.Context, userID, jobID primitive.ObjectID) (*models.Transaction, error)

	SetSeekerOccupancy(ctx context.Context, userID primitive.ObjectID, status models.OccupancyStatus) error
	SetProviderOccupancy(ctx context.Context, userID primitive.ObjectID, status models.OccupancyStatus) error

	IncProviderCounter(ctx context.Context, userID primitive.ObjectID, field string, n int) error
	RecordSeekerCompletion(ctx context.Context, userID primitive.ObjectID, hours int, earned float64) error
	UpdateSeekerLocation(ctx context.Context, userID primitive.ObjectID, point models.GeoPoint) error

	// ApplyRating folds one review into the reviewee's aggregate for the
	// given side ("seeker_stats" or "provider_stats").
	ApplyRating(ctx context.Context, userID primitive.ObjectID, side string, rating float64) error
}
