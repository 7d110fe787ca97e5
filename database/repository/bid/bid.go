package bidRepo

import (
	"context"

	"workerlly/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AcceptParams carries everything the single-winner acceptance
// transaction writes. The fee breakdown and OTP are computed by the
// caller before the transaction opens.
type AcceptParams struct {
	Job              *models.Job
	Bid              *models.Bid
	Fee              models.FeeBreakdown
	EstimatedMinutes int
	StartOTP         string
	SeekerPoint      *models.GeoPoint
	ProviderPoint    *models.GeoPoint
}

// AcceptResult reports what the acceptance transaction changed. The
// rejected bidder list drives post-commit notifications.
type AcceptResult struct {
	Job               *models.Job
	RejectedBidderIDs []primitive.ObjectID
}

// BidRepository owns bids and the acceptance transaction.
type BidRepository interface {
	Create(ctx context.Context, bid *models.Bid) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Bid, error)
	ListByJob(ctx context.Context, jobID primitive.ObjectID) ([]models.Bid, error)
	HasPendingBid(ctx context.Context, jobID, seekerID primitive.ObjectID) (bool, error)
	FindAcceptedBid(ctx context.Context, jobID primitive.ObjectID) (*models.Bid, error)

	// AcceptBidTransactionally runs the single-winner assignment. The
	// conditional job update is the only ordering authority: the first
	// caller to flip pending→ongoing wins, every later caller gets
	// ErrAlreadyAssigned.
	AcceptBidTransactionally(ctx context.Context, p AcceptParams) (*AcceptResult, error)
}
