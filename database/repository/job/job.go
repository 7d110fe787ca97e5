package jobRepo

import (
	"context"
	"time"

	"workerlly/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RefundSpec instructs a cancellation transaction to credit a seeker the
// exact amount recorded at acceptance. Nil means no financial effect.
type RefundSpec struct {
	SeekerID    primitive.ObjectID
	Amount      float64
	Description string
}

// JobRepository owns the job lifecycle writes. Multi-collection
// transitions (start, complete, cancel) run in Mongo transactions.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Job, error)
	HighestTaskID(ctx context.Context, prefix string) (string, error)

	UpdateHourlyRate(ctx context.Context, jobID, providerID primitive.ObjectID, newRate float64) (*models.Job, error)
	CancelPending(ctx context.Context, jobID, providerID primitive.ObjectID, reason string) (*models.Job, error)
	MarkReached(ctx context.Context, jobID, seekerID primitive.ObjectID) error

	// StartJob verifies the start OTP and activates the work phase: the
	// done OTP is installed and the travel-phase location row retired.
	StartJob(ctx context.Context, jobID, seekerID primitive.ObjectID, startOTP, doneOTP string) (*models.Job, error)

	// CompleteJob verifies the done OTP and settles the job with the
	// precomputed totals, freeing both parties in the same transaction.
	CompleteJob(ctx context.Context, jobID, seekerID primitive.ObjectID, doneOTP string, hoursWorked float64, billableHours int, totalAmount float64) (*models.Job, error)

	// CancelOngoing cancels an ongoing job: bid cancelled, job cancelled
	// with reason, optional refund, both parties freed, location retired.
	CancelOngoing(ctx context.Context, job *models.Job, bid *models.Bid, reason string, refund *RefundSpec) error

	FindOpenJobsBefore(ctx context.Context, cutoff time.Time) ([]models.Job, error)
	SetPaymentStatus(ctx context.Context, jobID primitive.ObjectID, method string) error
	SetReview(ctx context.Context, jobID primitive.ObjectID, field string, review models.JobReview) (bool, error)
}
