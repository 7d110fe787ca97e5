package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bid statuses. At most one bid per job may ever be accepted.
const (
	BidStatusPending   = "pending"
	BidStatusAccepted  = "accepted"
	BidStatusRejected  = "rejected"
	BidStatusCancelled = "cancelled"
)

// Bid is a seeker's offer on a pending job. Amount is frozen at creation.
type Bid struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	JobID     primitive.ObjectID `bson:"job_id" json:"job_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"` // seeker
	Amount    float64            `bson:"amount" json:"amount"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// BidDetail is the provider-facing bid listing with seeker context joined
// from user stats.
type BidDetail struct {
	ID             string    `json:"id"`
	JobID          string    `json:"job_id"`
	SeekerID       string    `json:"seeker_id"`
	Amount         float64   `json:"amount"`
	Status         string    `json:"status"`
	SeekerName     string    `json:"seeker_name"`
	SeekerCategory string    `json:"seeker_category"`
	StarRating     float64   `json:"star_rating"`
	TotalRatings   int       `json:"total_ratings"`
	CreatedAt      time.Time `json:"created_at"`
}
