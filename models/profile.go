package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Occupancy states for a seeker or provider inside user stats.
const (
	UserStatusFree     = "free"
	UserStatusOccupied = "occupied"
)

// OccupancyStatus ties a user to at most one ongoing job. It is a
// back-reference, never the ownership edge.
type OccupancyStatus struct {
	CurrentStatus   string              `bson:"current_status" json:"current_status"`
	CurrentJobID    *primitive.ObjectID `bson:"current_job_id,omitempty" json:"current_job_id,omitempty"`
	Reason          string              `bson:"reason,omitempty" json:"reason,omitempty"`
	StatusUpdatedAt time.Time           `bson:"status_updated_at" json:"status_updated_at"`
}

// SeekerCategory is the single work category a seeker serves.
type SeekerCategory struct {
	CategoryID   primitive.ObjectID `bson:"category_id" json:"category_id"`
	CategoryName string             `bson:"category_name" json:"category_name"`
}

// SeekerStats carries wallet, occupancy and lifetime counters for the
// seeker side of a user.
type SeekerStats struct {
	Category         SeekerCategory     `bson:"category" json:"category"`
	CityID           primitive.ObjectID `bson:"city_id" json:"city_id"`
	CurrentLocation  *GeoPoint          `bson:"current_location,omitempty" json:"current_location,omitempty"`
	WalletBalance    float64            `bson:"wallet_balance" json:"wallet_balance"`
	UserStatus       OccupancyStatus    `bson:"user_status" json:"user_status"`
	TotalJobsDone    int                `bson:"total_jobs_done" json:"total_jobs_done"`
	TotalHoursWorked int                `bson:"total_hours_worked" json:"total_hours_worked"`
	TotalEarned      float64            `bson:"total_earned" json:"total_earned"`
	AvgRating        float64            `bson:"avg_rating" json:"avg_rating"`
	TotalReviews     int                `bson:"total_reviews" json:"total_reviews"`
	SumRatings       float64            `bson:"sum_ratings" json:"sum_ratings"`
}

// ProviderStats carries lifetime counters for the provider side.
type ProviderStats struct {
	CityID             primitive.ObjectID `bson:"city_id,omitempty" json:"city_id,omitempty"`
	UserStatus         OccupancyStatus    `bson:"user_status" json:"user_status"`
	TotalJobsPosted    int                `bson:"total_jobs_posted" json:"total_jobs_posted"`
	TotalJobsCancelled int                `bson:"total_jobs_cancelled" json:"total_jobs_cancelled"`
	TotalSpent         float64            `bson:"total_spent" json:"total_spent"`
	AvgRating          float64            `bson:"avg_rating" json:"avg_rating"`
	TotalReviews       int                `bson:"total_reviews" json:"total_reviews"`
	SumRatings         float64            `bson:"sum_ratings" json:"sum_ratings"`
}

// PersonalInfo is the displayable identity slice of user stats.
type PersonalInfo struct {
	Name   string `bson:"name" json:"name"`
	Mobile string `bson:"mobile,omitempty" json:"mobile,omitempty"`
}

// UserStats is the per-user profile document keyed by user_id. A user may
// act as seeker, provider or both; the unused side stays zero-valued.
type UserStats struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	PersonalInfo  PersonalInfo       `bson:"personal_info" json:"personal_info"`
	SeekerStats   *SeekerStats       `bson:"seeker_stats,omitempty" json:"seeker_stats,omitempty"`
	ProviderStats *ProviderStats     `bson:"provider_stats,omitempty" json:"provider_stats,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
