package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Job statuses. Transitions are monotone except cancelled, which is
// terminal from pending or ongoing.
const (
	JobStatusPending   = "pending"
	JobStatusOngoing   = "ongoing"
	JobStatusCompleted = "completed"
	JobStatusCancelled = "cancelled"
)

// AddressSnapshot freezes the provider's address at posting time so later
// address edits cannot move an open job.
type AddressSnapshot struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	AddressLine1    string             `bson:"address_line1" json:"address_line1"`
	AddressLine2    string             `bson:"address_line2,omitempty" json:"address_line2,omitempty"`
	ApartmentNumber string             `bson:"apartment_number,omitempty" json:"apartment_number,omitempty"`
	Landmark        string             `bson:"landmark,omitempty" json:"landmark,omitempty"`
	Label           string             `bson:"label" json:"label"`
	Location        GeoPoint           `bson:"location" json:"location"`
	CityID          primitive.ObjectID `bson:"city_id" json:"city_id"`
}

// JobOTP is a 4-digit code gating a lifecycle transition.
type JobOTP struct {
	OTP        string     `bson:"otp" json:"-"`
	Verified   bool       `bson:"verified" json:"verified"`
	VerifiedAt *time.Time `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
}

// PaymentStatus records settlement; it never drives job state.
type PaymentStatus struct {
	Paid   bool       `bson:"paid" json:"paid"`
	Method string     `bson:"method,omitempty" json:"method,omitempty"`
	PaidAt *time.Time `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
}

// RateChange is an hourly_rate_history entry.
type RateChange struct {
	Rate      float64   `bson:"rate" json:"rate"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// JobReview is a review embedded on the job from one side.
type JobReview struct {
	Rating    float64   `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Job is the core work order.
type Job struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	TaskID               string               `bson:"task_id" json:"task_id"`
	UserID               primitive.ObjectID   `bson:"user_id" json:"user_id"` // provider
	Title                string               `bson:"title" json:"title"`
	Description          string               `bson:"description,omitempty" json:"description,omitempty"`
	CategoryID           primitive.ObjectID   `bson:"category_id" json:"category_id"`
	SubCategoryIDs       []primitive.ObjectID `bson:"sub_category_ids" json:"sub_category_ids"`
	AddressID            primitive.ObjectID   `bson:"address_id" json:"address_id"`
	AddressSnapshot      AddressSnapshot      `bson:"address_snapshot" json:"address_snapshot"`
	HourlyRate           float64              `bson:"hourly_rate" json:"hourly_rate"`
	CurrentRate          float64              `bson:"current_rate" json:"current_rate"`
	HourlyRateHistory    []RateChange         `bson:"hourly_rate_history,omitempty" json:"hourly_rate_history,omitempty"`
	EstimatedTimeMinutes int                  `bson:"estimated_time_minutes,omitempty" json:"estimated_time_minutes,omitempty"`
	Status               string               `bson:"status" json:"status"`
	AssignedTo           *primitive.ObjectID  `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	JobBookingTime       *time.Time           `bson:"job_booking_time,omitempty" json:"job_booking_time,omitempty"`
	IsReached            bool                 `bson:"is_reached" json:"is_reached"`
	ReachedAt            *time.Time           `bson:"reached_at,omitempty" json:"reached_at,omitempty"`
	JobStartOTP          *JobOTP              `bson:"job_start_otp,omitempty" json:"job_start_otp,omitempty"`
	JobDoneOTP           *JobOTP              `bson:"job_done_otp,omitempty" json:"job_done_otp,omitempty"`
	TotalHoursWorked     float64              `bson:"total_hours_worked,omitempty" json:"total_hours_worked,omitempty"`
	BillableHours        int                  `bson:"billable_hours,omitempty" json:"billable_hours,omitempty"`
	TotalAmount          float64              `bson:"total_amount,omitempty" json:"total_amount,omitempty"`
	PaymentStatus        PaymentStatus        `bson:"payment_status" json:"payment_status"`
	ProviderReview       *JobReview           `bson:"provider_review,omitempty" json:"provider_review,omitempty"`
	SeekerReview         *JobReview           `bson:"seeker_review,omitempty" json:"seeker_review,omitempty"`
	Reason               string               `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt            time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time            `bson:"updated_at" json:"updated_at"`
}
