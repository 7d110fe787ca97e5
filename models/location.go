package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	JobLocationActive   = "active"
	JobLocationInactive = "inactive"
)

// ActiveJobLocation carries the live positions of seeker and provider
// during the travel-to-site phase. One row per job; created on bid
// acceptance, set inactive on start-OTP verification, cancellation or
// completion.
type ActiveJobLocation struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	JobID         primitive.ObjectID `bson:"job_id" json:"job_id"`
	SeekerID      primitive.ObjectID `bson:"seeker_id" json:"seeker_id"`
	ProviderID    primitive.ObjectID `bson:"provider_id" json:"provider_id"`
	SeekerPoint   *GeoPoint          `bson:"seeker_point,omitempty" json:"seeker_point,omitempty"`
	ProviderPoint *GeoPoint          `bson:"provider_point,omitempty" json:"provider_point,omitempty"`
	Status        string             `bson:"status" json:"status"`
	LastUpdated   time.Time          `bson:"last_updated" json:"last_updated"`
}
