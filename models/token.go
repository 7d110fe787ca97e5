package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AppTypeProvider = "provider"
	AppTypeSeeker   = "seeker"
)

// PushToken is one device's FCM registration. (user_id, device_id,
// app_type) is unique; failed tokens are deactivated, never deleted.
type PushToken struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	DeviceID    string             `bson:"device_id" json:"device_id"`
	AppType     string             `bson:"app_type" json:"app_type"`
	Platform    string             `bson:"platform" json:"platform"` // "android" or "ios"
	Token       string             `bson:"token" json:"token"`
	AppVersion  string             `bson:"app_version,omitempty" json:"app_version,omitempty"`
	DeviceModel string             `bson:"device_model,omitempty" json:"device_model,omitempty"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
