package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user may hold. A single account can act on both sides.
const (
	RoleProvider = "provider"
	RoleSeeker   = "seeker"
)

// User is the authentication identity. Status is the seeker's explicit
// online flag; it is flipped off automatically when the wallet drops
// below the admission floor.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Mobile    string             `bson:"mobile" json:"mobile"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Roles     []string           `bson:"roles" json:"roles"`
	Status    bool               `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RateCard bounds hourly rates per (category, city) and anchors the
// minimum-balance admission check.
type RateCard struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CategoryID    primitive.ObjectID `bson:"category_id" json:"category_id"`
	CityID        primitive.ObjectID `bson:"city_id" json:"city_id"`
	MinHourlyRate float64            `bson:"min_hourly_rate" json:"min_hourly_rate"`
	MaxHourlyRate float64            `bson:"max_hourly_rate" json:"max_hourly_rate"`
}

// Address is a provider's saved address; jobs embed a snapshot of it.
type Address struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user_id" json:"user_id"`
	AddressLine1    string             `bson:"address_line1" json:"address_line1"`
	AddressLine2    string             `bson:"address_line2,omitempty" json:"address_line2,omitempty"`
	ApartmentNumber string             `bson:"apartment_number,omitempty" json:"apartment_number,omitempty"`
	Landmark        string             `bson:"landmark,omitempty" json:"landmark,omitempty"`
	Label           string             `bson:"label" json:"label"`
	Location        GeoPoint           `bson:"location" json:"location"`
	CityID          primitive.ObjectID `bson:"city_id" json:"city_id"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}

// Category names feed notification templates.
type Category struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	SubCategories []SubCategory      `bson:"sub_categories,omitempty" json:"sub_categories,omitempty"`
}

// SubCategory is embedded in Category.
type SubCategory struct {
	ID   primitive.ObjectID `bson:"id" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// City resolves city names for notification templates.
type City struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
}
