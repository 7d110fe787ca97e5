package catalogRepo

import (
	"context"

	"workerlly/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogRepository serves the read-mostly reference data: categories,
// cities, rate cards and saved addresses.
type CatalogRepository interface {
	// GetRateCard returns the rate card for a (category, city) pair,
	// nil when the pair has no card.
	GetRateCard(ctx context.Context, categoryID, cityID primitive.ObjectID) (*models.RateCard, error)

	// CategoryName resolves a category id to its display name.
	CategoryName(ctx context.Context, categoryID primitive.ObjectID) (string, error)

	// SubCategoryName resolves a sub-category inside its category.
	SubCategoryName(ctx context.Context, categoryID, subCategoryID primitive.ObjectID) (string, error)

	// CityName resolves a city id to its display name.
	CityName(ctx context.Context, cityID primitive.ObjectID) (string, error)

	// GetAddress returns a saved address owned by the user, nil when
	// absent or owned by someone else.
	GetAddress(ctx context.Context, addressID, userID primitive.ObjectID) (*models.Address, error)
}
