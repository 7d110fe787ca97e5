package catalogRepo

import (
	"context"
	"fmt"

	"workerlly/database"
	"workerlly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCatalogRepo implements CatalogRepository using MongoDB.
type MongoCatalogRepo struct {
	categoriesColl *mongo.Collection
	citiesColl     *mongo.Collection
	rateCardsColl  *mongo.Collection
	addressesColl  *mongo.Collection
}

// NewMongoCatalogRepo creates a new CatalogRepository.
func NewMongoCatalogRepo() CatalogRepository {
	db := database.DB()
	return &MongoCatalogRepo{
		categoriesColl: db.Collection("categories"),
		citiesColl:     db.Collection("cities"),
		rateCardsColl:  db.Collection("rate_cards"),
		addressesColl:  db.Collection("addresses"),
	}
}

// GetRateCard returns the rate card for a (category, city) pair.
func (r *MongoCatalogRepo) GetRateCard(ctx context.Context, categoryID, cityID primitive.ObjectID) (*models.RateCard, error) {
	filter := bson.M{"category_id": categoryID, "city_id": cityID}
	var card models.RateCard
	if err := r.rateCardsColl.FindOne(ctx, filter).Decode(&card); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch rate card: %w", err)
	}
	return &card, nil
}

// CategoryName resolves a category id to its display name.
func (r *MongoCatalogRepo) CategoryName(ctx context.Context, categoryID primitive.ObjectID) (string, error) {
	opts := options.FindOne().SetProjection(bson.M{"name": 1})
	var doc struct {
		Name string `bson:"name"`
	}
	if err := r.categoriesColl.FindOne(ctx, bson.M{"_id": categoryID}, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", nil
		}
		return "", fmt.Errorf("failed to fetch category %s: %w", categoryID.Hex(), err)
	}
	return doc.Name, nil
}

// SubCategoryName resolves a sub-category inside its category.
func (r *MongoCatalogRepo) SubCategoryName(ctx context.Context, categoryID, subCategoryID primitive.ObjectID) (string, error) {
	var cat models.Category
	if err := r.categoriesColl.FindOne(ctx, bson.M{"_id": categoryID}).Decode(&cat); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", nil
		}
		return "", fmt.Errorf("failed to fetch category %s: %w", categoryID.Hex(), err)
	}
	for _, sub := range cat.SubCategories {
		if sub.ID == subCategoryID {
			return sub.Name, nil
		}
	}
	return "", nil
}

// CityName resolves a city id to its display name.
func (r *MongoCatalogRepo) CityName(ctx context.Context, cityID primitive.ObjectID) (string, error) {
	opts := options.FindOne().SetProjection(bson.M{"name": 1})
	var doc struct {
		Name string `bson:"name"`
	}
	if err := r.citiesColl.FindOne(ctx, bson.M{"_id": cityID}, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", nil
		}
		return "", fmt.Errorf("failed to fetch city %s: %w", cityID.Hex(), err)
	}
	return doc.Name, nil
}

// GetAddress returns a saved address owned by the user.
func (r *MongoCatalogRepo) GetAddress(ctx context.Context, addressID, userID primitive.ObjectID) (*models.Address, error) {
	filter := bson.M{"_id": addressID, "user_id": userID}
	var addr models.Address
	if err := r.addressesColl.FindOne(ctx, filter).Decode(&addr); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch address %s: %w", addressID.Hex(), err)
	}
	return &addr, nil
}
