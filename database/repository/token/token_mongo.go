package tokenRepo

import (
	"context"
	"fmt"
	"time"

	"workerlly/database"
	"workerlly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTokenRepo implements TokenRepository using MongoDB.
type MongoTokenRepo struct {
	coll *mongo.Collection
}

// NewMongoTokenRepo creates a new TokenRepository.
func NewMongoTokenRepo() TokenRepository {
	repo := &MongoTokenRepo{coll: database.DB().Collection("push_tokens")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoTokenRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "device_id", Value: 1},
				{Key: "app_type", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "token", Value: 1}}},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create push token indexes: %w", err)
	}
	return nil
}

// Upsert registers or refreshes a device token and reactivates it.
func (r *MongoTokenRepo) Upsert(ctx context.Context, token *models.PushToken) error {
	now := time.Now().UTC()
	filter := bson.M{
		"user_id":   token.UserID,
		"device_id": token.DeviceID,
		"app_type":  token.AppType,
	}
	update := bson.M{
		"$set": bson.M{
			"token":        token.Token,
			"platform":     token.Platform,
			"app_version":  token.AppVersion,
			"device_model": token.DeviceModel,
			"is_active":    true,
			"updated_at":   now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}

	if _, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to upsert push token: %w", err)
	}
	return nil
}

// Deactivate retires a single device registration.
func (r *MongoTokenRepo) Deactivate(ctx context.Context, userID primitive.ObjectID, deviceID, appType string) error {
	filter := bson.M{"user_id": userID, "device_id": deviceID, "app_type": appType}
	update := bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}}
	if _, err := r.coll.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to deactivate push token: %w", err)
	}
	return nil
}

// DeactivateByToken retires every registration carrying the token string.
// FCM reports stale tokens by value, not by owner.
func (r *MongoTokenRepo) DeactivateByToken(ctx context.Context, token string) error {
	update := bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}}
	if _, err := r.coll.UpdateMany(ctx, bson.M{"token": token}, update); err != nil {
		return fmt.Errorf("failed to deactivate push token by value: %w", err)
	}
	return nil
}

// ActiveTokens returns active token strings for a user.
func (r *MongoTokenRepo) ActiveTokens(ctx context.Context, userID primitive.ObjectID, appType string) ([]string, error) {
	filter := bson.M{"user_id": userID, "is_active": true}
	if appType != "" {
		filter["app_type"] = appType
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{"token": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to query push tokens: %w", err)
	}
	defer cursor.Close(ctx)

	var tokens []string
	for cursor.Next(ctx) {
		var doc struct {
			Token string `bson:"token"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode push token: %w", err)
		}
		if doc.Token != "" {
			tokens = append(tokens, doc.Token)
		}
	}
	return tokens, nil
}
