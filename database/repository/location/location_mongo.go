package locationRepo

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

// MongoLocationRepo implements LocationRepository using MongoDB.
type MongoLocationRepo struct {
	coll *mongo.Collection
}

// NewMongoLocationRepo creates a new LocationRepository.
func NewMongoLocationRepo() LocationRepository {
	repo := &MongoLocationRepo{coll: database.DB().Collection("active_job_locations")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoLocationRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "job_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "seeker_id", Value: 1}, {Key: "status", Value: 1}}},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create location indexes: %w", err)
	}
	return nil
}

// GetByJob returns the location row for a job, nil when absent.
func (r *MongoLocationRepo) GetByJob(ctx context.Context, jobID primitive.ObjectID) (*models.ActiveJobLocation, error) {
	var loc models.ActiveJobLocation
	if err := r.coll.FindOne(ctx, bson.M{"job_id": jobID}).Decode(&loc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch job location %s: %w", jobID.Hex(), err)
	}
	return &loc, nil
}

func (r *MongoLocationRepo) updatePoint(ctx context.Context, jobID primitive.ObjectID, field string, point models.GeoPoint) (bool, error) {
	filter := bson.M{"job_id": jobID, "status": models.JobLocationActive}
	update := bson.M{"$set": bson.M{field: point, "last_updated": time.Now().UTC()}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update %s: %w", field, err)
	}
	return res.MatchedCount > 0, nil
}

// UpdateSeekerPoint writes the seeker's latest position.
func (r *MongoLocationRepo) UpdateSeekerPoint(ctx context.Context, jobID primitive.ObjectID, point models.GeoPoint) (bool, error) {
	return r.updatePoint(ctx, jobID, "seeker_point", point)
}

// UpdateProviderPoint writes the provider's latest position.
func (r *MongoLocationRepo) UpdateProviderPoint(ctx context.Context, jobID primitive.ObjectID, point models.GeoPoint) (bool, error) {
	return r.updatePoint(ctx, jobID, "provider_point", point)
}

// SetStatus flips the row between active and inactive.
func (r *MongoLocationRepo) SetStatus(ctx context.Context, jobID primitive.ObjectID, status string) error {
	update := bson.M{"$set": bson.M{"status": status, "last_updated": time.Now().UTC()}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"job_id": jobID}, update); err != nil {
		return fmt.Errorf("failed to set job location status: %w", err)
	}
	return nil
}
