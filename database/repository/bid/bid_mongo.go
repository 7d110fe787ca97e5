package bidRepo

import (
	"context"
	"fmt"
	"time"

	"workerlly/database"
	profileRepo "workerlly/database/repository/profile"
	"workerlly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBidRepo implements BidRepository using MongoDB.
type MongoBidRepo struct {
	bidsColl     *mongo.Collection
	jobsColl     *mongo.Collection
	locationColl *mongo.Collection
	profiles     profileRepo.ProfileRepository
}

// NewMongoBidRepo creates a new BidRepository. The profile repository is
// injected so the acceptance transaction can debit the wallet and flip
// occupancy through the same session context.
func NewMongoBidRepo(profiles profileRepo.ProfileRepository) BidRepository {
	db := database.DB()
	repo := &MongoBidRepo{
		bidsColl:     db.Collection("bids"),
		jobsColl:     db.Collection("jobs"),
		locationColl: db.Collection("active_job_locations"),
		profiles:     profiles,
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoBidRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "job_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
	}
	_, err := r.bidsColl.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create bid indexes: %w", err)
	}
	return nil
}

// Create inserts a bid with status pending.
func (r *MongoBidRepo) Create(ctx context.Context, bid *models.Bid) error {
	now := time.Now().UTC()
	bid.Status = models.BidStatusPending
	bid.CreatedAt = now
	bid.UpdatedAt = now

	res, err := r.bidsColl.InsertOne(ctx, bid)
	if err != nil {
		return fmt.Errorf("failed to create bid: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		bid.ID = oid
	}
	return nil
}

// GetByID retrieves a bid by id. Returns nil when absent.
func (r *MongoBidRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Bid, error) {
	var bid models.Bid
	if err := r.bidsColl.FindOne(ctx, bson.M{"_id": id}).Decode(&bid); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch bid %s: %w", id.Hex(), err)
	}
	return &bid, nil
}

// ListByJob retrieves every bid placed on a job.
func (r *MongoBidRepo) ListByJob(ctx context.Context, jobID primitive.ObjectID) ([]models.Bid, error) {
	cursor, err := r.bidsColl.Find(ctx, bson.M{"job_id": jobID})
	if err != nil {
		return nil, fmt.Errorf("failed to list bids for job %s: %w", jobID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var bids []models.Bid
	for cursor.Next(ctx) {
		var b models.Bid
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("failed to decode bid: %w", err)
		}
		bids = append(bids, b)
	}
	return bids, nil
}

// HasPendingBid reports whether the seeker already has a pending bid on
// the job.
func (r *MongoBidRepo) HasPendingBid(ctx context.Context, jobID, seekerID primitive.ObjectID) (bool, error) {
	filter := bson.M{"job_id": jobID, "user_id": seekerID, "status": models.BidStatusPending}
	count, err := r.bidsColl.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check pending bid: %w", err)
	}
	return count > 0, nil
}

// FindAcceptedBid returns the accepted bid on a job, nil when none.
func (r *MongoBidRepo) FindAcceptedBid(ctx context.Context, jobID primitive.ObjectID) (*models.Bid, error) {
	filter := bson.M{"job_id": jobID, "status": models.BidStatusAccepted}
	var bid models.Bid
	if err := r.bidsColl.FindOne(ctx, filter).Decode(&bid); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch accepted bid for job %s: %w", jobID.Hex(), err)
	}
	return &bid, nil
}
