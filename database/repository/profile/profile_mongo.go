package profileRepo

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

// MongoProfileRepo implements ProfileRepository using MongoDB.
type MongoProfileRepo struct {
	statsColl *mongo.Collection
	txnColl   *mongo.Collection
}

// NewMongoProfileRepo creates a new ProfileRepository backed by the
// user_stats and transactions collections.
func NewMongoProfileRepo() ProfileRepository {
	db := database.DB()
	repo := &MongoProfileRepo{
		statsColl: db.Collection("user_stats"),
		txnColl:   db.Collection("transactions"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoProfileRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	statsIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{
			{Key: "seeker_stats.category.category_id", Value: 1},
			{Key: "seeker_stats.city_id", Value: 1},
		}},
	}
	if _, err := r.statsColl.Indexes().CreateMany(ctx, statsIndexes); err != nil {
		return fmt.Errorf("failed to create user_stats indexes: %w", err)
	}

	txnIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "job_id", Value: 1}}},
	}
	if _, err := r.txnColl.Indexes().CreateMany(ctx, txnIndexes); err != nil {
		return fmt.Errorf("failed to create transactions indexes: %w", err)
	}
	return nil
}

// GetByUserID retrieves the stats document for a user.
func (r *MongoProfileRepo) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.UserStats, error) {
	var stats models.UserStats
	if err := r.statsColl.FindOne(ctx, bson.M{"user_id": userID}).Decode(&stats); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch stats for user %s: %w", userID.Hex(), err)
	}
	return &stats, nil
}

// FindSeekerIDs returns the user ids of every seeker registered in the
// given (category, city) pair. Used by the seekers recipient resolver.
func (r *MongoProfileRepo) FindSeekerIDs(ctx context.Context, categoryID, cityID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"seeker_stats.category.category_id": categoryID,
		"seeker_stats.city_id":              cityID,
	}
	opts := options.Find().SetProjection(bson.M{"user_id": 1})

	cursor, err := r.statsColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query seekers: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			UserID primitive.ObjectID `bson:"user_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode seeker id: %w", err)
		}
		ids = append(ids, doc.UserID)
	}
	return ids, nil
}

// ApplyWalletDelta adjusts the wallet balance and writes the signed
// ledger entry. Run inside a session when the caller needs atomicity with
// other writes.
func (r *MongoProfileRepo) ApplyWalletDelta(ctx context.Context, userID primitive.ObjectID, amount float64, description string, jobID *primitive.ObjectID, fb *models.FeeBreakdown) error {
	res, err := r.statsColl.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$inc": bson.M{"seeker_stats.wallet_balance": amount}},
	)
	if err != nil {
		return fmt.Errorf("failed to update wallet for user %s: %w", userID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("stats for user %s not found", userID.Hex())
	}

	txnType := models.TransactionTypeCredit
	if amount < 0 {
		txnType = models.TransactionTypeDebit
	}
	txn := models.Transaction{
		UserID:          userID,
		Amount:          amount,
		TransactionType: txnType,
		Description:     description,
		JobID:           jobID,
		FeeBreakdown:    fb,
		CreatedAt:       time.Now().UTC(),
	}
	if _, err := r.txnColl.InsertOne(ctx, txn); err != nil {
		return fmt.Errorf("failed to record transaction for user %s: %w", userID.Hex(), err)
	}
	return nil
}

// FindJobDebit returns the debit ledger entry a seeker paid for a job.
// Refund paths use it to reverse the exact recorded amount.
func (r *MongoProfileRepo) FindJobDebit(ctx context.Context, userID, jobID primitive.ObjectID) (*models.Transaction, error) {
	filter := bson.M{
		"user_id":          userID,
		"job_id":           jobID,
		"transaction_type": models.TransactionTypeDebit,
	}
	var txn models.Transaction
	if err := r.txnColl.FindOne(ctx, filter).Decode(&txn); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch debit for job %s: %w", jobID.Hex(), err)
	}
	return &txn, nil
}

func (r *MongoProfileRepo) setOccupancy(ctx context.Context, userID primitive.ObjectID, side string, status models.OccupancyStatus) error {
	status.StatusUpdatedAt = time.Now().UTC()
	res, err := r.statsColl.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{side + ".user_status": status}},
	)
	if err != nil {
		return fmt.Errorf("failed to update %s occupancy for user %s: %w", side, userID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("stats for user %s not found", userID.Hex())
	}
	return nil
}

// SetSeekerOccupancy updates the seeker-side occupancy status.
func (r *MongoProfileRepo) SetSeekerOccupancy(ctx context.Context, userID primitive.ObjectID, status models.OccupancyStatus) error {
	return r.setOccupancy(ctx, userID, "seeker_stats", status)
}

// SetProviderOccupancy updates the provider-side occupancy status.
func (r *MongoProfileRepo) SetProviderOccupancy(ctx context.Context, userID primitive.ObjectID, status models.OccupancyStatus) error {
	return r.setOccupancy(ctx, userID, "provider_stats", status)
}

// IncProviderCounter bumps a provider_stats counter such as
// total_jobs_posted or total_jobs_cancelled.
func (r *MongoProfileRepo) IncProviderCounter(ctx context.Context, userID primitive.ObjectID, field string, n int) error {
	_, err := r.statsColl.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$inc": bson.M{"provider_stats." + field: n}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment %s for user %s: %w", field, userID.Hex(), err)
	}
	return nil
}

// RecordSeekerCompletion bumps the seeker's lifetime counters after a
// completed job.
func (r *MongoProfileRepo) RecordSeekerCompletion(ctx context.Context, userID primitive.ObjectID, hours int, earned float64) error {
	_, err := r.statsColl.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$inc": bson.M{
			"seeker_stats.total_jobs_done":    1,
			"seeker_stats.total_hours_worked": hours,
			"seeker_stats.total_earned":       earned,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to record completion for user %s: %w", userID.Hex(), err)
	}
	return nil
}

// UpdateSeekerLocation stores the seeker's latest reported position.
func (r *MongoProfileRepo) UpdateSeekerLocation(ctx context.Context, userID primitive.ObjectID, point models.GeoPoint) error {
	_, err := r.statsColl.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"seeker_stats.current_location": point}},
	)
	if err != nil {
		return fmt.Errorf("failed to update location for user %s: %w", userID.Hex(), err)
	}
	return nil
}

// ApplyRating folds one rating into the aggregate using a pipeline update
// so sum, count and average move together.
func (r *MongoProfileRepo) ApplyRating(ctx context.Context, userID primitive.ObjectID, side string, rating float64) error {
	sum := side + ".sum_ratings"
	count := side + ".total_reviews"
	avg := side + ".avg_rating"

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: sum, Value: bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$" + sum, 0}}}, rating,
			}}}},
			{Key: count, Value: bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$" + count, 0}}}, 1,
			}}}},
		}}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: avg, Value: bson.D{{Key: "$divide", Value: bson.A{"$" + sum, "$" + count}}}},
		}}},
	}

	res, err := r.statsColl.UpdateOne(ctx, bson.M{"user_id": userID}, pipeline)
	if err != nil {
		return fmt.Errorf("failed to apply rating for user %s: %w", userID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("stats for user %s not found", userID.Hex())
	}
	return nil
}
