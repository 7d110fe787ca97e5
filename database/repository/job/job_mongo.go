package jobRepo

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

// MongoJobRepo implements JobRepository using MongoDB.
type MongoJobRepo struct {
	jobsColl     *mongo.Collection
	bidsColl     *mongo.Collection
	locationColl *mongo.Collection
	profiles     profileRepo.ProfileRepository
}

// NewMongoJobRepo creates a new JobRepository. The profile repository is
// injected so lifecycle transactions can touch wallets and occupancy
// through the same session context.
func NewMongoJobRepo(profiles profileRepo.ProfileRepository) JobRepository {
	db := database.DB()
	repo := &MongoJobRepo{
		jobsColl:     db.Collection("jobs"),
		bidsColl:     db.Collection("bids"),
		locationColl: db.Collection("active_job_locations"),
		profiles:     profiles,
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoJobRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "task_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "category_id", Value: 1},
			{Key: "address_snapshot.city_id", Value: 1},
		}},
		{Keys: bson.D{{Key: "assigned_to", Value: 1}, {Key: "status", Value: 1}}},
	}

	_, err := r.jobsColl.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create job indexes: %w", err)
	}
	return nil
}

// withTxn runs fn inside a Mongo session transaction.
func (r *MongoJobRepo) withTxn(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	client := r.jobsColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
}

// Create inserts the job and bumps the provider's posted counter in one
// transaction.
func (r *MongoJobRepo) Create(ctx context.Context, job *models.Job) error {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	job.Status = models.JobStatusPending

	return r.withTxn(ctx, func(sc mongo.SessionContext) error {
		res, err := r.jobsColl.InsertOne(sc, job)
		if err != nil {
			return fmt.Errorf("insert job failed: %w", err)
		}
		if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
			job.ID = oid
		}
		if err := r.profiles.IncProviderCounter(sc, job.UserID, "total_jobs_posted", 1); err != nil {
			return err
		}
		return nil
	})
}

// GetByID retrieves a job by id. Returns nil when absent.
func (r *MongoJobRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Job, error) {
	var job models.Job
	if err := r.jobsColl.FindOne(ctx, bson.M{"_id": id}).Decode(&job); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch job %s: %w", id.Hex(), err)
	}
	return &job, nil
}

// ListByUser retrieves every job posted by a provider.
func (r *MongoJobRepo) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Job, error) {
	cursor, err := r.jobsColl.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs for user %s: %w", userID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var jobs []models.Job
	for cursor.Next(ctx) {
		var j models.Job
		if err := cursor.Decode(&j); err != nil {
			return nil, fmt.Errorf("failed to decode job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// HighestTaskID returns the lexically greatest task id carrying the given
// date prefix, or empty when the day has no jobs yet.
func (r *MongoJobRepo) HighestTaskID(ctx context.Context, prefix string) (string, error) {
	filter := bson.M{"task_id": bson.M{"$regex": "^" + prefix}}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "task_id", Value: -1}}).
		SetProjection(bson.M{"task_id": 1})

	var doc struct {
		TaskID string `bson:"task_id"`
	}
	if err := r.jobsColl.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", nil
		}
		return "", fmt.Errorf("failed to query highest task id: %w", err)
	}
	return doc.TaskID, nil
}

// UpdateHourlyRate changes the current rate on a pending job owned by the
// provider and appends to the rate history.
func (r *MongoJobRepo) UpdateHourlyRate(ctx context.Context, jobID, providerID primitive.ObjectID, newRate float64) (*models.Job, error) {
	now := time.Now().UTC()
	filter := bson.M{"_id": jobID, "user_id": providerID, "status": models.JobStatusPending}
	update := bson.M{
		"$set":  bson.M{"current_rate": newRate, "updated_at": now},
		"$push": bson.M{"hourly_rate_history": models.RateChange{Rate: newRate, UpdatedAt: now}},
	}

	res, err := r.jobsColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update hourly rate: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("job %s is not pending or not owned by caller", jobID.Hex())
	}
	return r.GetByID(ctx, jobID)
}

// CancelPending cancels a still-unassigned job and bumps the provider's
// cancelled counter.
func (r *MongoJobRepo) CancelPending(ctx context.Context, jobID, providerID primitive.ObjectID, reason string) (*models.Job, error) {
	var cancelled *models.Job
	err := r.withTxn(ctx, func(sc mongo.SessionContext) error {
		filter := bson.M{"_id": jobID, "user_id": providerID, "status": models.JobStatusPending}
		update := bson.M{"$set": bson.M{
			"status":     models.JobStatusCancelled,
			"reason":     reason,
			"updated_at": time.Now().UTC(),
		}}
		res, err := r.jobsColl.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("failed to cancel job: %w", err)
		}
		if res.MatchedCount == 0 {
			return fmt.Errorf("job %s is not pending or not owned by caller", jobID.Hex())
		}
		if err := r.profiles.IncProviderCounter(sc, providerID, "total_jobs_cancelled", 1); err != nil {
			return err
		}
		job, err := r.GetByID(sc, jobID)
		if err != nil {
			return err
		}
		cancelled = job
		return nil
	})
	return cancelled, err
}

// MarkReached flags the seeker's arrival on an ongoing job. Rejects a
// second call via the is_reached guard in the filter.
func (r *MongoJobRepo) MarkReached(ctx context.Context, jobID, seekerID primitive.ObjectID) error {
	now := time.Now().UTC()
	filter := bson.M{
		"_id":         jobID,
		"assigned_to": seekerID,
		"status":      models.JobStatusOngoing,
		"is_reached":  false,
	}
	update := bson.M{"$set": bson.M{
		"is_reached": true,
		"reached_at": now,
		"updated_at": now,
	}}

	res, err := r.jobsColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark job reached: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("job %s is not ongoing, already reached, or not assigned to caller", jobID.Hex())
	}
	return nil
}

// SetPaymentStatus records settlement from the payment gateway callback.
func (r *MongoJobRepo) SetPaymentStatus(ctx context.Context, jobID primitive.ObjectID, method string) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"payment_status.paid":    true,
		"payment_status.method":  method,
		"payment_status.paid_at": now,
		"updated_at":             now,
	}}
	res, err := r.jobsColl.UpdateOne(ctx, bson.M{"_id": jobID}, update)
	if err != nil {
		return fmt.Errorf("failed to set payment status: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("job %s not found", jobID.Hex())
	}
	return nil
}

// SetReview stores one side's review on a completed job. Returns false
// when that side has already reviewed.
func (r *MongoJobRepo) SetReview(ctx context.Context, jobID primitive.ObjectID, field string, review models.JobReview) (bool, error) {
	filter := bson.M{
		"_id":    jobID,
		"status": models.JobStatusCompleted,
		field:    bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{field: review, "updated_at": time.Now().UTC()}}

	res, err := r.jobsColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to set review: %w", err)
	}
	return res.MatchedCount > 0, nil
}
