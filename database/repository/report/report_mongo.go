package reportRepo

import (
	"context"
	"fmt"
	"time"

	"workerlly/database"
	"workerlly/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoReportRepo implements ReportRepository using MongoDB.
type MongoReportRepo struct {
	coll *mongo.Collection
}

// NewMongoReportRepo creates a new ReportRepository.
func NewMongoReportRepo() ReportRepository {
	repo := &MongoReportRepo{coll: database.DB().Collection("delivery_reports")}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

func (r *MongoReportRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	model := mongo.IndexModel{
		Keys: bson.D{{Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
	}
	if _, err := r.coll.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("failed to create delivery report index: %w", err)
	}
	return nil
}

// Insert persists a delivery report.
func (r *MongoReportRepo) Insert(ctx context.Context, report *models.DeliveryReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert delivery report: %w", err)
	}
	return nil
}

// EventStats averages success rates per event type since the given time.
func (r *MongoReportRepo) EventStats(ctx context.Context, since time.Time) (map[string]float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"timestamp": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":          "$event_type",
			"success_rate": bson.M{"$avg": "$success_rate"},
		}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate delivery reports: %w", err)
	}
	defer cursor.Close(ctx)

	stats := map[string]float64{}
	for cursor.Next(ctx) {
		var doc struct {
			EventType   string  `bson:"_id"`
			SuccessRate float64 `bson:"success_rate"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode delivery stats: %w", err)
		}
		stats[doc.EventType] = doc.SuccessRate
	}
	return stats, nil
}
