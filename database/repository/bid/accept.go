package bidRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workerlly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrAlreadyAssigned is returned when the conditional job update matches
// nothing: a concurrent acceptance won the race.
var ErrAlreadyAssigned = errors.New("Failed to update job. It may already be assigned.")

// AcceptBidTransactionally runs the single-winner assignment inside one
// Mongo transaction. Notifications and cache eviction belong to the
// caller and must happen only after this commits.
func (r *MongoBidRepo) AcceptBidTransactionally(ctx context.Context, p AcceptParams) (*AcceptResult, error) {
	client := r.bidsColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	result := &AcceptResult{}

	txnFn := func(sc mongo.SessionContext) error {
		now := time.Now().UTC()
		jobID := p.Job.ID
		seekerID := p.Bid.UserID
		providerID := p.Job.UserID

		// The conditional update is the only ordering authority: zero
		// matches means another acceptance committed first.
		jobFilter := bson.M{
			"_id":         jobID,
			"status":      models.JobStatusPending,
			"assigned_to": nil,
		}
		jobUpdate := bson.M{"$set": bson.M{
			"status":                 models.JobStatusOngoing,
			"assigned_to":            seekerID,
			"current_rate":           p.Bid.Amount,
			"job_booking_time":       now,
			"job_start_otp":          models.JobOTP{OTP: p.StartOTP, Verified: false},
			"estimated_time_minutes": p.EstimatedMinutes,
			"updated_at":             now,
		}}
		res, err := r.jobsColl.UpdateOne(sc, jobFilter, jobUpdate)
		if err != nil {
			return fmt.Errorf("failed to assign job: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrAlreadyAssigned
		}

		// Collect the losers before flipping them so the caller can
		// notify each rejected bidder after commit.
		loserFilter := bson.M{
			"$or": bson.A{
				bson.M{"job_id": jobID},
				bson.M{"user_id": seekerID, "status": models.BidStatusPending},
			},
			"_id": bson.M{"$ne": p.Bid.ID},
		}
		cursor, err := r.bidsColl.Find(sc, loserFilter,
			options.Find().SetProjection(bson.M{"user_id": 1, "job_id": 1}))
		if err != nil {
			return fmt.Errorf("failed to query losing bids: %w", err)
		}
		seen := map[primitive.ObjectID]bool{}
		for cursor.Next(sc) {
			var doc struct {
				UserID primitive.ObjectID `bson:"user_id"`
				JobID  primitive.ObjectID `bson:"job_id"`
			}
			if err := cursor.Decode(&doc); err != nil {
				cursor.Close(sc)
				return fmt.Errorf("failed to decode losing bid: %w", err)
			}
			// Only bidders on this job get a rejection notice.
			if doc.JobID == jobID && !seen[doc.UserID] {
				seen[doc.UserID] = true
				result.RejectedBidderIDs = append(result.RejectedBidderIDs, doc.UserID)
			}
		}
		cursor.Close(sc)

		if _, err := r.bidsColl.UpdateOne(sc,
			bson.M{"_id": p.Bid.ID},
			bson.M{"$set": bson.M{"status": models.BidStatusAccepted, "updated_at": now}},
		); err != nil {
			return fmt.Errorf("failed to accept bid: %w", err)
		}

		if _, err := r.bidsColl.UpdateMany(sc, loserFilter,
			bson.M{"$set": bson.M{"status": models.BidStatusRejected, "updated_at": now}},
		); err != nil {
			return fmt.Errorf("failed to reject other bids: %w", err)
		}

		if err := r.profiles.ApplyWalletDelta(sc, seekerID, -p.Fee.TotalFee, "For Job Lead", &jobID, &p.Fee); err != nil {
			return err
		}

		occupied := models.OccupancyStatus{
			CurrentStatus: models.UserStatusOccupied,
			CurrentJobID:  &jobID,
		}
		if err := r.profiles.SetSeekerOccupancy(sc, seekerID, occupied); err != nil {
			return err
		}
		if err := r.profiles.SetProviderOccupancy(sc, providerID, occupied); err != nil {
			return err
		}

		location := bson.M{"$set": bson.M{
			"seeker_id":      seekerID,
			"provider_id":    providerID,
			"seeker_point":   p.SeekerPoint,
			"provider_point": p.ProviderPoint,
			"status":         models.JobLocationActive,
			"last_updated":   now,
		}}
		if _, err := r.locationColl.UpdateOne(sc,
			bson.M{"job_id": jobID}, location, options.Update().SetUpsert(true),
		); err != nil {
			return fmt.Errorf("failed to upsert job location: %w", err)
		}

		var job models.Job
		if err := r.jobsColl.FindOne(sc, bson.M{"_id": jobID}).Decode(&job); err != nil {
			return fmt.Errorf("failed to reload job: %w", err)
		}
		result.Job = &job
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		return nil, err
	}

	return result, nil
}
