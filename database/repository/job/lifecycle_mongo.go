package jobRepo

import (
	"context"
	"fmt"
	"time"

	"workerlly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrOTPMismatch is returned when a lifecycle OTP filter matches nothing:
// wrong code, wrong seeker, or a transition already applied.
var ErrOTPMismatch = fmt.Errorf("otp verification failed")

// StartJob verifies the start OTP in a transaction: the OTP record flips
// to verified, the done OTP is installed, and the travel-phase location
// row goes inactive.
func (r *MongoJobRepo) StartJob(ctx context.Context, jobID, seekerID primitive.ObjectID, startOTP, doneOTP string) (*models.Job, error) {
	var started *models.Job
	err := r.withTxn(ctx, func(sc mongo.SessionContext) error {
		now := time.Now().UTC()
		filter := bson.M{
			"_id":                    jobID,
			"assigned_to":            seekerID,
			"status":                 models.JobStatusOngoing,
			"job_start_otp.otp":      startOTP,
			"job_start_otp.verified": false,
		}
		update := bson.M{"$set": bson.M{
			"job_start_otp.verified":    true,
			"job_start_otp.verified_at": now,
			"job_done_otp":              models.JobOTP{OTP: doneOTP, Verified: false},
			"updated_at":                now,
		}}

		res, err := r.jobsColl.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("failed to verify start otp: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrOTPMismatch
		}

		if _, err := r.locationColl.UpdateOne(sc,
			bson.M{"job_id": jobID},
			bson.M{"$set": bson.M{"status": models.JobLocationInactive, "last_updated": now}},
		); err != nil {
			return fmt.Errorf("failed to retire job location: %w", err)
		}

		job, err := r.GetByID(sc, jobID)
		if err != nil {
			return err
		}
		started = job
		return nil
	})
	return started, err
}

// CompleteJob verifies the done OTP and settles the job: totals written,
// both parties freed, seeker credited with lifetime counters, location
// retired.
func (r *MongoJobRepo) CompleteJob(ctx context.Context, jobID, seekerID primitive.ObjectID, doneOTP string, hoursWorked float64, billableHours int, totalAmount float64) (*models.Job, error) {
	var completed *models.Job
	err := r.withTxn(ctx, func(sc mongo.SessionContext) error {
		now := time.Now().UTC()
		filter := bson.M{
			"_id":                   jobID,
			"assigned_to":           seekerID,
			"status":                models.JobStatusOngoing,
			"job_done_otp.otp":      doneOTP,
			"job_done_otp.verified": false,
		}
		update := bson.M{"$set": bson.M{
			"job_done_otp.verified":    true,
			"job_done_otp.verified_at": now,
			"status":                   models.JobStatusCompleted,
			"total_hours_worked":       hoursWorked,
			"billable_hours":           billableHours,
			"total_amount":             totalAmount,
			"updated_at":               now,
		}}

		res, err := r.jobsColl.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("failed to verify done otp: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrOTPMismatch
		}

		job, err := r.GetByID(sc, jobID)
		if err != nil {
			return err
		}
		if err := r.releaseParticipants(sc, job, "Job completed"); err != nil {
			return err
		}
		if err := r.profiles.RecordSeekerCompletion(sc, seekerID, billableHours, totalAmount); err != nil {
			return err
		}

		if _, err := r.locationColl.UpdateOne(sc,
			bson.M{"job_id": jobID},
			bson.M{"$set": bson.M{"status": models.JobLocationInactive, "last_updated": now}},
		); err != nil {
			return fmt.Errorf("failed to retire job location: %w", err)
		}
		completed = job
		return nil
	})
	return completed, err
}

// releaseParticipants frees everyone a closing job holds occupied: the
// assigned seeker, if any, and the posting provider. Completion and
// cancellation both go through here so neither side can leak an
// "occupied" status.
func (r *MongoJobRepo) releaseParticipants(ctx context.Context, job *models.Job, reason string) error {
	free := models.OccupancyStatus{CurrentStatus: models.UserStatusFree, Reason: reason}
	if job.AssignedTo != nil {
		if err := r.profiles.SetSeekerOccupancy(ctx, *job.AssignedTo, free); err != nil {
			return err
		}
	}
	return r.profiles.SetProviderOccupancy(ctx, job.UserID, free)
}

// CancelOngoing cancels an assigned job. The accepted bid is cancelled,
// the job closed with the reason, the optional refund applied, both
// parties freed and the location row retired, all in one transaction.
func (r *MongoJobRepo) CancelOngoing(ctx context.Context, job *models.Job, bid *models.Bid, reason string, refund *RefundSpec) error {
	return r.withTxn(ctx, func(sc mongo.SessionContext) error {
		now := time.Now().UTC()

		if bid != nil {
			if _, err := r.bidsColl.UpdateOne(sc,
				bson.M{"_id": bid.ID},
				bson.M{"$set": bson.M{"status": models.BidStatusCancelled, "updated_at": now}},
			); err != nil {
				return fmt.Errorf("failed to cancel bid: %w", err)
			}
		}

		filter := bson.M{"_id": job.ID, "status": models.JobStatusOngoing}
		update := bson.M{"$set": bson.M{
			"status":     models.JobStatusCancelled,
			"reason":     reason,
			"updated_at": now,
		}}
		res, err := r.jobsColl.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("failed to cancel job: %w", err)
		}
		if res.MatchedCount == 0 {
			return fmt.Errorf("job %s is no longer ongoing", job.ID.Hex())
		}

		if refund != nil {
			jobID := job.ID
			if err := r.profiles.ApplyWalletDelta(sc, refund.SeekerID, refund.Amount, refund.Description, &jobID, nil); err != nil {
				return err
			}
		}

		if err := r.releaseParticipants(sc, job, reason); err != nil {
			return err
		}

		if _, err := r.locationColl.UpdateOne(sc,
			bson.M{"job_id": job.ID},
			bson.M{"$set": bson.M{"status": models.JobLocationInactive, "last_updated": now}},
		); err != nil {
			return fmt.Errorf("failed to retire job location: %w", err)
		}
		return nil
	})
}

// FindOpenJobsBefore returns jobs still pending or ongoing that were
// created before the cutoff. The midnight sweep feeds each through the
// cancel path.
func (r *MongoJobRepo) FindOpenJobsBefore(ctx context.Context, cutoff time.Time) ([]models.Job, error) {
	filter := bson.M{
		"status":     bson.M{"$in": bson.A{models.JobStatusPending, models.JobStatusOngoing}},
		"created_at": bson.M{"$lt": cutoff},
	}
	cursor, err := r.jobsColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query open jobs: %w", err)
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
