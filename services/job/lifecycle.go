package job

import (
	"context"
	"errors"
	"math"
	"time"

	jobRepo "workerlly/database/repository/job"
	"workerlly/models"
	"workerlly/services/notifier"
	"workerlly/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	earlyCancelWindow    = 5 * time.Minute
	delayedCancelAfter   = 45 * time.Minute
	sweepCancelReason    = "cancelled by system"
	seekerCancelReason   = "cancelled by seeker"
	providerCancelReason = "cancelled by provider"
)

// VerifyStartOTP begins the working phase: the start code flips to
// verified, a done code is generated, tracking and the location row stop.
// The provider is told after commit; a failed send is swallowed, the
// provider reconciles by polling job detail.
func (s *Service) VerifyStartOTP(ctx context.Context, seekerID, jobID primitive.ObjectID, otp string) (*models.Job, error) {
	doneOTP, err := utils.GenerateNumericOTP(4)
	if err != nil {
		return nil, err
	}

	job, err := s.jobs.StartJob(ctx, jobID, seekerID, otp, doneOTP)
	if err != nil {
		if errors.Is(err, jobRepo.ErrOTPMismatch) {
			return nil, ErrOTPMismatch
		}
		return nil, err
	}

	s.registry.StopTracking(jobID.Hex())

	if err := s.hub.Notify(ctx, notifier.EventJobStartOTP,
		map[string]interface{}{"job_id": job.ID.Hex(), "task_id": job.TaskID},
		notifier.RecipientContext{UserID: job.UserID.Hex()},
	); err != nil {
		utils.GetLogger().Warn("job_start_otp notification failed", zap.Error(err))
	}
	return job, nil
}

// VerifyDoneOTP settles the job: billable hours are the ceiling of worked
// minutes over 60 with a floor of one, the total prices them at the rate
// frozen at acceptance.
func (s *Service) VerifyDoneOTP(ctx context.Context, seekerID, jobID primitive.ObjectID, otp string) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if job.AssignedTo == nil || *job.AssignedTo != seekerID {
		return nil, ErrUnauthorized
	}
	if job.Status != models.JobStatusOngoing || job.JobStartOTP == nil ||
		!job.JobStartOTP.Verified || job.JobStartOTP.VerifiedAt == nil {
		return nil, Validationf("job has not been started")
	}

	workedMinutes := time.Since(*job.JobStartOTP.VerifiedAt).Minutes()
	billableHours := int(math.Ceil(workedMinutes / 60))
	if billableHours < 1 {
		billableHours = 1
	}
	hoursWorked := utils.Round2(workedMinutes / 60)
	totalAmount := float64(billableHours) * job.CurrentRate

	completed, err := s.jobs.CompleteJob(ctx, jobID, seekerID, otp, hoursWorked, billableHours, totalAmount)
	if err != nil {
		if errors.Is(err, jobRepo.ErrOTPMismatch) {
			return nil, ErrOTPMismatch
		}
		return nil, err
	}

	s.registry.StopTracking(jobID.Hex())

	if err := s.hub.Notify(ctx, notifier.EventJobDoneOTP,
		map[string]interface{}{
			"job_id":         completed.ID.Hex(),
			"task_id":        completed.TaskID,
			"billable_hours": billableHours,
			"total_amount":   totalAmount,
		},
		notifier.RecipientContext{UserID: completed.UserID.Hex()},
	); err != nil {
		utils.GetLogger().Warn("job_done_otp notification failed", zap.Error(err))
	}
	return completed, nil
}

// SeekerCancel lets the assigned seeker back out inside the grace window,
// measured from the accepted bid's last update. The lead-fee debit is
// refunded exactly.
func (s *Service) SeekerCancel(ctx context.Context, seekerID, jobID primitive.ObjectID) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return ErrJobNotFound
	}
	if job.AssignedTo == nil || *job.AssignedTo != seekerID {
		return ErrUnauthorized
	}
	if job.Status != models.JobStatusOngoing {
		return Validationf("job is not ongoing")
	}

	bid, err := s.bids.FindAcceptedBid(ctx, jobID)
	if err != nil {
		return err
	}
	if bid == nil {
		return Validationf("no accepted bid found for this job")
	}
	if time.Since(bid.UpdatedAt) > earlyCancelWindow {
		return Validationf("Job cannot be cancelled after 5 minutes.")
	}

	refund, err := s.refundSpec(ctx, seekerID, jobID, "Refund for job cancelled by seeker")
	if err != nil {
		return err
	}
	if err := s.jobs.CancelOngoing(ctx, job, bid, seekerCancelReason, refund); err != nil {
		return err
	}
	s.registry.StopTracking(jobID.Hex())

	if err := s.hub.Notify(ctx, notifier.EventJobCancelBySeeker,
		map[string]interface{}{"job_id": job.ID.Hex(), "task_id": job.TaskID},
		notifier.RecipientContext{UserID: job.UserID.Hex()},
	); err != nil {
		utils.GetLogger().Warn("job_cancel_by_seeker notification failed", zap.Error(err))
	}
	return nil
}

// ProviderCancel is the provider's early out: allowed only within the
// grace window from booking, and the seeker gets their debit back.
func (s *Service) ProviderCancel(ctx context.Context, providerID, jobID primitive.ObjectID) error {
	job, bid, err := s.loadOngoingForProvider(ctx, providerID, jobID)
	if err != nil {
		return err
	}
	if job.JobBookingTime == nil || time.Since(*job.JobBookingTime) > earlyCancelWindow {
		return Validationf("Job cannot be cancelled after 5 minutes.")
	}

	refund, err := s.refundSpec(ctx, bid.UserID, jobID, "Refund for job cancelled by provider")
	if err != nil {
		return err
	}
	if err := s.jobs.CancelOngoing(ctx, job, bid, providerCancelReason, refund); err != nil {
		return err
	}
	s.registry.StopTracking(jobID.Hex())

	if err := s.hub.Notify(ctx, notifier.EventJobCancelByProvider,
		map[string]interface{}{"job_id": job.ID.Hex(), "task_id": job.TaskID},
		notifier.RecipientContext{UserID: bid.UserID.Hex()},
	); err != nil {
		utils.GetLogger().Warn("job_cancel_by_provider notification failed", zap.Error(err))
	}
	return nil
}

// DelayedCancel is the provider's late out: blocked before 45 minutes,
// and carries no refund. The platform absorbs the seeker's lead fee.
func (s *Service) DelayedCancel(ctx context.Context, providerID, jobID primitive.ObjectID) error {
	job, bid, err := s.loadOngoingForProvider(ctx, providerID, jobID)
	if err != nil {
		return err
	}
	if job.JobBookingTime == nil || time.Since(*job.JobBookingTime) < delayedCancelAfter {
		return Validationf("Job cannot be cancelled before 45 minutes.")
	}

	if err := s.jobs.CancelOngoing(ctx, job, bid, providerCancelReason, nil); err != nil {
		return err
	}
	s.registry.StopTracking(jobID.Hex())

	if err := s.hub.Notify(ctx, notifier.EventDelayedCancel,
		map[string]interface{}{"job_id": job.ID.Hex(), "task_id": job.TaskID},
		notifier.RecipientContext{UserID: bid.UserID.Hex()},
	); err != nil {
		utils.GetLogger().Warn("delayed_cancel notification failed", zap.Error(err))
	}
	return nil
}

func (s *Service) loadOngoingForProvider(ctx context.Context, providerID, jobID primitive.ObjectID) (*models.Job, *models.Bid, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if job == nil {
		return nil, nil, ErrJobNotFound
	}
	if job.UserID != providerID {
		return nil, nil, ErrUnauthorized
	}
	if job.Status != models.JobStatusOngoing {
		return nil, nil, Validationf("job is not ongoing")
	}
	bid, err := s.bids.FindAcceptedBid(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if bid == nil {
		return nil, nil, Validationf("no accepted bid found for this job")
	}
	return job, bid, nil
}

// refundSpec reverses the exact debit recorded at acceptance. A missing
// ledger entry yields no refund rather than an error.
func (s *Service) refundSpec(ctx context.Context, seekerID, jobID primitive.ObjectID, description string) (*jobRepo.RefundSpec, error) {
	debit, err := s.profiles.FindJobDebit(ctx, seekerID, jobID)
	if err != nil {
		return nil, err
	}
	if debit == nil {
		return nil, nil
	}
	return &jobRepo.RefundSpec{
		SeekerID:    seekerID,
		Amount:      -debit.Amount,
		Description: description,
	}, nil
}

// Sweep cancels every job still open from before today's local midnight.
// Re-running it on the same day finds nothing and is a no-op; the jobs it
// closes carry no notification obligations.
func (s *Service) Sweep(ctx context.Context) error {
	now := time.Now().In(utils.BusinessLocation())
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, utils.BusinessLocation())

	open, err := s.jobs.FindOpenJobsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	logger := utils.GetLogger()
	for i := range open {
		j := open[i]
		switch j.Status {
		case models.JobStatusPending:
			if _, err := s.jobs.CancelPending(ctx, j.ID, j.UserID, sweepCancelReason); err != nil {
				logger.Error("sweep failed to cancel pending job",
					zap.String("job_id", j.ID.Hex()), zap.Error(err))
				continue
			}
			if err := s.cache.Remove(ctx, j.ID.Hex(), j.CategoryID.Hex(), j.AddressSnapshot.CityID.Hex()); err != nil {
				logger.Warn("sweep cache eviction failed",
					zap.String("job_id", j.ID.Hex()), zap.Error(err))
			}
		case models.JobStatusOngoing:
			bid, err := s.bids.FindAcceptedBid(ctx, j.ID)
			if err != nil {
				logger.Error("sweep failed to load accepted bid",
					zap.String("job_id", j.ID.Hex()), zap.Error(err))
				continue
			}
			if err := s.jobs.CancelOngoing(ctx, &j, bid, sweepCancelReason, nil); err != nil {
				logger.Error("sweep failed to cancel ongoing job",
					zap.String("job_id", j.ID.Hex()), zap.Error(err))
				continue
			}
			s.registry.StopTracking(j.ID.Hex())
		}
	}
	logger.Info("midnight sweep finished", zap.Int("jobs_closed", len(open)))
	return nil
}

// SubmitReview stores one side's review on a completed job and folds the
// rating into the other party's aggregate.
func (s *Service) SubmitReview(ctx context.Context, reviewerID, jobID primitive.ObjectID, rating float64, comment string) error {
	if rating < 1 || rating > 5 {
		return Validationf("rating must be between 1 and 5")
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return ErrJobNotFound
	}
	if job.Status != models.JobStatusCompleted {
		return Validationf("job is not completed")
	}

	var field, side string
	var revieweeID primitive.ObjectID
	switch {
	case job.UserID == reviewerID:
		if job.AssignedTo == nil {
			return Validationf("job has no assigned seeker")
		}
		field, side, revieweeID = "provider_review", "seeker_stats", *job.AssignedTo
	case job.AssignedTo != nil && *job.AssignedTo == reviewerID:
		field, side, revieweeID = "seeker_review", "provider_stats", job.UserID
	default:
		return ErrUnauthorized
	}

	review := models.JobReview{Rating: rating, Comment: comment, CreatedAt: time.Now().UTC()}
	stored, err := s.jobs.SetReview(ctx, jobID, field, review)
	if err != nil {
		return err
	}
	if !stored {
		return ErrDuplicateReview
	}
	return s.profiles.ApplyRating(ctx, revieweeID, side, rating)
}
