package bidding

import (
	"context"
	"errors"

	"workerlly/config"
	bidRepo "workerlly/database/repository/bid"
	jobRepo "workerlly/database/repository/job"
	profileRepo "workerlly/database/repository/profile"
	userRepo "workerlly/database/repository/user"
	"workerlly/models"
	"workerlly/services/jobcache"
	"workerlly/services/notifier"
	"workerlly/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrAlreadyAssigned is the conflict a losing acceptance observes.
var ErrAlreadyAssigned = bidRepo.ErrAlreadyAssigned

// Service runs bid creation and the single-winner acceptance.
type Service struct {
	users    userRepo.UserRepository
	profiles profileRepo.ProfileRepository
	jobs     jobRepo.JobRepository
	bids     bidRepo.BidRepository
	cache    *jobcache.Cache
	hub      *notifier.Hub
}

// NewService wires the bidding engine.
func NewService(users userRepo.UserRepository, profiles profileRepo.ProfileRepository, jobs jobRepo.JobRepository, bids bidRepo.BidRepository, cache *jobcache.Cache, hub *notifier.Hub) *Service {
	return &Service{users: users, profiles: profiles, jobs: jobs, bids: bids, cache: cache, hub: hub}
}

// CreateBid places a seeker's bid. Preconditions run in a fixed order:
// online, balance, job open, seeker free; the first failure wins.
func (s *Service) CreateBid(ctx context.Context, seekerID, jobID primitive.ObjectID, amount float64) (*models.Bid, error) {
	user, err := s.users.GetByID(ctx, seekerID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Status {
		return nil, ErrOffline
	}

	stats, err := s.profiles.GetByUserID(ctx, seekerID)
	if err != nil {
		return nil, err
	}
	if stats == nil || stats.SeekerStats == nil {
		return nil, ErrOffline
	}
	fee := utils.ComputeFeeBreakdown(amount, config.AppConfig.PlatformFeePercent, config.AppConfig.GSTPercent)
	if stats.SeekerStats.WalletBalance < fee.TotalFee {
		return nil, ErrInsufficientBalance
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if job.Status != models.JobStatusPending {
		return nil, ErrJobNotOpen
	}

	if stats.SeekerStats.UserStatus.CurrentStatus == models.UserStatusOccupied {
		return nil, ErrSeekerBusy
	}

	pending, err := s.bids.HasPendingBid(ctx, jobID, seekerID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrDuplicateBid
	}

	bid := &models.Bid{JobID: jobID, UserID: seekerID, Amount: amount}
	if err := s.bids.Create(ctx, bid); err != nil {
		return nil, err
	}

	if err := s.hub.Notify(ctx, notifier.EventNewBid,
		map[string]interface{}{
			"job_id":      jobID.Hex(),
			"bid_id":      bid.ID.Hex(),
			"amount":      amount,
			"seeker_name": stats.PersonalInfo.Name,
			"star_rating": stats.SeekerStats.AvgRating,
		},
		notifier.RecipientContext{JobOwnerID: job.UserID.Hex()},
	); err != nil {
		utils.GetLogger().Warn("new_bid notification failed", zap.Error(err))
	}
	return bid, nil
}

// AcceptBid runs the one-of-N assignment. Everything that mutates state
// happens inside the repository transaction; cache eviction and the
// notification fan-out run only after commit.
func (s *Service) AcceptBid(ctx context.Context, providerID, bidID primitive.ObjectID, estimatedMinutes int) (*models.Job, error) {
	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid == nil {
		return nil, ErrBidNotFound
	}
	job, err := s.jobs.GetByID(ctx, bid.JobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if job.UserID != providerID {
		return nil, ErrUnauthorized
	}
	if bid.Status != models.BidStatusPending {
		return nil, ErrBidNotPending
	}
	if job.Status != models.JobStatusPending || job.AssignedTo != nil {
		return nil, ErrAlreadyAssigned
	}

	stats, err := s.profiles.GetByUserID(ctx, bid.UserID)
	if err != nil {
		return nil, err
	}
	if stats == nil || stats.SeekerStats == nil {
		return nil, ErrSeekerBusy
	}
	if stats.SeekerStats.UserStatus.CurrentStatus == models.UserStatusOccupied {
		return nil, ErrSeekerBusy
	}
	if stats.SeekerStats.CurrentLocation == nil {
		return nil, ErrLocationMissing
	}

	// The lead fee is anchored on the job's posted rate, not the bid.
	fee := utils.ComputeFeeBreakdown(job.HourlyRate, config.AppConfig.PlatformFeePercent, config.AppConfig.GSTPercent)
	if stats.SeekerStats.WalletBalance < fee.TotalFee {
		return nil, ErrInsufficientBalance
	}

	startOTP, err := utils.GenerateNumericOTP(4)
	if err != nil {
		return nil, err
	}
	providerPoint := job.AddressSnapshot.Location

	result, err := s.bids.AcceptBidTransactionally(ctx, bidRepo.AcceptParams{
		Job:              job,
		Bid:              bid,
		Fee:              fee,
		EstimatedMinutes: estimatedMinutes,
		StartOTP:         startOTP,
		SeekerPoint:      stats.SeekerStats.CurrentLocation,
		ProviderPoint:    &providerPoint,
	})
	if err != nil {
		if errors.Is(err, bidRepo.ErrAlreadyAssigned) {
			return nil, ErrAlreadyAssigned
		}
		return nil, err
	}

	s.afterAccept(ctx, result, bid)
	return result.Job, nil
}

// afterAccept performs the post-commit side effects. Failures here are
// logged and swallowed; the assignment already happened.
func (s *Service) afterAccept(ctx context.Context, result *bidRepo.AcceptResult, bid *models.Bid) {
	job := result.Job
	logger := utils.GetLogger()

	if err := s.cache.Remove(ctx, job.ID.Hex(), job.CategoryID.Hex(), job.AddressSnapshot.CityID.Hex()); err != nil {
		logger.Warn("cache eviction after acceptance failed",
			zap.String("job_id", job.ID.Hex()), zap.Error(err))
	}

	if err := s.hub.Notify(ctx, notifier.EventBidAccepted,
		map[string]interface{}{
			"job_id":  job.ID.Hex(),
			"task_id": job.TaskID,
			"bid_id":  bid.ID.Hex(),
			"amount":  bid.Amount,
		},
		notifier.RecipientContext{UserID: bid.UserID.Hex()},
	); err != nil {
		logger.Warn("bid_accepted notification failed", zap.Error(err))
	}

	if err := s.hub.Notify(ctx, notifier.EventRemoveJob,
		map[string]interface{}{"id": job.ID.Hex()},
		notifier.RecipientContext{
			CategoryID: job.CategoryID.Hex(),
			CityID:     job.AddressSnapshot.CityID.Hex(),
		},
	); err != nil {
		logger.Warn("remove_job notification failed", zap.Error(err))
	}

	for _, loserID := range result.RejectedBidderIDs {
		if err := s.hub.Notify(ctx, notifier.EventBidRejected,
			map[string]interface{}{"job_id": job.ID.Hex(), "task_id": job.TaskID},
			notifier.RecipientContext{UserID: loserID.Hex()},
		); err != nil {
			logger.Warn("bid_rejected notification failed",
				zap.String("user_id", loserID.Hex()), zap.Error(err))
		}
	}
}

// ListBidsForJob joins each bid with its seeker's display stats for the
// provider's bid sheet.
func (s *Service) ListBidsForJob(ctx context.Context, providerID, jobID primitive.ObjectID) ([]models.BidDetail, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if job.UserID != providerID {
		return nil, ErrUnauthorized
	}

	bids, err := s.bids.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	details := make([]models.BidDetail, 0, len(bids))
	for _, b := range bids {
		detail := models.BidDetail{
			ID:        b.ID.Hex(),
			JobID:     b.JobID.Hex(),
			SeekerID:  b.UserID.Hex(),
			Amount:    b.Amount,
			Status:    b.Status,
			CreatedAt: b.CreatedAt,
		}
		if stats, err := s.profiles.GetByUserID(ctx, b.UserID); err == nil && stats != nil {
			detail.SeekerName = stats.PersonalInfo.Name
			if stats.SeekerStats != nil {
				detail.SeekerCategory = stats.SeekerStats.Category.CategoryName
				detail.StarRating = stats.SeekerStats.AvgRating
				detail.TotalRatings = stats.SeekerStats.TotalReviews
			}
		}
		details = append(details, detail)
	}
	return details, nil
}
