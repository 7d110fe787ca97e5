package job

import (
	"context"
	"time"

	bidRepo "workerlly/database/repository/bid"
	catalogRepo "workerlly/database/repository/catalog"
	jobRepo "workerlly/database/repository/job"
	profileRepo "workerlly/database/repository/profile"
	userRepo "workerlly/database/repository/user"
	"workerlly/models"
	"workerlly/services/jobcache"
	"workerlly/services/notifier"
	"workerlly/services/registry"
	"workerlly/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Service is the job lifecycle manager: posting, rate updates,
// cancellation windows, OTP-gated start/complete, reviews and the sweep.
type Service struct {
	jobs     jobRepo.JobRepository
	bids     bidRepo.BidRepository
	profiles profileRepo.ProfileRepository
	users    userRepo.UserRepository
	catalog  catalogRepo.CatalogRepository
	cache    *jobcache.Cache
	hub      *notifier.Hub
	registry *registry.Registry
}

// NewService wires the lifecycle manager.
func NewService(jobs jobRepo.JobRepository, bids bidRepo.BidRepository, profiles profileRepo.ProfileRepository, users userRepo.UserRepository, catalog catalogRepo.CatalogRepository, cache *jobcache.Cache, hub *notifier.Hub, reg *registry.Registry) *Service {
	return &Service{
		jobs: jobs, bids: bids, profiles: profiles, users: users,
		catalog: catalog, cache: cache, hub: hub, registry: reg,
	}
}

// PostJobInput is the provider's job posting payload.
type PostJobInput struct {
	Title                string               `json:"title" binding:"required"`
	Description          string               `json:"description"`
	CategoryID           primitive.ObjectID   `json:"category_id" binding:"required"`
	SubCategoryIDs       []primitive.ObjectID `json:"sub_category_ids"`
	AddressID            primitive.ObjectID   `json:"address_id" binding:"required"`
	HourlyRate           float64              `json:"hourly_rate" binding:"required"`
	EstimatedTimeMinutes int                  `json:"estimated_time_minutes"`
}

// PostJob creates a pending job: readable task id, frozen address
// snapshot, catch-up cache entry and the new_job fan-out.
func (s *Service) PostJob(ctx context.Context, providerID primitive.ObjectID, in PostJobInput) (*models.Job, error) {
	address, err := s.catalog.GetAddress(ctx, in.AddressID, providerID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, Validationf("address not found")
	}

	if err := s.validateRate(ctx, in.CategoryID, address.CityID, in.HourlyRate); err != nil {
		return nil, err
	}

	taskID, err := s.nextTaskID(ctx)
	if err != nil {
		return nil, err
	}

	job := &models.Job{
		TaskID:         taskID,
		UserID:         providerID,
		Title:          in.Title,
		Description:    in.Description,
		CategoryID:     in.CategoryID,
		SubCategoryIDs: in.SubCategoryIDs,
		AddressID:      address.ID,
		AddressSnapshot: models.AddressSnapshot{
			ID:              address.ID,
			AddressLine1:    address.AddressLine1,
			AddressLine2:    address.AddressLine2,
			ApartmentNumber: address.ApartmentNumber,
			Landmark:        address.Landmark,
			Label:           address.Label,
			Location:        address.Location,
			CityID:          address.CityID,
		},
		HourlyRate:           in.HourlyRate,
		CurrentRate:          in.HourlyRate,
		EstimatedTimeMinutes: in.EstimatedTimeMinutes,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	event := s.buildEvent(ctx, job)
	if err := s.cache.Store(ctx, event); err != nil {
		// Cache failures never block posting.
		utils.GetLogger().Warn("failed to cache job event",
			zap.String("job_id", job.ID.Hex()), zap.Error(err))
	}

	s.announce(ctx, event)
	return job, nil
}

// buildEvent assembles the cached/broadcast payload for a job.
func (s *Service) buildEvent(ctx context.Context, job *models.Job) jobcache.JobEvent {
	event := jobcache.JobEvent{
		ID:         job.ID.Hex(),
		TaskID:     job.TaskID,
		UserID:     job.UserID.Hex(),
		CategoryID: job.CategoryID.Hex(),
		CityID:     job.AddressSnapshot.CityID.Hex(),
		HourlyRate: job.CurrentRate,
		CreatedAt:  job.CreatedAt.UTC().Format(time.RFC3339),
	}
	if len(job.SubCategoryIDs) > 0 {
		if name, err := s.catalog.SubCategoryName(ctx, job.CategoryID, job.SubCategoryIDs[0]); err == nil {
			event.SubCategory = name
		}
	}
	if name, err := s.catalog.CityName(ctx, job.AddressSnapshot.CityID); err == nil && name != "" {
		event.Location = name
	} else {
		event.Location = job.AddressSnapshot.Label
	}
	return event
}

// announce fans a new_job event out to the (category, city) cohort. Also
// the relay handler: the expiry subscriber re-invokes it for jobs still
// pending at T+2min.
func (s *Service) announce(ctx context.Context, event jobcache.JobEvent) {
	err := s.hub.Notify(ctx, notifier.EventNewJob,
		map[string]interface{}{
			"id":           event.ID,
			"task_id":      event.TaskID,
			"user_id":      event.UserID,
			"category_id":  event.CategoryID,
			"city_id":      event.CityID,
			"sub_category": event.SubCategory,
			"location":     event.Location,
			"hourly_rate":  event.HourlyRate,
			"created_at":   event.CreatedAt,
		},
		notifier.RecipientContext{CategoryID: event.CategoryID, CityID: event.CityID},
	)
	if err != nil {
		utils.GetLogger().Warn("new_job notification failed",
			zap.String("job_id", event.ID), zap.Error(err))
	}
}

// HandleRelay is the expiry subscriber's callback: re-announce only while
// the job is still open. Keyspace events are at-least-once, so this must
// stay idempotent.
func (s *Service) HandleRelay(ctx context.Context, event jobcache.JobEvent) {
	jobID, err := primitive.ObjectIDFromHex(event.ID)
	if err != nil {
		return
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil || job == nil || job.Status != models.JobStatusPending {
		return
	}
	s.announce(ctx, event)
}

// nextTaskID allocates today's next YMD-NNNN id in the business zone.
func (s *Service) nextTaskID(ctx context.Context) (string, error) {
	prefix, err := utils.TaskIDPrefix(time.Now())
	if err != nil {
		return "", err
	}
	highest, err := s.jobs.HighestTaskID(ctx, prefix)
	if err != nil {
		return "", err
	}
	return utils.FormatTaskID(prefix, utils.TaskIDSequence(highest)+1), nil
}

// validateRate enforces the (category, city) rate card bounds. A missing
// card means the pair is unpriced and any rate passes.
func (s *Service) validateRate(ctx context.Context, categoryID, cityID primitive.ObjectID, rate float64) error {
	card, err := s.catalog.GetRateCard(ctx, categoryID, cityID)
	if err != nil {
		return err
	}
	if card == nil {
		return nil
	}
	if rate < card.MinHourlyRate {
		return Validationf("Rate can't be lower than %v", card.MinHourlyRate)
	}
	if rate > card.MaxHourlyRate {
		return Validationf("Rate can't be higher than %v", card.MaxHourlyRate)
	}
	return nil
}

// GetJob returns the job if the caller is its provider or its assignee.
// The provider's view carries the start and done OTP codes; the assignee
// sees only their verification state.
func (s *Service) GetJob(ctx context.Context, callerID, jobID primitive.ObjectID) (*JobDetail, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if job.UserID != callerID && (job.AssignedTo == nil || *job.AssignedTo != callerID) {
		return nil, ErrUnauthorized
	}
	return detailFor(job, callerID), nil
}

// ListJobs returns the provider's jobs.
func (s *Service) ListJobs(ctx context.Context, providerID primitive.ObjectID) ([]models.Job, error) {
	return s.jobs.ListByUser(ctx, providerID)
}

// UpdateHourlyRate changes a pending job's rate within the rate card
// bounds and tells the cohort.
func (s *Service) UpdateHourlyRate(ctx context.Context, providerID, jobID primitive.ObjectID, newRate float64) (*models.Job, error) {
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
	if job.Status != models.JobStatusPending {
		return nil, Validationf("rate can only be changed while the job is pending")
	}
	if err := s.validateRate(ctx, job.CategoryID, job.AddressSnapshot.CityID, newRate); err != nil {
		return nil, err
	}

	updated, err := s.jobs.UpdateHourlyRate(ctx, jobID, providerID, newRate)
	if err != nil {
		return nil, err
	}

	event := s.buildEvent(ctx, updated)
	if err := s.hub.Notify(ctx, notifier.EventJobRateUpdate,
		map[string]interface{}{
			"id":           event.ID,
			"task_id":      event.TaskID,
			"hourly_rate":  newRate,
			"sub_category": event.SubCategory,
		},
		notifier.RecipientContext{CategoryID: event.CategoryID, CityID: event.CityID},
	); err != nil {
		utils.GetLogger().Warn("job_rate_update notification failed", zap.Error(err))
	}
	return updated, nil
}

// CancelPending cancels an unassigned job: evict from catch-up, tell the
// cohort to drop it.
func (s *Service) CancelPending(ctx context.Context, providerID, jobID primitive.ObjectID, reason string) (*models.Job, error) {
	if reason == "" {
		reason = "cancelled by provider"
	}
	job, err := s.jobs.CancelPending(ctx, jobID, providerID, reason)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Remove(ctx, job.ID.Hex(), job.CategoryID.Hex(), job.AddressSnapshot.CityID.Hex()); err != nil {
		utils.GetLogger().Warn("cache eviction after cancel failed", zap.Error(err))
	}
	if err := s.hub.Notify(ctx, notifier.EventRemoveJob,
		map[string]interface{}{"id": job.ID.Hex()},
		notifier.RecipientContext{
			CategoryID: job.CategoryID.Hex(),
			CityID:     job.AddressSnapshot.CityID.Hex(),
		},
	); err != nil {
		utils.GetLogger().Warn("remove_job notification failed", zap.Error(err))
	}
	return job, nil
}

// MarkReached records the seeker's arrival on site.
func (s *Service) MarkReached(ctx context.Context, seekerID, jobID primitive.ObjectID) error {
	return s.jobs.MarkReached(ctx, jobID, seekerID)
}
