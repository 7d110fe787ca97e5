package job

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	bidRepo "workerlly/database/repository/bid"
	catalogRepo "workerlly/database/repository/catalog"
	jobRepo "workerlly/database/repository/job"
	profileRepo "workerlly/database/repository/profile"
	"workerlly/models"
	"workerlly/services/jobcache"
	"workerlly/services/notifier"
	"workerlly/services/registry"
	"workerlly/utils"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubJobs struct {
	jobRepo.JobRepository
	job           *models.Job
	highestTaskID string
	created       *models.Job

	completedArgs *completeArgs
	cancelReason  string
	cancelRefund  *jobRepo.RefundSpec
	reviewStored  bool
	reviewField   string
}

type completeArgs struct {
	hoursWorked   float64
	billableHours int
	totalAmount   float64
}

func (s *stubJobs) Create(_ context.Context, job *models.Job) error {
	job.ID = primitive.NewObjectID()
	job.Status = models.JobStatusPending
	job.CreatedAt = time.Now()
	s.created = job
	return nil
}

func (s *stubJobs) GetByID(context.Context, primitive.ObjectID) (*models.Job, error) {
	return s.job, nil
}

func (s *stubJobs) HighestTaskID(context.Context, string) (string, error) {
	return s.highestTaskID, nil
}

func (s *stubJobs) CompleteJob(_ context.Context, _, _ primitive.ObjectID, _ string, hoursWorked float64, billableHours int, totalAmount float64) (*models.Job, error) {
	s.completedArgs = &completeArgs{hoursWorked, billableHours, totalAmount}
	done := *s.job
	done.Status = models.JobStatusCompleted
	done.BillableHours = billableHours
	done.TotalAmount = totalAmount
	return &done, nil
}

func (s *stubJobs) CancelOngoing(_ context.Context, _ *models.Job, _ *models.Bid, reason string, refund *jobRepo.RefundSpec) error {
	s.cancelReason = reason
	s.cancelRefund = refund
	return nil
}

func (s *stubJobs) SetReview(_ context.Context, _ primitive.ObjectID, field string, _ models.JobReview) (bool, error) {
	s.reviewField = field
	return s.reviewStored, nil
}

type stubBids struct {
	bidRepo.BidRepository
	accepted *models.Bid
}

func (s *stubBids) FindAcceptedBid(context.Context, primitive.ObjectID) (*models.Bid, error) {
	return s.accepted, nil
}

type stubProfiles struct {
	profileRepo.ProfileRepository
	stats       *models.UserStats
	debit       *models.Transaction
	ratedSide   string
	ratedValue  float64
	ratedUserID primitive.ObjectID
}

func (s *stubProfiles) GetByUserID(context.Context, primitive.ObjectID) (*models.UserStats, error) {
	return s.stats, nil
}

func (s *stubProfiles) FindJobDebit(context.Context, primitive.ObjectID, primitive.ObjectID) (*models.Transaction, error) {
	return s.debit, nil
}

func (s *stubProfiles) ApplyRating(_ context.Context, userID primitive.ObjectID, side string, rating float64) error {
	s.ratedUserID, s.ratedSide, s.ratedValue = userID, side, rating
	return nil
}

func (s *stubProfiles) FindSeekerIDs(context.Context, primitive.ObjectID, primitive.ObjectID) ([]primitive.ObjectID, error) {
	return nil, nil
}

type stubCatalog struct {
	catalogRepo.CatalogRepository
	card    *models.RateCard
	address *models.Address
}

func (s *stubCatalog) GetRateCard(context.Context, primitive.ObjectID, primitive.ObjectID) (*models.RateCard, error) {
	return s.card, nil
}

func (s *stubCatalog) GetAddress(context.Context, primitive.ObjectID, primitive.ObjectID) (*models.Address, error) {
	return s.address, nil
}

func (s *stubCatalog) SubCategoryName(context.Context, primitive.ObjectID, primitive.ObjectID) (string, error) {
	return "Plumbing", nil
}

func (s *stubCatalog) CityName(context.Context, primitive.ObjectID) (string, error) {
	return "Mumbai", nil
}

type noopWS struct{}

func (noopWS) SendPersonal(string, models.SocketMessage) bool { return false }

type noopSink struct{}

func (noopSink) Record(context.Context, *models.DeliveryReport) {}

func quietHub() *notifier.Hub {
	return notifier.NewHub(noopWS{}, nil, &stubProfiles{}, noopSink{})
}

func deadCache() *jobcache.Cache {
	return jobcache.NewCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}))
}

func newTestService(jobs *stubJobs, bids *stubBids, profiles *stubProfiles, catalog *stubCatalog) *Service {
	return NewService(jobs, bids, profiles, nil, catalog, deadCache(), quietHub(), registry.NewRegistry())
}

func ongoingJob(providerID, seekerID primitive.ObjectID) *models.Job {
	booked := time.Now().Add(-2 * time.Minute)
	return &models.Job{
		ID:             primitive.NewObjectID(),
		TaskID:         "78S-0007",
		UserID:         providerID,
		CategoryID:     primitive.NewObjectID(),
		HourlyRate:     400,
		CurrentRate:    380,
		Status:         models.JobStatusOngoing,
		AssignedTo:     &seekerID,
		JobBookingTime: &booked,
		AddressSnapshot: models.AddressSnapshot{
			CityID: primitive.NewObjectID(),
		},
	}
}

func TestValidateRate(t *testing.T) {
	categoryID, cityID := primitive.NewObjectID(), primitive.NewObjectID()
	card := &models.RateCard{MinHourlyRate: 200, MaxHourlyRate: 800}

	tests := []struct {
		name    string
		card    *models.RateCard
		rate    float64
		wantErr string
	}{
		{"within bounds", card, 400, ""},
		{"at minimum", card, 200, ""},
		{"below minimum", card, 150, "Rate can't be lower than 200"},
		{"above maximum", card, 900, "Rate can't be higher than 800"},
		{"no rate card", nil, 5, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(&stubJobs{}, &stubBids{}, &stubProfiles{}, &stubCatalog{card: tc.card})
			err := svc.validateRate(context.Background(), categoryID, cityID, tc.rate)
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("validateRate(%v) = %v, want nil", tc.rate, err)
				}
				return
			}
			if err == nil || err.Error() != tc.wantErr {
				t.Errorf("validateRate(%v) = %v, want %q", tc.rate, err, tc.wantErr)
			}
			if !IsValidation(err) {
				t.Errorf("expected a validation error, got %T", err)
			}
		})
	}
}

func TestNextTaskID(t *testing.T) {
	prefix, err := utils.TaskIDPrefix(time.Now())
	if err != nil {
		t.Fatalf("TaskIDPrefix: %v", err)
	}

	t.Run("first of the day", func(t *testing.T) {
		svc := newTestService(&stubJobs{highestTaskID: ""}, &stubBids{}, &stubProfiles{}, &stubCatalog{})
		got, err := svc.nextTaskID(context.Background())
		if err != nil {
			t.Fatalf("nextTaskID: %v", err)
		}
		if want := prefix + "0001"; got != want {
			t.Errorf("nextTaskID = %q, want %q", got, want)
		}
	})

	t.Run("continues the sequence", func(t *testing.T) {
		svc := newTestService(&stubJobs{highestTaskID: prefix + "0041"}, &stubBids{}, &stubProfiles{}, &stubCatalog{})
		got, err := svc.nextTaskID(context.Background())
		if err != nil {
			t.Fatalf("nextTaskID: %v", err)
		}
		if want := prefix + "0042"; got != want {
			t.Errorf("nextTaskID = %q, want %q", got, want)
		}
	})
}

func TestPostJob(t *testing.T) {
	providerID := primitive.NewObjectID()
	address := &models.Address{
		ID:           primitive.NewObjectID(),
		UserID:       providerID,
		AddressLine1: "12 Hill Road",
		Label:        "Shop",
		Location:     models.NewGeoPoint(19.06, 72.83),
		CityID:       primitive.NewObjectID(),
	}
	jobs := &stubJobs{}
	svc := newTestService(jobs, &stubBids{}, &stubProfiles{}, &stubCatalog{address: address})

	job, err := svc.PostJob(context.Background(), providerID, PostJobInput{
		Title:      "Fix kitchen sink",
		CategoryID: primitive.NewObjectID(),
		AddressID:  address.ID,
		HourlyRate: 400,
	})
	if err != nil {
		t.Fatalf("PostJob: %v", err)
	}
	if !strings.HasSuffix(job.TaskID, "-0001") {
		t.Errorf("TaskID = %q, want first sequence of the day", job.TaskID)
	}
	if job.AddressSnapshot.AddressLine1 != address.AddressLine1 || job.AddressSnapshot.CityID != address.CityID {
		t.Errorf("address snapshot not frozen: %+v", job.AddressSnapshot)
	}
	if job.CurrentRate != 400 {
		t.Errorf("CurrentRate = %v, want the posted rate", job.CurrentRate)
	}
	if jobs.created == nil {
		t.Error("job was not persisted")
	}
}

func TestPostJobUnknownAddress(t *testing.T) {
	svc := newTestService(&stubJobs{}, &stubBids{}, &stubProfiles{}, &stubCatalog{})
	_, err := svc.PostJob(context.Background(), primitive.NewObjectID(), PostJobInput{
		Title:      "Fix kitchen sink",
		CategoryID: primitive.NewObjectID(),
		AddressID:  primitive.NewObjectID(),
		HourlyRate: 400,
	})
	if !IsValidation(err) {
		t.Errorf("PostJob error = %v, want a validation error", err)
	}
}

// The OTP codes have to reach the provider through the job detail, and
// only the provider; the model hides them from every other path.
func TestGetJobOTPVisibility(t *testing.T) {
	providerID, seekerID := primitive.NewObjectID(), primitive.NewObjectID()
	job := ongoingJob(providerID, seekerID)
	job.JobStartOTP = &models.JobOTP{OTP: "4321"}
	job.JobDoneOTP = &models.JobOTP{OTP: "8765"}
	svc := newTestService(&stubJobs{job: job}, &stubBids{}, &stubProfiles{}, &stubCatalog{})

	t.Run("provider sees the codes", func(t *testing.T) {
		detail, err := svc.GetJob(context.Background(), providerID, job.ID)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		raw, err := json.Marshal(detail)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		for _, want := range []string{`"otp":"4321"`, `"otp":"8765"`} {
			if !strings.Contains(string(raw), want) {
				t.Errorf("provider detail missing %s: %s", want, raw)
			}
		}
	})

	t.Run("assignee sees only the verification state", func(t *testing.T) {
		detail, err := svc.GetJob(context.Background(), seekerID, job.ID)
		if err != nil {
			t.Fatalf("GetJob: %v", err)
		}
		raw, err := json.Marshal(detail)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if strings.Contains(string(raw), `"otp"`) {
			t.Errorf("assignee detail leaks the code: %s", raw)
		}
		if !strings.Contains(string(raw), `"job_start_otp"`) {
			t.Errorf("assignee detail dropped the otp state: %s", raw)
		}
	})

	t.Run("bare model never carries the code", func(t *testing.T) {
		raw, err := json.Marshal(job)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if strings.Contains(string(raw), "4321") || strings.Contains(string(raw), "8765") {
			t.Errorf("model serialization leaks the code: %s", raw)
		}
	})
}

func TestVerifyDoneOTPBilling(t *testing.T) {
	providerID, seekerID := primitive.NewObjectID(), primitive.NewObjectID()

	tests := []struct {
		name         string
		workedFor    time.Duration
		wantBillable int
		wantTotal    float64
	}{
		{"under an hour bills one", 10 * time.Minute, 1, 380},
		{"ninety minutes bills two", 90 * time.Minute, 2, 760},
		{"exactly two hours bills two", 120 * time.Minute, 2, 760},
		{"just over two hours bills three", 121 * time.Minute, 3, 1140},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			job := ongoingJob(providerID, seekerID)
			startedAt := time.Now().Add(-tc.workedFor)
			job.JobStartOTP = &models.JobOTP{OTP: "1234", Verified: true, VerifiedAt: &startedAt}

			jobs := &stubJobs{job: job}
			svc := newTestService(jobs, &stubBids{}, &stubProfiles{}, &stubCatalog{})

			done, err := svc.VerifyDoneOTP(context.Background(), seekerID, job.ID, "5678")
			if err != nil {
				t.Fatalf("VerifyDoneOTP: %v", err)
			}
			if jobs.completedArgs.billableHours != tc.wantBillable {
				t.Errorf("billableHours = %d, want %d", jobs.completedArgs.billableHours, tc.wantBillable)
			}
			if jobs.completedArgs.totalAmount != tc.wantTotal {
				t.Errorf("totalAmount = %v, want %v", jobs.completedArgs.totalAmount, tc.wantTotal)
			}
			if done.Status != models.JobStatusCompleted {
				t.Errorf("status = %q, want completed", done.Status)
			}
		})
	}
}

func TestVerifyDoneOTPRequiresStart(t *testing.T) {
	providerID, seekerID := primitive.NewObjectID(), primitive.NewObjectID()
	job := ongoingJob(providerID, seekerID)
	job.JobStartOTP = &models.JobOTP{OTP: "1234"} // never verified

	svc := newTestService(&stubJobs{job: job}, &stubBids{}, &stubProfiles{}, &stubCatalog{})
	if _, err := svc.VerifyDoneOTP(context.Background(), seekerID, job.ID, "5678"); !IsValidation(err) {
		t.Errorf("error = %v, want a validation error", err)
	}
}

func TestSeekerCancelWindow(t *testing.T) {
	providerID, seekerID := primitive.NewObjectID(), primitive.NewObjectID()
	job := ongoingJob(providerID, seekerID)

	t.Run("inside the window refunds the debit", func(t *testing.T) {
		jobs := &stubJobs{job: job}
		bids := &stubBids{accepted: &models.Bid{
			ID: primitive.NewObjectID(), JobID: job.ID, UserID: seekerID,
			Status: models.BidStatusAccepted, UpdatedAt: time.Now().Add(-2 * time.Minute),
		}}
		profiles := &stubProfiles{debit: &models.Transaction{Amount: -118}}
		svc := newTestService(jobs, bids, profiles, &stubCatalog{})

		if err := svc.SeekerCancel(context.Background(), seekerID, job.ID); err != nil {
			t.Fatalf("SeekerCancel: %v", err)
		}
		if jobs.cancelReason != "cancelled by seeker" {
			t.Errorf("reason = %q", jobs.cancelReason)
		}
		if jobs.cancelRefund == nil || jobs.cancelRefund.Amount != 118 {
			t.Errorf("refund = %+v, want the 118 debit back", jobs.cancelRefund)
		}
	})

	t.Run("after the window", func(t *testing.T) {
		jobs := &stubJobs{job: job}
		bids := &stubBids{accepted: &models.Bid{
			ID: primitive.NewObjectID(), JobID: job.ID, UserID: seekerID,
			Status: models.BidStatusAccepted, UpdatedAt: time.Now().Add(-6 * time.Minute),
		}}
		svc := newTestService(jobs, bids, &stubProfiles{}, &stubCatalog{})

		err := svc.SeekerCancel(context.Background(), seekerID, job.ID)
		if err == nil || err.Error() != "Job cannot be cancelled after 5 minutes." {
			t.Errorf("error = %v, want the 5 minute message", err)
		}
	})
}

func TestProviderCancelWindows(t *testing.T) {
	providerID, seekerID := primitive.NewObjectID(), primitive.NewObjectID()
	acceptedBid := func(job *models.Job) *stubBids {
		return &stubBids{accepted: &models.Bid{
			ID: primitive.NewObjectID(), JobID: job.ID, UserID: seekerID,
			Status: models.BidStatusAccepted, UpdatedAt: time.Now(),
		}}
	}

	t.Run("early cancel after five minutes is blocked", func(t *testing.T) {
		job := ongoingJob(providerID, seekerID)
		booked := time.Now().Add(-6 * time.Minute)
		job.JobBookingTime = &booked
		svc := newTestService(&stubJobs{job: job}, acceptedBid(job), &stubProfiles{}, &stubCatalog{})

		err := svc.ProviderCancel(context.Background(), providerID, job.ID)
		if err == nil || err.Error() != "Job cannot be cancelled after 5 minutes." {
			t.Errorf("error = %v, want the 5 minute message", err)
		}
	})

	t.Run("delayed cancel before forty-five minutes is blocked", func(t *testing.T) {
		job := ongoingJob(providerID, seekerID)
		booked := time.Now().Add(-30 * time.Minute)
		job.JobBookingTime = &booked
		svc := newTestService(&stubJobs{job: job}, acceptedBid(job), &stubProfiles{}, &stubCatalog{})

		err := svc.DelayedCancel(context.Background(), providerID, job.ID)
		if err == nil || err.Error() != "Job cannot be cancelled before 45 minutes." {
			t.Errorf("error = %v, want the 45 minute message", err)
		}
	})

	t.Run("delayed cancel carries no refund", func(t *testing.T) {
		job := ongoingJob(providerID, seekerID)
		booked := time.Now().Add(-50 * time.Minute)
		job.JobBookingTime = &booked
		jobs := &stubJobs{job: job}
		profiles := &stubProfiles{debit: &models.Transaction{Amount: -118}}
		svc := newTestService(jobs, acceptedBid(job), profiles, &stubCatalog{})

		if err := svc.DelayedCancel(context.Background(), providerID, job.ID); err != nil {
			t.Fatalf("DelayedCancel: %v", err)
		}
		if jobs.cancelRefund != nil {
			t.Errorf("refund = %+v, want none", jobs.cancelRefund)
		}
	})
}

func TestSubmitReview(t *testing.T) {
	providerID, seekerID := primitive.NewObjectID(), primitive.NewObjectID()
	completed := ongoingJob(providerID, seekerID)
	completed.Status = models.JobStatusCompleted

	t.Run("provider reviews the seeker", func(t *testing.T) {
		jobs := &stubJobs{job: completed, reviewStored: true}
		profiles := &stubProfiles{}
		svc := newTestService(jobs, &stubBids{}, profiles, &stubCatalog{})

		if err := svc.SubmitReview(context.Background(), providerID, completed.ID, 4.5, "quick work"); err != nil {
			t.Fatalf("SubmitReview: %v", err)
		}
		if jobs.reviewField != "provider_review" {
			t.Errorf("review field = %q", jobs.reviewField)
		}
		if profiles.ratedSide != "seeker_stats" || profiles.ratedUserID != seekerID {
			t.Errorf("rating applied to %q/%s", profiles.ratedSide, profiles.ratedUserID.Hex())
		}
	})

	t.Run("seeker reviews the provider", func(t *testing.T) {
		jobs := &stubJobs{job: completed, reviewStored: true}
		profiles := &stubProfiles{}
		svc := newTestService(jobs, &stubBids{}, profiles, &stubCatalog{})

		if err := svc.SubmitReview(context.Background(), seekerID, completed.ID, 5, ""); err != nil {
			t.Fatalf("SubmitReview: %v", err)
		}
		if jobs.reviewField != "seeker_review" {
			t.Errorf("review field = %q", jobs.reviewField)
		}
		if profiles.ratedSide != "provider_stats" || profiles.ratedUserID != providerID {
			t.Errorf("rating applied to %q/%s", profiles.ratedSide, profiles.ratedUserID.Hex())
		}
	})

	t.Run("second review is rejected", func(t *testing.T) {
		jobs := &stubJobs{job: completed, reviewStored: false}
		svc := newTestService(jobs, &stubBids{}, &stubProfiles{}, &stubCatalog{})
		if err := svc.SubmitReview(context.Background(), providerID, completed.ID, 4, ""); !errors.Is(err, ErrDuplicateReview) {
			t.Errorf("error = %v, want %v", err, ErrDuplicateReview)
		}
	})

	t.Run("rating bounds", func(t *testing.T) {
		svc := newTestService(&stubJobs{job: completed}, &stubBids{}, &stubProfiles{}, &stubCatalog{})
		if err := svc.SubmitReview(context.Background(), providerID, completed.ID, 0, ""); !IsValidation(err) {
			t.Errorf("error = %v, want a validation error", err)
		}
		if err := svc.SubmitReview(context.Background(), providerID, completed.ID, 6, ""); !IsValidation(err) {
			t.Errorf("error = %v, want a validation error", err)
		}
	})

	t.Run("outsider cannot review", func(t *testing.T) {
		svc := newTestService(&stubJobs{job: completed}, &stubBids{}, &stubProfiles{}, &stubCatalog{})
		if err := svc.SubmitReview(context.Background(), primitive.NewObjectID(), completed.ID, 4, ""); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("error = %v, want %v", err, ErrUnauthorized)
		}
	})
}
