package job

import (
	"context"
	"testing"

	"workerlly/config"
	userRepo "workerlly/database/repository/user"
	"workerlly/models"
	"workerlly/services/registry"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubUsers struct {
	userRepo.UserRepository
	user      *models.User
	setStatus *bool
}

func (s *stubUsers) GetByID(context.Context, primitive.ObjectID) (*models.User, error) {
	return s.user, nil
}

func (s *stubUsers) SetStatus(_ context.Context, _ primitive.ObjectID, online bool) error {
	s.setStatus = &online
	return nil
}

func seekerStats(wallet float64) *models.UserStats {
	return &models.UserStats{
		SeekerStats: &models.SeekerStats{
			Category:      models.SeekerCategory{CategoryID: primitive.NewObjectID()},
			CityID:        primitive.NewObjectID(),
			WalletBalance: wallet,
			UserStatus:    models.OccupancyStatus{CurrentStatus: models.UserStatusFree},
		},
	}
}

func statusService(users *stubUsers, profiles *stubProfiles, catalog *stubCatalog) *Service {
	return NewService(&stubJobs{}, &stubBids{}, profiles, users, catalog, deadCache(), quietHub(), registry.NewRegistry())
}

func setStatusFeeConfig(t *testing.T) {
	t.Helper()
	prevFee, prevGST := config.AppConfig.PlatformFeePercent, config.AppConfig.GSTPercent
	config.AppConfig.PlatformFeePercent = 25
	config.AppConfig.GSTPercent = 18
	t.Cleanup(func() {
		config.AppConfig.PlatformFeePercent = prevFee
		config.AppConfig.GSTPercent = prevGST
	})
}

func TestSetOnline(t *testing.T) {
	setStatusFeeConfig(t)
	card := &models.RateCard{MinHourlyRate: 400} // floor 118

	t.Run("sufficient balance goes online", func(t *testing.T) {
		users := &stubUsers{}
		svc := statusService(users, &stubProfiles{stats: seekerStats(200)}, &stubCatalog{card: card})

		report, err := svc.SetOnline(context.Background(), primitive.NewObjectID(), true)
		if err != nil {
			t.Fatalf("SetOnline: %v", err)
		}
		if !report.Online || report.MinBalanceRequired != 118 {
			t.Errorf("report = %+v", report)
		}
		if users.setStatus == nil || !*users.setStatus {
			t.Error("online flag was not persisted")
		}
	})

	t.Run("under the floor is rejected with the exact message", func(t *testing.T) {
		users := &stubUsers{}
		svc := statusService(users, &stubProfiles{stats: seekerStats(50)}, &stubCatalog{card: card})

		_, err := svc.SetOnline(context.Background(), primitive.NewObjectID(), true)
		if err == nil || err.Error() != "Insufficient balance to go online. Minimum balance required: 118" {
			t.Errorf("error = %v", err)
		}
		if users.setStatus != nil {
			t.Error("status must not change on a rejected request")
		}
	})

	t.Run("going offline ignores the floor", func(t *testing.T) {
		users := &stubUsers{}
		svc := statusService(users, &stubProfiles{stats: seekerStats(0)}, &stubCatalog{card: card})

		report, err := svc.SetOnline(context.Background(), primitive.NewObjectID(), false)
		if err != nil {
			t.Fatalf("SetOnline: %v", err)
		}
		if report.Online {
			t.Error("report still online")
		}
	})

	t.Run("unpriced pair has no floor", func(t *testing.T) {
		users := &stubUsers{}
		svc := statusService(users, &stubProfiles{stats: seekerStats(0)}, &stubCatalog{})

		report, err := svc.SetOnline(context.Background(), primitive.NewObjectID(), true)
		if err != nil {
			t.Fatalf("SetOnline: %v", err)
		}
		if report.MinBalanceRequired != 0 {
			t.Errorf("MinBalanceRequired = %v, want 0", report.MinBalanceRequired)
		}
	})
}

// A seeker polled while online with a drained wallet is flipped offline
// silently.
func TestStatusAutoOffline(t *testing.T) {
	setStatusFeeConfig(t)
	card := &models.RateCard{MinHourlyRate: 400}

	users := &stubUsers{user: &models.User{Status: true}}
	svc := statusService(users, &stubProfiles{stats: seekerStats(10)}, &stubCatalog{card: card})

	report, err := svc.Status(context.Background(), primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if report.Online {
		t.Error("report still online below the floor")
	}
	if users.setStatus == nil || *users.setStatus {
		t.Error("offline flip was not persisted")
	}
}
