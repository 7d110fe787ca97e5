package job

import (
	"context"

	"workerlly/config"
	"workerlly/models"
	"workerlly/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusReport is the seeker's online-state view, including the wallet
// floor their category/city currently demands.
type StatusReport struct {
	Online             bool    `json:"online"`
	WalletBalance      float64 `json:"wallet_balance"`
	MinBalanceRequired float64 `json:"min_balance_required"`
	UserStatus         string  `json:"user_status"`
}

// minBalanceFor computes the admission floor from the seeker's
// (category, city) rate card. An unpriced pair has no floor.
func (s *Service) minBalanceFor(ctx context.Context, stats *models.UserStats) (float64, error) {
	card, err := s.catalog.GetRateCard(ctx, stats.SeekerStats.Category.CategoryID, stats.SeekerStats.CityID)
	if err != nil {
		return 0, err
	}
	if card == nil {
		return 0, nil
	}
	return utils.MinimumBalanceRequired(card.MinHourlyRate,
		config.AppConfig.PlatformFeePercent, config.AppConfig.GSTPercent), nil
}

// SetOnline flips the seeker's explicit online flag. Going online is
// gated on the wallet floor; going offline always succeeds.
func (s *Service) SetOnline(ctx context.Context, seekerID primitive.ObjectID, online bool) (*StatusReport, error) {
	stats, err := s.profiles.GetByUserID(ctx, seekerID)
	if err != nil {
		return nil, err
	}
	if stats == nil || stats.SeekerStats == nil {
		return nil, Validationf("seeker profile not found")
	}

	minBalance, err := s.minBalanceFor(ctx, stats)
	if err != nil {
		return nil, err
	}
	if online && stats.SeekerStats.WalletBalance < minBalance {
		return nil, Validationf("Insufficient balance to go online. Minimum balance required: %v", minBalance)
	}

	if err := s.users.SetStatus(ctx, seekerID, online); err != nil {
		return nil, err
	}
	return &StatusReport{
		Online:             online,
		WalletBalance:      stats.SeekerStats.WalletBalance,
		MinBalanceRequired: minBalance,
		UserStatus:         stats.SeekerStats.UserStatus.CurrentStatus,
	}, nil
}

// Status is the polling read. A seeker found online with a wallet under
// the floor is flipped offline silently, with no error to the caller.
func (s *Service) Status(ctx context.Context, seekerID primitive.ObjectID) (*StatusReport, error) {
	user, err := s.users.GetByID(ctx, seekerID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, Validationf("user not found")
	}
	stats, err := s.profiles.GetByUserID(ctx, seekerID)
	if err != nil {
		return nil, err
	}
	if stats == nil || stats.SeekerStats == nil {
		return nil, Validationf("seeker profile not found")
	}

	minBalance, err := s.minBalanceFor(ctx, stats)
	if err != nil {
		return nil, err
	}

	online := user.Status
	if online && stats.SeekerStats.WalletBalance < minBalance {
		if err := s.users.SetStatus(ctx, seekerID, false); err != nil {
			return nil, err
		}
		online = false
	}
	return &StatusReport{
		Online:             online,
		WalletBalance:      stats.SeekerStats.WalletBalance,
		MinBalanceRequired: minBalance,
		UserStatus:         stats.SeekerStats.UserStatus.CurrentStatus,
	}, nil
}
