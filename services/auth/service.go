package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"workerlly/config"
	userRepo "workerlly/database/repository/user"
	"workerlly/models"
	"workerlly/utils"
)

var mobilePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// ErrInvalidOTP is returned when OTP verification fails for any reason:
// wrong code, expired, or never requested.
var ErrInvalidOTP = errors.New("invalid or expired OTP")

// Service runs the mobile-OTP login flow and issues bearer tokens.
type Service struct {
	users userRepo.UserRepository
}

// NewService wires the auth service.
func NewService(users userRepo.UserRepository) *Service {
	return &Service{users: users}
}

// LoginResult carries the issued token and the user it belongs to.
type LoginResult struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	IsNewUser bool         `json:"is_new_user"`
}

// RequestOTP sends a login code to the mobile number.
func (s *Service) RequestOTP(ctx context.Context, mobile string) error {
	if !mobilePattern.MatchString(mobile) {
		return fmt.Errorf("invalid mobile number")
	}
	return utils.InitiateLoginOTP(mobile)
}

// VerifyOTP checks the code, creates the user on first login, and issues
// the bearer token. The token hash is cached so the auth middleware can
// validate without a DB round trip.
func (s *Service) VerifyOTP(ctx context.Context, mobile, otp string) (*LoginResult, error) {
	if err := utils.VerifyLoginOTP(mobile, otp); err != nil {
		return nil, ErrInvalidOTP
	}

	user, err := s.users.GetByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}
	isNew := user == nil
	if isNew {
		user = &models.User{
			Mobile: mobile,
			Roles:  []string{models.RoleProvider, models.RoleSeeker},
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
	}

	expiry := time.Duration(config.AppConfig.TokenExpiryHours) * time.Hour
	token, err := utils.GenerateToken(user.ID.Hex(), user.Roles, expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	// Best effort: a cache miss just sends the middleware to the DB.
	cacheKey := utils.AuthCachePrefix + utils.HashToken(token)
	if client := utils.GetAuthCacheClient(); client != nil {
		if err := client.Set(ctx, cacheKey, user.ID.Hex(), utils.AuthCacheTTL).Err(); err != nil {
			utils.GetLogger().Sugar().Warnf("failed to cache auth token: %v", err)
		}
	}

	return &LoginResult{Token: token, User: user, IsNewUser: isNew}, nil
}
