package utils

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// GenerateNumericOTP generates a secure random numeric OTP of the given
// length. Job start/done codes and login codes both use this.
func GenerateNumericOTP(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// SendSMS delivers a message through the SMS gateway. The gateway itself
// is an external collaborator; in development the message is logged.
func SendSMS(mobile, message string) error {
	GetLogger().Sugar().Infof("Sending SMS to %s: %s", mobile, message)
	return nil
}

// InitiateLoginOTP generates a login OTP, stores it in Redis with a
// 5-minute TTL and sends it to the given mobile number.
func InitiateLoginOTP(mobile string) error {
	otp, err := GenerateNumericOTP(4)
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}
	ttl := 5 * time.Minute
	otpKey := fmt.Sprintf("otp:login:%s", mobile)

	ctx := context.Background()
	client := GetOTPCacheClient()
	if client == nil {
		return fmt.Errorf("OTP cache client not initialized")
	}

	if err := client.Set(ctx, otpKey, otp, ttl).Err(); err != nil {
		GetLogger().Error("Failed to cache OTP", zap.Error(err))
		return fmt.Errorf("failed to initiate login OTP")
	}

	message := fmt.Sprintf("Your Workerlly OTP is: %s. It expires in 5 minutes.", otp)
	if err := SendSMS(mobile, message); err != nil {
		GetLogger().Error("Failed to send OTP via SMS", zap.Error(err))
		return fmt.Errorf("failed to send OTP")
	}

	return nil
}

// VerifyLoginOTP retrieves the stored OTP from Redis and compares it to
// the provided OTP. If they match, it deletes the OTP from the cache.
func VerifyLoginOTP(mobile, providedOTP string) error {
	otpKey := fmt.Sprintf("otp:login:%s", mobile)
	ctx := context.Background()
	client := GetOTPCacheClient()
	if client == nil {
		return fmt.Errorf("OTP cache client not initialized")
	}

	storedOTP, err := client.Get(ctx, otpKey).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("OTP not found or expired")
		}
		return fmt.Errorf("failed to retrieve OTP: %w", err)
	}

	if storedOTP != providedOTP {
		return fmt.Errorf("OTP does not match")
	}

	// Delete the OTP after successful verification.
	if err := client.Del(ctx, otpKey).Err(); err != nil {
		GetLogger().Error("Failed to delete OTP after verification", zap.Error(err))
	}
	return nil
}
