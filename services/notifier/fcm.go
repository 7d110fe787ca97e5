package notifier

import (
	"context"
	"fmt"

	tokenRepo "workerlly/database/repository/token"
	"workerlly/utils"

	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// PushSender delivers one notification to all of a user's devices for an
// app type. Returns true when at least one device accepted it.
type PushSender interface {
	Push(ctx context.Context, userID, appType, title, body string, data map[string]string) (bool, error)
}

// FCMSender implements PushSender over Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
	tokens tokenRepo.TokenRepository
}

// NewFCMSender builds the sender. Tokens FCM reports as permanently dead
// are deactivated through the token repository.
func NewFCMSender(client *messaging.Client, tokens tokenRepo.TokenRepository) *FCMSender {
	return &FCMSender{client: client, tokens: tokens}
}

// Push multicasts to the user's active tokens for the app type.
func (s *FCMSender) Push(ctx context.Context, userID, appType, title, body string, data map[string]string) (bool, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	tokens, err := s.tokens.ActiveTokens(ctx, uid, appType)
	if err != nil {
		return false, err
	}
	if len(tokens) == 0 {
		return false, nil
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	br, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return false, fmt.Errorf("fcm multicast failed: %w", err)
	}

	for i, resp := range br.Responses {
		if resp.Success {
			continue
		}
		if messaging.IsRegistrationTokenNotRegistered(resp.Error) ||
			messaging.IsInvalidArgument(resp.Error) {
			if derr := s.tokens.DeactivateByToken(ctx, tokens[i]); derr != nil {
				utils.GetLogger().Warn("failed to deactivate dead token", zap.Error(derr))
			}
		}
	}
	return br.SuccessCount > 0, nil
}
