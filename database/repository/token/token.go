package tokenRepo

import (
	"context"

	"workerlly/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TokenRepository owns FCM device registrations.
type TokenRepository interface {
	// Upsert registers or refreshes a token keyed by
	// (user_id, device_id, app_type) and reactivates it.
	Upsert(ctx context.Context, token *models.PushToken) error

	// Deactivate marks a registration inactive. Used both for explicit
	// unregistration and for tokens FCM reports as dead.
	Deactivate(ctx context.Context, userID primitive.ObjectID, deviceID, appType string) error

	// DeactivateByToken retires every registration carrying the given
	// token string, regardless of owner.
	DeactivateByToken(ctx context.Context, token string) error

	// ActiveTokens returns the active token strings for a user, filtered
	// by app type when appType is non-empty.
	ActiveTokens(ctx context.Context, userID primitive.ObjectID, appType string) ([]string, error)
}
