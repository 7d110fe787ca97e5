package userRepo

import (
	"context"

	"workerlly/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRepository manages authentication identities.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByIDWithProjection(ctx context.Context, id primitive.ObjectID, projection bson.M) (*models.User, error)
	GetByMobile(ctx context.Context, mobile string) (*models.User, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, online bool) error
}
