package notifier

import (
	"context"
	"fmt"

	profileRepo "workerlly/database/repository/profile"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecipientContext carries the routing fields an event resolver may
// consult. Producers fill only the fields their event's resolver needs.
type RecipientContext struct {
	// Category and city of the job, for the seekers cohort.
	CategoryID string
	CityID     string
	// The job's provider, for job_owner events.
	JobOwnerID string
	// The one target of a specific event.
	UserID string
}

// Resolver turns an event's routing context into recipient user ids.
type Resolver interface {
	Resolve(ctx context.Context, rc RecipientContext) ([]string, error)
}

// seekersResolver returns every seeker registered in the job's category
// and city, from the persistent store (not the connection registry, so
// offline seekers can still receive a push).
type seekersResolver struct {
	profiles profileRepo.ProfileRepository
}

func (r *seekersResolver) Resolve(ctx context.Context, rc RecipientContext) ([]string, error) {
	categoryID, err := primitive.ObjectIDFromHex(rc.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("invalid category id %q: %w", rc.CategoryID, err)
	}
	cityID, err := primitive.ObjectIDFromHex(rc.CityID)
	if err != nil {
		return nil, fmt.Errorf("invalid city id %q: %w", rc.CityID, err)
	}

	ids, err := r.profiles.FindSeekerIDs(ctx, categoryID, cityID)
	if err != nil {
		return nil, err
	}
	recipients := make([]string, 0, len(ids))
	for _, id := range ids {
		recipients = append(recipients, id.Hex())
	}
	return recipients, nil
}

// jobOwnerResolver targets the provider who posted the job.
type jobOwnerResolver struct{}

func (r *jobOwnerResolver) Resolve(_ context.Context, rc RecipientContext) ([]string, error) {
	if rc.JobOwnerID == "" {
		return nil, fmt.Errorf("job owner resolver requires a job owner id")
	}
	return []string{rc.JobOwnerID}, nil
}

// specificResolver targets exactly one named user.
type specificResolver struct{}

func (r *specificResolver) Resolve(_ context.Context, rc RecipientContext) ([]string, error) {
	if rc.UserID == "" {
		return nil, fmt.Errorf("specific resolver requires a user id")
	}
	return []string{rc.UserID}, nil
}
