package jobRepo

import (
	"context"
	"testing"

	profileRepo "workerlly/database/repository/profile"
	"workerlly/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type occupancyProfiles struct {
	profileRepo.ProfileRepository
	seekerFreed   *models.OccupancyStatus
	providerFreed *models.OccupancyStatus
}

func (p *occupancyProfiles) SetSeekerOccupancy(_ context.Context, _ primitive.ObjectID, status models.OccupancyStatus) error {
	p.seekerFreed = &status
	return nil
}

func (p *occupancyProfiles) SetProviderOccupancy(_ context.Context, _ primitive.ObjectID, status models.OccupancyStatus) error {
	p.providerFreed = &status
	return nil
}

// A closing job must release both the assigned seeker and the posting
// provider, whatever path closed it.
func TestReleaseParticipantsFreesBothSides(t *testing.T) {
	seekerID := primitive.NewObjectID()
	job := &models.Job{
		ID:         primitive.NewObjectID(),
		UserID:     primitive.NewObjectID(),
		AssignedTo: &seekerID,
	}

	profiles := &occupancyProfiles{}
	repo := &MongoJobRepo{profiles: profiles}

	if err := repo.releaseParticipants(context.Background(), job, "Job completed"); err != nil {
		t.Fatalf("releaseParticipants: %v", err)
	}
	if profiles.seekerFreed == nil || profiles.seekerFreed.CurrentStatus != models.UserStatusFree {
		t.Errorf("seeker occupancy = %+v, want free", profiles.seekerFreed)
	}
	if profiles.providerFreed == nil || profiles.providerFreed.CurrentStatus != models.UserStatusFree {
		t.Errorf("provider occupancy = %+v, want free", profiles.providerFreed)
	}
	if profiles.providerFreed != nil && profiles.providerFreed.Reason != "Job completed" {
		t.Errorf("provider release reason = %q", profiles.providerFreed.Reason)
	}
}

func TestReleaseParticipantsUnassignedJob(t *testing.T) {
	job := &models.Job{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID()}

	profiles := &occupancyProfiles{}
	repo := &MongoJobRepo{profiles: profiles}

	if err := repo.releaseParticipants(context.Background(), job, "cancelled by system"); err != nil {
		t.Fatalf("releaseParticipants: %v", err)
	}
	if profiles.seekerFreed != nil {
		t.Errorf("seeker occupancy touched on an unassigned job: %+v", profiles.seekerFreed)
	}
	if profiles.providerFreed == nil {
		t.Error("provider was not freed")
	}
}
