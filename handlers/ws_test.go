package handlers

import (
	"context"
	"encoding/json"
	"testing"

	bidRepo "workerlly/database/repository/bid"
	jobRepo "workerlly/database/repository/job"
	profileRepo "workerlly/database/repository/profile"
	"workerlly/models"
	"workerlly/services/bidding"
	"workerlly/services/registry"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type wsStubJobs struct {
	jobRepo.JobRepository
	job *models.Job
}

func (s *wsStubJobs) GetByID(context.Context, primitive.ObjectID) (*models.Job, error) {
	return s.job, nil
}

type wsStubBids struct {
	bidRepo.BidRepository
	bids []models.Bid
}

func (s *wsStubBids) ListByJob(context.Context, primitive.ObjectID) ([]models.Bid, error) {
	return s.bids, nil
}

type wsStubProfiles struct {
	profileRepo.ProfileRepository
}

func (s *wsStubProfiles) GetByUserID(context.Context, primitive.ObjectID) (*models.UserStats, error) {
	return nil, nil
}

// The bid sheet goes back on the job_details envelope, not a type of its
// own.
func TestGetBidsForJobRepliesAsJobDetails(t *testing.T) {
	providerID := primitive.NewObjectID()
	job := &models.Job{
		ID:     primitive.NewObjectID(),
		UserID: providerID,
		Status: models.JobStatusPending,
	}
	bid := models.Bid{
		ID:     primitive.NewObjectID(),
		JobID:  job.ID,
		UserID: primitive.NewObjectID(),
		Amount: 380,
		Status: models.BidStatusPending,
	}

	svc := bidding.NewService(nil, &wsStubProfiles{}, &wsStubJobs{job: job}, &wsStubBids{bids: []models.Bid{bid}}, nil, nil)
	h := &WSHandler{bids: svc}

	client := registry.NewClient(registry.NewRegistry(), nil, providerID.Hex(), nil, nil, nil, nil)
	h.dispatch(client, models.SocketMessage{
		Type: "get_bids_for_job",
		Data: map[string]interface{}{"job_id": job.ID.Hex()},
	})

	select {
	case raw := <-client.Send:
		var msg struct {
			Type string                 `json:"type"`
			Data map[string]interface{} `json:"data"`
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshal reply: %v", err)
		}
		if msg.Type != "job_details" {
			t.Errorf("reply type = %q, want job_details", msg.Type)
		}
		if msg.Data["job_id"] != job.ID.Hex() {
			t.Errorf("job_id = %v", msg.Data["job_id"])
		}
		bids, ok := msg.Data["bids"].([]interface{})
		if !ok || len(bids) != 1 {
			t.Errorf("bids = %v, want one entry", msg.Data["bids"])
		}
	default:
		t.Fatal("no reply queued")
	}
}
