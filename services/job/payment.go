package job

import (
	"context"
	"fmt"
	"math"

	"workerlly/config"
	"workerlly/models"
	"workerlly/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// PaymentOrder is the client-side handle for settling a completed job.
type PaymentOrder struct {
	PaymentIntentID string  `json:"payment_intent_id"`
	ClientSecret    string  `json:"client_secret"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
}

// CreatePaymentOrder opens a payment intent for the job's total. Only the
// provider of a completed, unpaid job can settle it.
func (s *Service) CreatePaymentOrder(ctx context.Context, providerID, jobID primitive.ObjectID) (*PaymentOrder, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if job.UserID != providerID {
		return nil, ErrUnauthorized
	}
	if job.Status != models.JobStatusCompleted {
		return nil, Validationf("job is not completed")
	}
	if job.PaymentStatus.Paid {
		return nil, Validationf("job is already paid")
	}

	stripe.Key = config.AppConfig.StripeKey
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(math.Round(job.TotalAmount * 100))),
		Currency: stripe.String(string(stripe.CurrencyINR)),
	}
	params.AddMetadata("job_id", job.ID.Hex())
	params.AddMetadata("task_id", job.TaskID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return &PaymentOrder{
		PaymentIntentID: pi.ID,
		ClientSecret:    pi.ClientSecret,
		Amount:          job.TotalAmount,
		Currency:        string(stripe.CurrencyINR),
	}, nil
}

// HandlePaymentWebhook verifies the gateway signature and, on a
// successful intent, marks the job paid. Settlement touches only the
// payment fields, never job state.
func (s *Service) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, config.AppConfig.StripeWebhookSecret)
	if err != nil {
		return fmt.Errorf("invalid webhook signature: %w", err)
	}
	if event.Type != "payment_intent.succeeded" {
		return nil
	}

	jobIDHex := event.GetObjectValue("metadata", "job_id")
	if jobIDHex == "" {
		utils.GetLogger().Warn("payment intent without job metadata", zap.String("event_id", event.ID))
		return nil
	}
	jobID, err := primitive.ObjectIDFromHex(jobIDHex)
	if err != nil {
		return fmt.Errorf("invalid job id in payment metadata: %w", err)
	}
	return s.jobs.SetPaymentStatus(ctx, jobID, "stripe")
}
