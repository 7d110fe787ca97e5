package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

// FeeBreakdown freezes the platform lead fee components at the moment of
// debit. total_fee = base_fee + gst_amount.
type FeeBreakdown struct {
	HourlyRate float64 `bson:"hourly_rate" json:"hourly_rate"`
	BaseFee    float64 `bson:"base_fee" json:"base_fee"`
	GSTAmount  float64 `bson:"gst_amount" json:"gst_amount"`
	TotalFee   float64 `bson:"total_fee" json:"total_fee"`
}

// Transaction is one signed wallet ledger entry. The wallet balance is
// always the sum of a user's transaction amounts.
type Transaction struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Amount          float64             `bson:"amount" json:"amount"` // signed
	TransactionType string              `bson:"transaction_type" json:"transaction_type"`
	Description     string              `bson:"description" json:"description"`
	JobID           *primitive.ObjectID `bson:"job_id,omitempty" json:"job_id,omitempty"`
	FeeBreakdown    *FeeBreakdown       `bson:"fee_breakdown,omitempty" json:"fee_breakdown,omitempty"`
	CreatedAt       time.Time           `bson:"created_at" json:"created_at"`
}
