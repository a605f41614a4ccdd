package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one historical record joining a request's inputs, prediction, and
// delivery outcome. Written once after the delivery outcome is known, never
// updated. The column set matches the externally owned audit schema, so the
// patient and prediction snapshots are stored as flat fields.
type Entry struct {
	ID               uuid.UUID `db:"id" json:"id"`
	RecipientAddress string    `db:"recipient_address" json:"recipient_address"`

	Age           int     `db:"age" json:"age"`
	BodyMassIndex float64 `db:"bmi" json:"bmi"`
	Gender        string  `db:"gender" json:"gender"`
	Smoker        string  `db:"smoker" json:"smoker"`
	Region        string  `db:"region" json:"region"`
	AnnualPremium float64 `db:"annual_premium" json:"annual_premium"`

	PredictedClaimAmount float64 `db:"predicted_claim_amount" json:"predicted_claim_amount"`
	Confidence           float64 `db:"confidence" json:"confidence"`

	ReportSubject     string    `db:"report_subject" json:"report_subject"`
	ReportGeneratedAt time.Time `db:"report_generated_at" json:"report_generated_at"`

	DeliveryStatus      string    `db:"delivery_status" json:"delivery_status"`
	DeliveryChannel     string    `db:"delivery_channel" json:"delivery_channel"`
	DeliveryReason      string    `db:"delivery_reason" json:"delivery_reason,omitempty"`
	DeliveryAttemptedAt time.Time `db:"delivery_attempted_at" json:"delivery_attempted_at"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
