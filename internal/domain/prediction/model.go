package prediction

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Gender is the closed set of accepted gender values.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// SmokerStatus is the canonical Yes/No smoker flag.
type SmokerStatus string

const (
	SmokerYes SmokerStatus = "Yes"
	SmokerNo  SmokerStatus = "No"
)

// Region is the closed set of coverage regions in the source dataset.
type Region string

const (
	RegionNorth Region = "North"
	RegionSouth Region = "South"
	RegionEast  Region = "East"
	RegionWest  Region = "West"
)

// PatientRecord is the validated, canonical feature set for one request.
// It is immutable once constructed and never persisted as an entity itself.
type PatientRecord struct {
	Age           int          `json:"age"`
	BodyMassIndex float64      `json:"bodyMassIndex"`
	Gender        Gender       `json:"gender"`
	Smoker        SmokerStatus `json:"smoker"`
	Region        Region       `json:"region"`
	AnnualPremium float64      `json:"annualPremium"`
}

// PredictionResult is the model output for a PatientRecord.
type PredictionResult struct {
	PredictedClaimAmount float64 `json:"predictedClaimAmount"`
	Confidence           float64 `json:"confidence"`
}

// ReportBody is the structured content of a rendered report.
type ReportBody struct {
	PatientSummary []string `json:"patient_summary"`
	Prediction     string   `json:"prediction"`
	Disclaimer     string   `json:"disclaimer"`
}

// Text flattens the structured body into the plain-text form handed to the
// notifier and the delivery store.
func (b ReportBody) Text() string {
	var sb strings.Builder
	sb.WriteString("Patient Details\n")
	for _, line := range b.PatientSummary {
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(b.Prediction)
	sb.WriteString("\n\n")
	sb.WriteString(b.Disclaimer)
	sb.WriteString("\n")
	return sb.String()
}

// Report is a fully rendered, deliverable representation of a prediction.
// A Report is always complete before it reaches the notifier or the store.
type Report struct {
	RecipientAddress string     `json:"recipientAddress"`
	SubjectLine      string     `json:"subjectLine"`
	Body             ReportBody `json:"body"`
	GeneratedAt      time.Time  `json:"generatedAt"`
}

// DeliveryStatus describes whether a report reached the recipient.
type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "Delivered"
	DeliveryLocalOnly DeliveryStatus = "LocalOnly"
	DeliveryFailed    DeliveryStatus = "Failed"
)

// DeliveryChannel names the transport that carried (or failed to carry) a report.
type DeliveryChannel string

const (
	ChannelPrimary DeliveryChannel = "Primary"
	ChannelNone    DeliveryChannel = "None"
)

// DeliveryOutcome is the authoritative answer about whether the recipient
// will actually receive a message. Exactly one is produced per request.
type DeliveryOutcome struct {
	Status      DeliveryStatus  `json:"status"`
	Channel     DeliveryChannel `json:"channel"`
	AttemptedAt time.Time       `json:"attemptedAt"`
	Reason      string          `json:"reason,omitempty"`
}

// SmokerInput accepts either a JSON boolean or a Yes/No style string, since
// both shapes appear in caller payloads.
type SmokerInput struct {
	set   bool
	value string
}

func (s *SmokerInput) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		s.set = true
		if b {
			s.value = string(SmokerYes)
		} else {
			s.value = string(SmokerNo)
		}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		s.set = true
		s.value = str
		return nil
	}
	return fmt.Errorf("smoker must be a boolean or a string")
}

func (s SmokerInput) MarshalJSON() ([]byte, error) {
	if !s.set {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

// Set reports whether a smoker value was supplied.
func (s SmokerInput) Set() bool { return s.set }

// String returns the raw supplied value.
func (s SmokerInput) String() string { return s.value }

// RawPatientRecord is the unvalidated inbound payload. Pointer fields
// distinguish "absent" from zero values.
type RawPatientRecord struct {
	Age           *int         `json:"age"`
	BodyMassIndex *float64     `json:"bodyMassIndex"`
	Gender        *string      `json:"gender"`
	Smoker        *SmokerInput `json:"smoker"`
	Region        *string      `json:"region"`
	AnnualPremium *float64     `json:"annualPremium"`
}
