package prediction

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Disclaimer is the fixed compliance text included in every report.
const Disclaimer = "Disclaimer: This AI prediction is for informational purposes only. " +
	"Consult healthcare professionals for medical decisions."

// Render builds a complete Report from validated inputs. Pure and
// deterministic: the caller supplies the generation timestamp. Given input
// that passed Validate, it cannot fail.
func Render(rec PatientRecord, result PredictionResult, recipient string, at time.Time) Report {
	amount := FormatINR(result.PredictedClaimAmount)
	confidencePct := ConfidencePercent(result.Confidence)

	body := ReportBody{
		PatientSummary: []string{
			fmt.Sprintf("Age: %d years", rec.Age),
			fmt.Sprintf("BMI: %.1f", rec.BodyMassIndex),
			fmt.Sprintf("Gender: %s", rec.Gender),
			fmt.Sprintf("Smoker: %s", rec.Smoker),
			fmt.Sprintf("Region: %s", rec.Region),
			fmt.Sprintf("Annual Premium: %s", FormatINR(rec.AnnualPremium)),
		},
		Prediction: fmt.Sprintf("Predicted claim amount: %s (confidence %.1f%%)", amount, confidencePct),
		Disclaimer: Disclaimer,
	}

	return Report{
		RecipientAddress: recipient,
		SubjectLine:      fmt.Sprintf("MediCare+ Insurance Claim Report - %s", amount),
		Body:             body,
		GeneratedAt:      at.UTC(),
	}
}

// ConfidencePercent converts a [0,1] confidence to a percentage rounded to
// one decimal place.
func ConfidencePercent(confidence float64) float64 {
	return math.Round(confidence*1000) / 10
}

// FormatINR renders an amount in Indian Rupees, rounded to whole rupees with
// comma grouping, e.g. ₹12,345.
func FormatINR(v float64) string {
	neg := v < 0
	n := int64(math.Round(math.Abs(v)))
	s := strconv.FormatInt(n, 10)

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := "₹" + strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
