package prediction

import (
	"strings"
)

// Bounds for numeric feature validation.
const (
	MaxAge = 130
	MaxBMI = 100
)

var validGenders = map[string]Gender{
	"male":   GenderMale,
	"female": GenderFemale,
	"other":  GenderOther,
}

var validSmoker = map[string]SmokerStatus{
	"yes":   SmokerYes,
	"no":    SmokerNo,
	"true":  SmokerYes,
	"false": SmokerNo,
}

var validRegions = map[string]Region{
	"north": RegionNorth,
	"south": RegionSouth,
	"east":  RegionEast,
	"west":  RegionWest,
}

// Validate checks a raw payload and returns the canonical PatientRecord.
// It is a pure function: no I/O, deterministic, and idempotent on input
// that is already canonical.
func Validate(raw RawPatientRecord) (PatientRecord, error) {
	var rec PatientRecord

	if raw.Age == nil {
		return rec, &ValidationError{Field: "age", Message: "required"}
	}
	if *raw.Age <= 0 || *raw.Age > MaxAge {
		return rec, &ValidationError{Field: "age", Message: "must be between 1 and 130"}
	}

	if raw.BodyMassIndex == nil {
		return rec, &ValidationError{Field: "bodyMassIndex", Message: "required"}
	}
	if *raw.BodyMassIndex <= 0 || *raw.BodyMassIndex > MaxBMI {
		return rec, &ValidationError{Field: "bodyMassIndex", Message: "must be between 0 and 100"}
	}

	if raw.Gender == nil {
		return rec, &ValidationError{Field: "gender", Message: "required"}
	}
	gender, ok := validGenders[canonicalKey(*raw.Gender)]
	if !ok {
		return rec, &ValidationError{Field: "gender", Message: "must be Male, Female, or Other"}
	}

	if raw.Smoker == nil || !raw.Smoker.Set() {
		return rec, &ValidationError{Field: "smoker", Message: "required"}
	}
	smoker, ok := validSmoker[canonicalKey(raw.Smoker.String())]
	if !ok {
		return rec, &ValidationError{Field: "smoker", Message: "must be Yes or No"}
	}

	if raw.Region == nil {
		return rec, &ValidationError{Field: "region", Message: "required"}
	}
	region, ok := validRegions[canonicalKey(*raw.Region)]
	if !ok {
		return rec, &ValidationError{Field: "region", Message: "must be North, South, East, or West"}
	}

	if raw.AnnualPremium == nil {
		return rec, &ValidationError{Field: "annualPremium", Message: "required"}
	}
	if *raw.AnnualPremium < 0 {
		return rec, &ValidationError{Field: "annualPremium", Message: "must not be negative"}
	}

	rec = PatientRecord{
		Age:           *raw.Age,
		BodyMassIndex: *raw.BodyMassIndex,
		Gender:        gender,
		Smoker:        smoker,
		Region:        region,
		AnnualPremium: *raw.AnnualPremium,
	}
	return rec, nil
}

func canonicalKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
