package prediction

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"
)

// DefaultConfidence is the documented placeholder used when the loaded
// snapshot carries no ensemble and therefore cannot derive a real score.
const DefaultConfidence = 0.5

// LinearModel is one set of regression weights. Categorical features are
// one-hot encoded into keys like "gender_Male" and "region_West".
type LinearModel struct {
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
}

func (m LinearModel) score(features map[string]float64) float64 {
	s := m.Intercept
	for name, w := range m.Coefficients {
		s += w * features[name]
	}
	return s
}

// ModelSnapshot is the JSON artifact exported by the training pipeline.
// The ensemble members, when present, are used only for confidence scoring.
type ModelSnapshot struct {
	Name      string        `json:"name"`
	Version   string        `json:"version"`
	TrainedAt time.Time     `json:"trained_at"`
	Model     LinearModel   `json:"model"`
	Ensemble  []LinearModel `json:"ensemble,omitempty"`
}

// ModelMetadata describes the loaded snapshot for operators.
type ModelMetadata struct {
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	TrainedAt    time.Time `json:"trained_at"`
	EnsembleSize int       `json:"ensemble_size"`
}

// Predictor wraps an opaque regression snapshot. It is read-only after
// construction, so concurrent Predict calls need no locking.
type Predictor struct {
	snapshot *ModelSnapshot
}

// NewPredictor loads the snapshot at path. A missing or unreadable artifact
// does not fail startup: the predictor reports ErrModelUnavailable per
// request instead of crashing the process.
func NewPredictor(path string) (*Predictor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Predictor{}, fmt.Errorf("read model snapshot: %w", err)
	}
	var snap ModelSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return &Predictor{}, fmt.Errorf("parse model snapshot: %w", err)
	}
	return &Predictor{snapshot: &snap}, nil
}

// NewPredictorFromSnapshot builds a predictor around an in-memory snapshot.
func NewPredictorFromSnapshot(snap *ModelSnapshot) *Predictor {
	return &Predictor{snapshot: snap}
}

// Loaded reports whether a model snapshot is available.
func (p *Predictor) Loaded() bool { return p.snapshot != nil }

// Metadata returns details of the loaded snapshot, or false when none is loaded.
func (p *Predictor) Metadata() (ModelMetadata, bool) {
	if p.snapshot == nil {
		return ModelMetadata{}, false
	}
	return ModelMetadata{
		Name:         p.snapshot.Name,
		Version:      p.snapshot.Version,
		TrainedAt:    p.snapshot.TrainedAt,
		EnsembleSize: len(p.snapshot.Ensemble),
	}, true
}

// Predict produces a PredictionResult for a validated record. Deterministic
// for a fixed snapshot: same record, same result. Negative raw scores are
// clamped to zero, a claim amount cannot be negative.
func (p *Predictor) Predict(rec PatientRecord) (PredictionResult, error) {
	if p.snapshot == nil {
		return PredictionResult{}, ErrModelUnavailable
	}

	features := featureVector(rec)
	value := math.Max(0, p.snapshot.Model.score(features))

	confidence := DefaultConfidence
	if n := len(p.snapshot.Ensemble); n > 0 {
		scores := make([]float64, n)
		for i, m := range p.snapshot.Ensemble {
			scores[i] = m.score(features)
		}
		// Spread across ensemble members: higher deviation, lower confidence.
		confidence = 1.0 / (1.0 + stddev(scores))
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return PredictionResult{PredictedClaimAmount: value, Confidence: confidence}, nil
}

func featureVector(rec PatientRecord) map[string]float64 {
	return map[string]float64{
		"age":                        float64(rec.Age),
		"bmi":                        rec.BodyMassIndex,
		"premium":                    rec.AnnualPremium,
		"gender_" + string(rec.Gender): 1,
		"smoker_" + string(rec.Smoker): 1,
		"region_" + string(rec.Region): 1,
	}
}

func stddev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var variance float64
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs))
	return math.Sqrt(variance)
}
