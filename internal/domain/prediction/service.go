package prediction

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicare/medicare/internal/domain/audit"
	"github.com/medicare/medicare/internal/platform/deliverystore"
	"github.com/medicare/medicare/internal/platform/metrics"
	"github.com/medicare/medicare/internal/platform/notify"
)

// Deliverer is the notifier seam; satisfied by *notify.Notifier.
type Deliverer interface {
	Deliver(ctx context.Context, msg notify.Message) notify.Outcome
}

// AuditSink is the fire-and-forget audit seam; satisfied by *audit.Recorder.
type AuditSink interface {
	Record(e audit.Entry)
}

// PredictRequest is the inbound payload for one prediction-and-notify call.
type PredictRequest struct {
	RecipientAddress string           `json:"recipientAddress"`
	PatientRecord    RawPatientRecord `json:"patientRecord"`
}

// PredictionPayload is the prediction half of the response.
type PredictionPayload struct {
	Value             float64 `json:"value"`
	ConfidencePercent float64 `json:"confidencePercent"`
}

// DeliveryPayload is the delivery half of the response. Whether the report
// was produced and whether it was emailed are separate facts; this field
// carries only the second one.
type DeliveryPayload struct {
	Status DeliveryStatus `json:"status"`
	Reason string         `json:"reason,omitempty"`
}

// PredictResponse is the caller-visible result of a successful pipeline run.
type PredictResponse struct {
	Success    bool              `json:"success"`
	Prediction PredictionPayload `json:"prediction"`
	Delivery   DeliveryPayload   `json:"delivery"`
}

// Service composes the pipeline: validate → predict → render → persist →
// notify (bounded) → audit (fire-and-forget) → respond.
type Service struct {
	predictor *Predictor
	store     deliverystore.Store
	notifier  Deliverer
	auditor   AuditSink
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(predictor *Predictor, store deliverystore.Store, notifier Deliverer, auditor AuditSink, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		predictor: predictor,
		store:     store,
		notifier:  notifier,
		auditor:   auditor,
		metrics:   m,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// HandleRequest runs the full pipeline. It returns an error only for
// validation failures, model unavailability, or a delivery-store write
// failure; every notifier failure degrades to a LocalOnly delivery status
// inside a successful response.
func (s *Service) HandleRequest(ctx context.Context, req PredictRequest) (*PredictResponse, error) {
	start := s.now()

	rec, err := Validate(req.PatientRecord)
	if err != nil {
		s.metrics.RequestFailures.WithLabelValues("validation").Inc()
		return nil, err
	}

	result, err := s.predictor.Predict(rec)
	if err != nil {
		s.metrics.RequestFailures.WithLabelValues("model").Inc()
		return nil, err
	}
	s.metrics.PredictionsTotal.Inc()

	report := Render(rec, result, req.RecipientAddress, s.now())

	// The report is durable before any network attempt. If this write
	// fails the request fails; there is no honest success to report.
	handle, err := s.store.Persist(ctx, deliverystore.Record{
		Recipient:   report.RecipientAddress,
		Subject:     report.SubjectLine,
		Body:        report.Body.Text(),
		GeneratedAt: report.GeneratedAt,
	})
	if err != nil {
		s.metrics.RequestFailures.WithLabelValues("persistence").Inc()
		return nil, &PersistenceError{Err: err}
	}
	s.metrics.ReportsPersisted.Inc()

	delivery := s.deliver(ctx, report, handle)

	s.audit(rec, result, report, delivery)
	s.metrics.PipelineDuration.Observe(s.now().Sub(start).Seconds())

	return &PredictResponse{
		Success: true,
		Prediction: PredictionPayload{
			Value:             result.PredictedClaimAmount,
			ConfidencePercent: ConfidencePercent(result.Confidence),
		},
		Delivery: DeliveryPayload{
			Status: delivery.Status,
			Reason: delivery.Reason,
		},
	}, nil
}

func (s *Service) deliver(ctx context.Context, report Report, handle deliverystore.Handle) DeliveryOutcome {
	out := s.notifier.Deliver(ctx, notify.Message{
		Recipient: report.RecipientAddress,
		Subject:   report.SubjectLine,
		Body:      report.Body.Text(),
	})

	if out.Delivered {
		s.metrics.DeliveryOutcomes.WithLabelValues(string(DeliveryDelivered), "").Inc()
		// Bookkeeping only; the outcome is already decided.
		if err := s.store.MarkDelivered(ctx, handle); err != nil {
			s.logger.Warn().Err(err).Str("handle", string(handle)).Msg("mark delivered failed")
		}
		return DeliveryOutcome{
			Status:      DeliveryDelivered,
			Channel:     ChannelPrimary,
			AttemptedAt: out.AttemptedAt,
		}
	}

	// The store already holds the report, so a failed send is LocalOnly,
	// not an error: generated and emailed are separate facts.
	s.metrics.DeliveryOutcomes.WithLabelValues(string(DeliveryLocalOnly), string(out.Reason)).Inc()
	return DeliveryOutcome{
		Status:      DeliveryLocalOnly,
		Channel:     ChannelNone,
		AttemptedAt: out.AttemptedAt,
		Reason:      string(out.Reason),
	}
}

func (s *Service) audit(rec PatientRecord, result PredictionResult, report Report, delivery DeliveryOutcome) {
	s.auditor.Record(audit.Entry{
		RecipientAddress:     report.RecipientAddress,
		Age:                  rec.Age,
		BodyMassIndex:        rec.BodyMassIndex,
		Gender:               string(rec.Gender),
		Smoker:               string(rec.Smoker),
		Region:               string(rec.Region),
		AnnualPremium:        rec.AnnualPremium,
		PredictedClaimAmount: result.PredictedClaimAmount,
		Confidence:           result.Confidence,
		ReportSubject:        report.SubjectLine,
		ReportGeneratedAt:    report.GeneratedAt,
		DeliveryStatus:       string(delivery.Status),
		DeliveryChannel:      string(delivery.Channel),
		DeliveryReason:       delivery.Reason,
		DeliveryAttemptedAt:  delivery.AttemptedAt,
	})
	s.metrics.AuditEntriesTotal.Inc()
}

// ListPending exposes the delivery store's undelivered reports.
func (s *Service) ListPending(ctx context.Context) ([]*deliverystore.Record, error) {
	return s.store.ListPending(ctx)
}

// ModelMetadata exposes the loaded snapshot's details.
func (s *Service) ModelMetadata() (ModelMetadata, bool) {
	return s.predictor.Metadata()
}

// SweepResult summarizes one redelivery pass over the pending reports.
type SweepResult struct {
	Attempted int
	Delivered int
}

// Sweep retries delivery of every pending report once. It is the
// out-of-band counterpart to the request path, which never retries.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	var res SweepResult
	for _, rec := range pending {
		res.Attempted++
		out := s.notifier.Deliver(ctx, notify.Message{
			Recipient: rec.Recipient,
			Subject:   rec.Subject,
			Body:      rec.Body,
		})
		if !out.Delivered {
			s.logger.Info().
				Str("id", rec.ID).
				Str("reason", string(out.Reason)).
				Msg("sweep redelivery failed")
			continue
		}
		res.Delivered++
		if err := s.store.MarkDelivered(ctx, deliverystore.Handle(rec.ID)); err != nil {
			s.logger.Warn().Err(err).Str("id", rec.ID).Msg("mark delivered failed")
		}
	}
	return res, nil
}
