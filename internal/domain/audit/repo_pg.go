package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type auditRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &auditRepoPG{pool: pool}
}

const entryCols = `id, recipient_address, age, bmi, gender, smoker, region, annual_premium,
	predicted_claim_amount, confidence, report_subject, report_generated_at,
	delivery_status, delivery_channel, delivery_reason, delivery_attempted_at, created_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.RecipientAddress, &e.Age, &e.BodyMassIndex, &e.Gender, &e.Smoker,
		&e.Region, &e.AnnualPremium, &e.PredictedClaimAmount, &e.Confidence,
		&e.ReportSubject, &e.ReportGeneratedAt,
		&e.DeliveryStatus, &e.DeliveryChannel, &e.DeliveryReason, &e.DeliveryAttemptedAt, &e.CreatedAt)
	return &e, err
}

func (r *auditRepoPG) Insert(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO prediction_audit (id, recipient_address, age, bmi, gender, smoker, region,
			annual_premium, predicted_claim_amount, confidence, report_subject,
			report_generated_at, delivery_status, delivery_channel, delivery_reason,
			delivery_attempted_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		e.ID, e.RecipientAddress, e.Age, e.BodyMassIndex, e.Gender, e.Smoker, e.Region,
		e.AnnualPremium, e.PredictedClaimAmount, e.Confidence, e.ReportSubject,
		e.ReportGeneratedAt, e.DeliveryStatus, e.DeliveryChannel, e.DeliveryReason,
		e.DeliveryAttemptedAt, e.CreatedAt)
	return err
}

func (r *auditRepoPG) ListByRecipient(ctx context.Context, recipient string, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM prediction_audit WHERE recipient_address = $1`, recipient).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+entryCols+` FROM prediction_audit
		WHERE recipient_address = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		recipient, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, nil
}
