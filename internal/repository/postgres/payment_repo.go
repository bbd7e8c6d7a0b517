package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentRepository implements domain.PaymentRepository using PostgreSQL
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Record stores a payment unless the same occurrence was already recorded
func (r *PaymentRepository) Record(ctx context.Context, p *domain.PaymentRecord) (bool, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	amount, err := decimalToPgNumeric(p.Amount)
	if err != nil {
		return false, err
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO payment_history (id, workspace_id, subscription_id, subscription_name, amount, category, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (subscription_id, paid_at) DO NOTHING`,
		pgUUID(p.ID), p.WorkspaceID, pgUUID(p.SubscriptionID), p.SubscriptionName, amount,
		string(p.Category), p.PaidAt)
	if err != nil {
		return false, fmt.Errorf("record payment: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByWorkspace returns payments ordered by PaidAt, optionally bounded by [from, to)
func (r *PaymentRepository) ListByWorkspace(ctx context.Context, workspaceID int32, from, to *time.Time) ([]*domain.PaymentRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, workspace_id, subscription_id, subscription_name, amount, category, paid_at, created_at
		FROM payment_history
		WHERE workspace_id = $1
			AND ($2::timestamptz IS NULL OR paid_at >= $2)
			AND ($3::timestamptz IS NULL OR paid_at < $3)
		ORDER BY paid_at, created_at`,
		workspaceID, timePtrToPgTimestamptz(from), timePtrToPgTimestamptz(to))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]*domain.PaymentRecord, 0)
	for rows.Next() {
		var (
			p        domain.PaymentRecord
			id       pgtype.UUID
			subID    pgtype.UUID
			amount   pgtype.Numeric
			category string
		)
		if err := rows.Scan(&id, &p.WorkspaceID, &subID, &p.SubscriptionName, &amount, &category,
			&p.PaidAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.ID = pgUUIDToUUID(id)
		p.SubscriptionID = pgUUIDToUUID(subID)
		p.Amount = pgNumericToDecimal(amount)
		p.Category = domain.Category(category).OrOther()
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}

func timePtrToPgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
