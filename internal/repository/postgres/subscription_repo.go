package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const subscriptionColumns = `id, workspace_id, name, value, cycle, billing_date, category, logo_url,
	is_active, is_ghost, shared_with_count, description, created_at, updated_at`

// SubscriptionRepository implements domain.SubscriptionRepository using PostgreSQL
type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepository
func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

// Create inserts a subscription and returns the stored row
func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	value, err := decimalToPgNumeric(sub.Value)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO subscriptions (workspace_id, name, value, cycle, billing_date, category, logo_url,
			is_active, is_ghost, shared_with_count, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+subscriptionColumns,
		sub.WorkspaceID, sub.Name, value, string(sub.Cycle), sub.BillingDate, string(sub.Category),
		stringPtrToPgText(sub.LogoURL), sub.IsActive, sub.IsGhost,
		int32PtrToPgInt4(sub.SharedWithCount), stringPtrToPgText(sub.Description))
	return scanSubscription(row)
}

// GetByID retrieves a subscription scoped to its workspace
func (r *SubscriptionRepository) GetByID(ctx context.Context, workspaceID int32, id uuid.UUID) (*domain.Subscription, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE workspace_id = $1 AND id = $2`, workspaceID, pgUUID(id))
	return scanSubscription(row)
}

// ListByWorkspace retrieves the subscriptions of a workspace ordered by billing date
func (r *SubscriptionRepository) ListByWorkspace(ctx context.Context, workspaceID int32, filter domain.SubscriptionFilter) ([]*domain.Subscription, error) {
	conds := []string{"workspace_id = $1"}
	args := []any{workspaceID}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if filter.Ghost != nil {
		args = append(args, *filter.Ghost)
		conds = append(conds, fmt.Sprintf("is_ghost = $%d", len(args)))
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY billing_date, created_at`
	return r.list(ctx, query, args...)
}

// ListDueBefore returns committed subscriptions of every workspace whose billing date precedes cutoff
func (r *SubscriptionRepository) ListDueBefore(ctx context.Context, cutoff time.Time) ([]*domain.Subscription, error) {
	return r.list(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE is_active AND NOT is_ghost AND billing_date < $1
		ORDER BY workspace_id, billing_date`, cutoff)
}

// Update overwrites the mutable fields of a subscription
func (r *SubscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	value, err := decimalToPgNumeric(sub.Value)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE subscriptions SET
			name = $3, value = $4, cycle = $5, billing_date = $6, category = $7, logo_url = $8,
			is_active = $9, is_ghost = $10, shared_with_count = $11, description = $12,
			updated_at = now()
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+subscriptionColumns,
		sub.WorkspaceID, pgUUID(sub.ID), sub.Name, value, string(sub.Cycle), sub.BillingDate,
		string(sub.Category), stringPtrToPgText(sub.LogoURL), sub.IsActive, sub.IsGhost,
		int32PtrToPgInt4(sub.SharedWithCount), stringPtrToPgText(sub.Description))
	return scanSubscription(row)
}

// AdvanceBillingDate is the renewal write. It only touches billing_date and matches on the
// date that was read, so edits made in between are never overwritten.
func (r *SubscriptionRepository) AdvanceBillingDate(ctx context.Context, workspaceID int32, id uuid.UUID, from, to time.Time) (*domain.Subscription, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE subscriptions SET billing_date = $4, updated_at = now()
		WHERE workspace_id = $1 AND id = $2 AND billing_date = $3 AND is_active AND NOT is_ghost
		RETURNING `+subscriptionColumns,
		workspaceID, pgUUID(id), from, to)
	sub, err := scanSubscription(row)
	if errors.Is(err, domain.ErrSubscriptionNotFound) {
		return nil, domain.ErrSubscriptionChanged
	}
	return sub, err
}

// Delete removes a subscription; payment history is kept
func (r *SubscriptionRepository) Delete(ctx context.Context, workspaceID int32, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subscriptions WHERE workspace_id = $1 AND id = $2`,
		workspaceID, pgUUID(id))
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

func (r *SubscriptionRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Subscription, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := make([]*domain.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var (
		s        domain.Subscription
		id       pgtype.UUID
		value    pgtype.Numeric
		cycle    string
		category string
		logo     pgtype.Text
		shared   pgtype.Int4
		desc     pgtype.Text
	)
	err := row.Scan(&id, &s.WorkspaceID, &s.Name, &value, &cycle, &s.BillingDate, &category, &logo,
		&s.IsActive, &s.IsGhost, &shared, &desc, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	s.ID = pgUUIDToUUID(id)
	s.Value = pgNumericToDecimal(value)
	s.Cycle = domain.Cycle(cycle)
	s.Category = domain.Category(category).OrOther()
	s.LogoURL = pgTextToStringPtr(logo)
	s.SharedWithCount = pgInt4ToInt32Ptr(shared)
	s.Description = pgTextToStringPtr(desc)
	return &s, nil
}
