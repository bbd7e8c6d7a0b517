package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cofreforte/cofre-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AchievementRepository implements domain.AchievementRepository using PostgreSQL
type AchievementRepository struct {
	pool *pgxpool.Pool
}

// NewAchievementRepository creates a new AchievementRepository
func NewAchievementRepository(pool *pgxpool.Pool) *AchievementRepository {
	return &AchievementRepository{pool: pool}
}

// Unlock marks an achievement as earned; a repeated unlock is a no-op
func (r *AchievementRepository) Unlock(ctx context.Context, workspaceID int32, id domain.AchievementID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO achievements (workspace_id, achievement_id, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (workspace_id, achievement_id) DO NOTHING`,
		workspaceID, string(id), at)
	if err != nil {
		return false, fmt.Errorf("unlock achievement: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByWorkspace returns the unlocked achievements in unlock order
func (r *AchievementRepository) ListByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.AchievementUnlock, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT workspace_id, achievement_id, unlocked_at
		FROM achievements
		WHERE workspace_id = $1
		ORDER BY unlocked_at, achievement_id`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	unlocks := make([]*domain.AchievementUnlock, 0)
	for rows.Next() {
		var (
			u  domain.AchievementUnlock
			id string
		)
		if err := rows.Scan(&u.WorkspaceID, &id, &u.UnlockedAt); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		u.AchievementID = domain.AchievementID(id)
		unlocks = append(unlocks, &u)
	}
	return unlocks, rows.Err()
}
