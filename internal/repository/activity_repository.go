package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gatherly/gatherly-api/internal/models"
)

// ActivityRepository stores the append-only activity log.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new activity log repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append writes one log entry. Pass a transaction to join an approval;
// a nil exec falls back to the repository's own connection.
func (r *ActivityRepository) Append(ctx context.Context, exec sqlx.ExtContext, entry *models.ActivityLogEntry) error {
	if exec == nil {
		exec = r.db
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO activity_log (id, room_id, actor_id, actor_name, action, detail, metadata, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := exec.ExecContext(ctx, query,
		entry.ID, entry.RoomID, entry.ActorID, entry.ActorName,
		entry.Action, entry.Detail, entry.Metadata, entry.CreatedAt); err != nil {
		return fmt.Errorf("append activity entry: %w", err)
	}
	return nil
}

// ListByRoom returns the room's log, newest first.
func (r *ActivityRepository) ListByRoom(ctx context.Context, roomID string) ([]models.ActivityLogEntry, error) {
	const query = `SELECT id, room_id, actor_id, actor_name, action, detail, metadata, created_at FROM activity_log WHERE room_id = $1 ORDER BY created_at DESC`
	var entries []models.ActivityLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, roomID); err != nil {
		return nil, fmt.Errorf("list activity log: %w", err)
	}
	return entries, nil
}
