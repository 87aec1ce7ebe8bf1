package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gatherly/gatherly-api/internal/models"
)

// ScheduleRepository persists member commitments as absolute-time
// events in member_schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const eventColumns = `id, title, start_time, end_time`

// FindEvent loads one event by id.
func (r *ScheduleRepository) FindEvent(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM member_schedules WHERE id = $1`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEventsByMember returns a member's commitments ordered by start.
func (r *ScheduleRepository) ListEventsByMember(ctx context.Context, roomID, memberID string) ([]models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM member_schedules WHERE room_id = $1 AND member_id = $2 ORDER BY start_time ASC`, eventColumns)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, roomID, memberID); err != nil {
		return nil, fmt.Errorf("list events by member: %w", err)
	}
	return events, nil
}

// ListEventsByRoom returns every commitment in the room ordered by start.
func (r *ScheduleRepository) ListEventsByRoom(ctx context.Context, roomID string) ([]models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM member_schedules WHERE room_id = $1 ORDER BY start_time ASC`, eventColumns)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, roomID); err != nil {
		return nil, fmt.Errorf("list events by room: %w", err)
	}
	return events, nil
}

// UpdateEventTime moves an event to a new window.
func (r *ScheduleRepository) UpdateEventTime(ctx context.Context, id string, start, end time.Time) error {
	return r.UpdateEventTimeTx(ctx, r.db, id, start, end)
}

// UpdateEventTimeTx moves an event within an existing transaction.
func (r *ScheduleRepository) UpdateEventTimeTx(ctx context.Context, exec sqlx.ExtContext, id string, start, end time.Time) error {
	if exec == nil {
		exec = r.db
	}
	const query = `UPDATE member_schedules SET start_time = $1, end_time = $2, updated_at = $3 WHERE id = $4`
	if _, err := exec.ExecContext(ctx, query, start, end, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update event time: %w", err)
	}
	return nil
}
