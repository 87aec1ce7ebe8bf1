package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gatherly/gatherly-api/internal/models"
)

// SlotRepository persists travel-plan output and answers assigned-hour
// sums for the carry-over recalculation.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository creates a new assigned-slot repository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// ReplacePlan swaps the room's persisted plan for the given slots in
// one transaction. A fresh run always supersedes the previous one.
func (r *SlotRepository) ReplacePlan(ctx context.Context, roomID string, slots []models.AssignedSlot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin plan replace: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM assigned_slots WHERE room_id = $1`, roomID); err != nil {
		return fmt.Errorf("clear previous plan: %w", err)
	}

	now := time.Now().UTC()
	for i := range slots {
		slot := slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		slot.RoomID = roomID
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO assigned_slots (id, room_id, member_id, date, start_time, end_time, day, is_travel, label, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			slot.ID, slot.RoomID, slot.MemberID, slot.Date, slot.StartTime, slot.EndTime, string(slot.Day), slot.IsTravel, slot.Label, now); err != nil {
			return fmt.Errorf("insert assigned slot: %w", err)
		}
		slots[i] = slot
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit plan replace: %w", err)
	}
	return nil
}

// ListByRoom returns the room's persisted plan ordered by date and start.
func (r *SlotRepository) ListByRoom(ctx context.Context, roomID string) ([]models.AssignedSlot, error) {
	const query = `SELECT id, room_id, member_id, date, start_time, end_time, day, is_travel, label FROM assigned_slots WHERE room_id = $1 ORDER BY date ASC, start_time ASC`
	var slots []models.AssignedSlot
	if err := r.db.SelectContext(ctx, &slots, query, roomID); err != nil {
		return nil, fmt.Errorf("list assigned slots: %w", err)
	}
	return slots, nil
}

// SumAssignedHours totals non-travel slot hours per member whose date
// falls in [from, to).
func (r *SlotRepository) SumAssignedHours(ctx context.Context, roomID string, from, to time.Time) (map[string]float64, error) {
	const query = `SELECT member_id, SUM(EXTRACT(EPOCH FROM (end_time::time - start_time::time)) / 3600) AS hours
		FROM assigned_slots
		WHERE room_id = $1 AND is_travel = FALSE AND member_id IS NOT NULL AND date::date >= $2 AND date::date < $3
		GROUP BY member_id`
	rows := []struct {
		MemberID string  `db:"member_id"`
		Hours    float64 `db:"hours"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, roomID, from, to); err != nil {
		return nil, fmt.Errorf("sum assigned hours: %w", err)
	}
	totals := make(map[string]float64, len(rows))
	for _, row := range rows {
		totals[row.MemberID] = row.Hours
	}
	return totals, nil
}
