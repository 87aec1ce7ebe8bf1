package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gatherly/gatherly-api/internal/models"
)

// RequestRepository persists coordination requests. Status transitions
// use compare-and-swap on the version column.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository creates a new coordination request repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

type requestRow struct {
	ID                string    `db:"id"`
	RoomID            string    `db:"room_id"`
	Requester         string    `db:"requester"`
	TargetUser        *string   `db:"target_user"`
	Type              string    `db:"type"`
	SlotDays          string    `db:"slot_days"`
	SlotStart         string    `db:"slot_start"`
	SlotEnd           string    `db:"slot_end"`
	SlotDate          *string   `db:"slot_date"`
	Status            string    `db:"status"`
	ConflictingUserID *string   `db:"conflicting_user_id"`
	Message           *string   `db:"message"`
	Version           int       `db:"version"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (row requestRow) toModel() models.CoordinationRequest {
	var days []models.DayCode
	for _, d := range strings.Split(row.SlotDays, ",") {
		if d = strings.TrimSpace(d); d != "" {
			days = append(days, models.DayCode(d))
		}
	}
	return models.CoordinationRequest{
		ID:         row.ID,
		RoomID:     row.RoomID,
		Requester:  row.Requester,
		TargetUser: row.TargetUser,
		Type:       row.Type,
		TimeSlot: models.TimeWindow{
			Days:      days,
			StartTime: row.SlotStart,
			EndTime:   row.SlotEnd,
			Date:      row.SlotDate,
		},
		Status:            row.Status,
		ConflictingUserID: row.ConflictingUserID,
		Message:           row.Message,
		Version:           row.Version,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

func joinDays(days []models.DayCode) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, string(d))
	}
	return strings.Join(parts, ",")
}

const requestColumns = `id, room_id, requester, target_user, type, slot_days, slot_start, slot_end, slot_date, status, conflicting_user_id, message, version, created_at, updated_at`

// Create stores a new coordination request.
func (r *RequestRepository) Create(ctx context.Context, request *models.CoordinationRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	const query = `INSERT INTO coordination_requests (id, room_id, requester, target_user, type, slot_days, slot_start, slot_end, slot_date, status, conflicting_user_id, message, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	if _, err := r.db.ExecContext(ctx, query,
		request.ID, request.RoomID, request.Requester, request.TargetUser, request.Type,
		joinDays(request.TimeSlot.Days), request.TimeSlot.StartTime, request.TimeSlot.EndTime, request.TimeSlot.Date,
		request.Status, request.ConflictingUserID, request.Message, request.Version,
		request.CreatedAt, request.UpdatedAt); err != nil {
		return fmt.Errorf("create coordination request: %w", err)
	}
	return nil
}

// FindByID loads a request by id.
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*models.CoordinationRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM coordination_requests WHERE id = $1`, requestColumns)
	var row requestRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	request := row.toModel()
	return &request, nil
}

// ListByRoom returns the room's requests, newest first.
func (r *RequestRepository) ListByRoom(ctx context.Context, roomID string) ([]models.CoordinationRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM coordination_requests WHERE room_id = $1 ORDER BY created_at DESC`, requestColumns)
	return r.list(ctx, query, roomID)
}

// ListPendingByRoom returns unresolved requests for the duplicate check.
func (r *RequestRepository) ListPendingByRoom(ctx context.Context, roomID string) ([]models.CoordinationRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM coordination_requests WHERE room_id = $1 AND status = $2 ORDER BY created_at DESC`, requestColumns)
	return r.list(ctx, query, roomID, models.RequestStatusPending)
}

func (r *RequestRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.CoordinationRequest, error) {
	var rows []requestRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list coordination requests: %w", err)
	}
	requests := make([]models.CoordinationRequest, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, row.toModel())
	}
	return requests, nil
}

// UpdateStatusVersioned transitions a request's status only when the
// caller's version still matches; a stale version yields sql.ErrNoRows.
func (r *RequestRepository) UpdateStatusVersioned(ctx context.Context, exec sqlx.ExtContext, id, status string, version int) error {
	if exec == nil {
		exec = r.db
	}
	const query = `UPDATE coordination_requests SET status = $1, version = version + 1, updated_at = $2 WHERE id = $3 AND version = $4`
	result, err := exec.ExecContext(ctx, query, status, time.Now().UTC(), id, version)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check request status update: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a request by id.
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM coordination_requests WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete coordination request: %w", err)
	}
	return nil
}
