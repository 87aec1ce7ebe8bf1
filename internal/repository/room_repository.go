package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gatherly/gatherly-api/internal/models"
)

// RoomRepository provides persistence for rooms, their members and the
// members' availability and carry-over history.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository creates a new room repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

type roomRow struct {
	ID                string    `db:"id"`
	Name              string    `db:"name"`
	OwnerID           string    `db:"owner_id"`
	ScheduleStartHour int       `db:"schedule_start_hour"`
	ScheduleEndHour   int       `db:"schedule_end_hour"`
	MinHoursPerWeek   float64   `db:"min_hours_per_week"`
	Version           int       `db:"version"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (row roomRow) toModel() *models.Room {
	return &models.Room{
		ID:      row.ID,
		Name:    row.Name,
		OwnerID: row.OwnerID,
		Settings: models.RoomSettings{
			ScheduleStartHour: row.ScheduleStartHour,
			ScheduleEndHour:   row.ScheduleEndHour,
			MinHoursPerWeek:   row.MinHoursPerWeek,
		},
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

const roomColumns = `id, name, owner_id, schedule_start_hour, schedule_end_hour, min_hours_per_week, version, created_at, updated_at`

// FindRoom loads a room with its settings.
func (r *RoomRepository) FindRoom(ctx context.Context, id string) (*models.Room, error) {
	query := fmt.Sprintf(`SELECT %s FROM rooms WHERE id = $1`, roomColumns)
	var row roomRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// ListRooms returns every room ordered by creation time.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]models.Room, error) {
	query := fmt.Sprintf(`SELECT %s FROM rooms ORDER BY created_at ASC`, roomColumns)
	var rows []roomRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	rooms := make([]models.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, *row.toModel())
	}
	return rooms, nil
}

type memberRow struct {
	ID             string    `db:"id"`
	RoomID         string    `db:"room_id"`
	Name           string    `db:"name"`
	Lat            *float64  `db:"lat"`
	Lng            *float64  `db:"lng"`
	CarryOverHours float64   `db:"carry_over_hours"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (row memberRow) toModel() models.Member {
	member := models.Member{
		ID:             row.ID,
		RoomID:         row.RoomID,
		Name:           row.Name,
		CarryOverHours: row.CarryOverHours,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if row.Lat != nil && row.Lng != nil {
		member.Location = &models.GeoPoint{Lat: *row.Lat, Lng: *row.Lng}
	}
	return member
}

const memberColumns = `id, room_id, name, lat, lng, carry_over_hours, created_at, updated_at`

// FindMember loads one member with availability blocks and carry-over history.
func (r *RoomRepository) FindMember(ctx context.Context, roomID, memberID string) (*models.Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM room_members WHERE room_id = $1 AND id = $2`, memberColumns)
	var row memberRow
	if err := r.db.GetContext(ctx, &row, query, roomID, memberID); err != nil {
		return nil, err
	}
	member := row.toModel()
	if err := r.attachBlocks(ctx, []string{member.ID}, map[string]*models.Member{member.ID: &member}); err != nil {
		return nil, err
	}
	if err := r.attachHistory(ctx, []string{member.ID}, map[string]*models.Member{member.ID: &member}); err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers returns the room's members with blocks and carry-over history.
func (r *RoomRepository) ListMembers(ctx context.Context, roomID string) ([]models.Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM room_members WHERE room_id = $1 ORDER BY created_at ASC`, memberColumns)
	var rows []memberRow
	if err := r.db.SelectContext(ctx, &rows, query, roomID); err != nil {
		return nil, fmt.Errorf("list room members: %w", err)
	}

	members := make([]models.Member, len(rows))
	ids := make([]string, 0, len(rows))
	byID := make(map[string]*models.Member, len(rows))
	for i, row := range rows {
		members[i] = row.toModel()
		ids = append(ids, members[i].ID)
		byID[members[i].ID] = &members[i]
	}
	if len(ids) == 0 {
		return members, nil
	}
	if err := r.attachBlocks(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := r.attachHistory(ctx, ids, byID); err != nil {
		return nil, err
	}
	return members, nil
}

type blockRow struct {
	MemberID  string  `db:"member_id"`
	Day       string  `db:"day"`
	StartTime string  `db:"start_time"`
	EndTime   string  `db:"end_time"`
	Date      *string `db:"date"`
}

func (r *RoomRepository) attachBlocks(ctx context.Context, memberIDs []string, byID map[string]*models.Member) error {
	query, args, err := sqlx.In(`SELECT member_id, day, start_time, end_time, date FROM member_blocks WHERE member_id IN (?) ORDER BY member_id, day, start_time`, memberIDs)
	if err != nil {
		return fmt.Errorf("build member blocks query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []blockRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("list member blocks: %w", err)
	}
	for _, row := range rows {
		member, ok := byID[row.MemberID]
		if !ok {
			continue
		}
		member.PreferredBlocks = append(member.PreferredBlocks, models.TimeWindow{
			Days:      []models.DayCode{models.DayCode(row.Day)},
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
			Date:      row.Date,
		})
	}
	return nil
}

func (r *RoomRepository) attachHistory(ctx context.Context, memberIDs []string, byID map[string]*models.Member) error {
	query, args, err := sqlx.In(`SELECT id, member_id, week, amount FROM carry_over_records WHERE member_id IN (?) ORDER BY member_id, week DESC`, memberIDs)
	if err != nil {
		return fmt.Errorf("build carry-over history query: %w", err)
	}
	query = r.db.Rebind(query)

	var records []models.CarryOverRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return fmt.Errorf("list carry-over history: %w", err)
	}
	for _, record := range records {
		if member, ok := byID[record.MemberID]; ok {
			member.CarryOverHistory = append(member.CarryOverHistory, record)
		}
	}
	return nil
}

// AddCarryOver increments a member's carry-over balance and records the
// weekly shortfall in one transaction.
func (r *RoomRepository) AddCarryOver(ctx context.Context, memberID string, week time.Time, amount float64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin carry-over update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`UPDATE room_members SET carry_over_hours = carry_over_hours + $1, updated_at = $2 WHERE id = $3`,
		amount, time.Now().UTC(), memberID); err != nil {
		return fmt.Errorf("update carry-over balance: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO carry_over_records (id, member_id, week, amount, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), memberID, week, amount, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert carry-over record: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit carry-over update: %w", err)
	}
	return nil
}

// ResetCarryOver clears a member's balance after a plan satisfied it.
func (r *RoomRepository) ResetCarryOver(ctx context.Context, memberID string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE room_members SET carry_over_hours = 0, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), memberID); err != nil {
		return fmt.Errorf("reset carry-over balance: %w", err)
	}
	return nil
}
