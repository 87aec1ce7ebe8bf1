package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gatherly/gatherly-api/internal/dto"
	"github.com/gatherly/gatherly-api/internal/models"
	appErrors "github.com/gatherly/gatherly-api/pkg/errors"
	"github.com/gatherly/gatherly-api/pkg/jobs"
)

type carryOverRoomStore interface {
	FindRoom(ctx context.Context, id string) (*models.Room, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
	ListMembers(ctx context.Context, roomID string) ([]models.Member, error)
	AddCarryOver(ctx context.Context, memberID string, week time.Time, amount float64) error
	ResetCarryOver(ctx context.Context, memberID string) error
}

type assignedHoursReader interface {
	SumAssignedHours(ctx context.Context, roomID string, from, to time.Time) (map[string]float64, error)
}

// CarryOverService rolls unmet weekly minimums forward and surfaces
// long-term rebalancing suggestions.
type CarryOverService struct {
	rooms   carryOverRoomStore
	slots   assignedHoursReader
	logger  *zap.Logger
	metrics *MetricsService
}

// NewCarryOverService wires the fairness tracker.
func NewCarryOverService(rooms carryOverRoomStore, slots assignedHoursReader, logger *zap.Logger) *CarryOverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CarryOverService{rooms: rooms, slots: slots, logger: logger}
}

// WithMetrics attaches query timing instrumentation.
func (s *CarryOverService) WithMetrics(metrics *MetricsService) *CarryOverService {
	s.metrics = metrics
	return s
}

// RecalculateWeek accrues carry-over for every member of the room who
// fell short of the weekly minimum in the week starting at weekStart.
func (s *CarryOverService) RecalculateWeek(ctx context.Context, roomID string, weekStart time.Time) error {
	room, err := s.rooms.FindRoom(ctx, roomID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	members, err := s.rooms.ListMembers(ctx, roomID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	queryStart := time.Now()
	assigned, err := s.slots.SumAssignedHours(ctx, roomID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum assigned hours")
	}
	s.metrics.ObserveDBQuery("carryover_assigned_hours", time.Since(queryStart))

	for _, member := range members {
		shortfall := room.Settings.MinHoursPerWeek - assigned[member.ID]
		if shortfall <= 0 {
			// the week also settled the outstanding balance
			if member.CarryOverHours > 0 && assigned[member.ID] >= room.Settings.MinHoursPerWeek+member.CarryOverHours {
				if err := s.rooms.ResetCarryOver(ctx, member.ID); err != nil {
					return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
						fmt.Sprintf("failed to reset carry-over for member %s", member.ID))
				}
				s.logger.Info("carry-over cleared",
					zap.String("room_id", roomID),
					zap.String("member_id", member.ID),
				)
			}
			continue
		}
		if err := s.rooms.AddCarryOver(ctx, member.ID, weekStart, shortfall); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("failed to record carry-over for member %s", member.ID))
		}
		s.logger.Info("carry-over accrued",
			zap.String("room_id", roomID),
			zap.String("member_id", member.ID),
			zap.Float64("shortfall_hours", shortfall),
		)
	}
	return nil
}

// Status reports each member's carry-over and whether two consecutive
// weekly shortfalls flag them for a long-term rebalance suggestion.
func (s *CarryOverService) Status(ctx context.Context, roomID string, now time.Time) ([]dto.CarryOverStatus, error) {
	if _, err := s.rooms.FindRoom(ctx, roomID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	members, err := s.rooms.ListMembers(ctx, roomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}

	statuses := make([]dto.CarryOverStatus, 0, len(members))
	for _, member := range members {
		statuses = append(statuses, dto.CarryOverStatus{
			MemberID:       member.ID,
			MemberName:     member.Name,
			CarryOverHours: member.CarryOverHours,
			LongTermFlag:   LongTermCarryOver(member.CarryOverHistory, now),
		})
	}
	return statuses, nil
}

// LongTermCarryOver flags a member whose history shows a positive
// shortfall in the 14-7 day window before now and another in the 7-0
// day window: two consecutive weekly shortfalls.
func LongTermCarryOver(history []models.CarryOverRecord, now time.Time) bool {
	olderWindow := false
	recentWindow := false
	for _, record := range history {
		if record.Amount <= 0 {
			continue
		}
		age := now.Sub(record.Week)
		switch {
		case age >= 7*24*time.Hour && age < 14*24*time.Hour:
			olderWindow = true
		case age >= 0 && age < 7*24*time.Hour:
			recentWindow = true
		}
	}
	return olderWindow && recentWindow
}

// NewCarryOverQueue builds the background queue that recalculates every
// room's previous week.
func NewCarryOverQueue(svc *CarryOverService, cfg jobs.QueueConfig) *jobs.Queue {
	handler := func(ctx context.Context, job jobs.Job) error {
		roomID, ok := job.Payload.(string)
		if !ok {
			return fmt.Errorf("carryover job payload must be a room id")
		}
		weekStart := previousWeekStart(time.Now().UTC())
		return svc.RecalculateWeek(ctx, roomID, weekStart)
	}
	return jobs.NewQueue("carryover", handler, cfg)
}

// EnqueueAllRooms schedules a recalculation job per room.
func (s *CarryOverService) EnqueueAllRooms(ctx context.Context, queue *jobs.Queue) error {
	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	for _, room := range rooms {
		if err := queue.Enqueue(jobs.Job{ID: room.ID, Type: "carryover_recalculate", Payload: room.ID}); err != nil {
			return err
		}
	}
	return nil
}

// previousWeekStart returns the Monday of the week before now.
func previousWeekStart(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset-7)
}
