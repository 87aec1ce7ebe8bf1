package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/gatherly-api/internal/models"
)

type carryOverAccrual struct {
	memberID string
	week     time.Time
	amount   float64
}

type carryOverRoomStub struct {
	room     *models.Room
	members  []models.Member
	accruals []carryOverAccrual
	resets   []string
}

func (s *carryOverRoomStub) FindRoom(_ context.Context, _ string) (*models.Room, error) {
	return s.room, nil
}

func (s *carryOverRoomStub) ListRooms(_ context.Context) ([]models.Room, error) {
	return []models.Room{*s.room}, nil
}

func (s *carryOverRoomStub) ListMembers(_ context.Context, _ string) ([]models.Member, error) {
	return s.members, nil
}

func (s *carryOverRoomStub) AddCarryOver(_ context.Context, memberID string, week time.Time, amount float64) error {
	s.accruals = append(s.accruals, carryOverAccrual{memberID: memberID, week: week, amount: amount})
	return nil
}

func (s *carryOverRoomStub) ResetCarryOver(_ context.Context, memberID string) error {
	s.resets = append(s.resets, memberID)
	return nil
}

type assignedHoursStub struct {
	hours map[string]float64
}

func (s *assignedHoursStub) SumAssignedHours(_ context.Context, _ string, _, _ time.Time) (map[string]float64, error) {
	return s.hours, nil
}

func TestRecalculateWeekAccruesOnlyShortfalls(t *testing.T) {
	rooms := &carryOverRoomStub{
		room: &models.Room{ID: "room1", Settings: models.RoomSettings{MinHoursPerWeek: 3}},
		members: []models.Member{
			{ID: "m1", Name: "Ada"},
			{ID: "m2", Name: "Ben"},
			{ID: "m3", Name: "Cho"},
		},
	}
	slots := &assignedHoursStub{hours: map[string]float64{"m1": 3, "m2": 1.5}}
	svc := NewCarryOverService(rooms, slots, nil)

	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.RecalculateWeek(context.Background(), "room1", week))

	require.Len(t, rooms.accruals, 2)
	assert.Equal(t, carryOverAccrual{memberID: "m2", week: week, amount: 1.5}, rooms.accruals[0])
	assert.Equal(t, carryOverAccrual{memberID: "m3", week: week, amount: 3}, rooms.accruals[1])
	assert.Empty(t, rooms.resets)
}

func TestRecalculateWeekClearsSettledBalance(t *testing.T) {
	rooms := &carryOverRoomStub{
		room: &models.Room{ID: "room1", Settings: models.RoomSettings{MinHoursPerWeek: 2}},
		members: []models.Member{
			{ID: "m1", Name: "Ada", CarryOverHours: 1.5},
			{ID: "m2", Name: "Ben", CarryOverHours: 1.5},
			{ID: "m3", Name: "Cho"},
		},
	}
	// m1 covered minimum plus balance, m2 only the minimum, m3 has no balance
	slots := &assignedHoursStub{hours: map[string]float64{"m1": 3.5, "m2": 2, "m3": 4}}
	svc := NewCarryOverService(rooms, slots, nil)

	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.RecalculateWeek(context.Background(), "room1", week))

	assert.Equal(t, []string{"m1"}, rooms.resets)
	assert.Empty(t, rooms.accruals)
}

func TestStatusFlagsConsecutiveShortfalls(t *testing.T) {
	now := time.Date(2026, 3, 16, 12, 0, 0, 0, time.UTC)
	rooms := &carryOverRoomStub{
		room: &models.Room{ID: "room1", Settings: models.RoomSettings{MinHoursPerWeek: 2}},
		members: []models.Member{
			{
				ID: "m1", Name: "Ada", CarryOverHours: 3,
				CarryOverHistory: []models.CarryOverRecord{
					{MemberID: "m1", Week: now.AddDate(0, 0, -10), Amount: 1.5},
					{MemberID: "m1", Week: now.AddDate(0, 0, -3), Amount: 1.5},
				},
			},
			{
				ID: "m2", Name: "Ben", CarryOverHours: 1,
				CarryOverHistory: []models.CarryOverRecord{
					{MemberID: "m2", Week: now.AddDate(0, 0, -3), Amount: 1},
				},
			},
		},
	}
	svc := NewCarryOverService(rooms, &assignedHoursStub{}, nil)

	statuses, err := svc.Status(context.Background(), "room1", now)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	assert.True(t, statuses[0].LongTermFlag)
	assert.Equal(t, 3.0, statuses[0].CarryOverHours)
	assert.False(t, statuses[1].LongTermFlag)
}

func TestLongTermCarryOverWindows(t *testing.T) {
	now := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	record := func(daysAgo int, amount float64) models.CarryOverRecord {
		return models.CarryOverRecord{Week: now.AddDate(0, 0, -daysAgo), Amount: amount}
	}

	tests := []struct {
		name    string
		history []models.CarryOverRecord
		want    bool
	}{
		{"both windows", []models.CarryOverRecord{record(10, 1), record(3, 1)}, true},
		{"only recent", []models.CarryOverRecord{record(3, 1)}, false},
		{"only older", []models.CarryOverRecord{record(10, 1)}, false},
		{"gap week", []models.CarryOverRecord{record(20, 1), record(3, 1)}, false},
		{"window boundary", []models.CarryOverRecord{record(7, 1), record(3, 1)}, true},
		{"too old boundary", []models.CarryOverRecord{record(14, 1), record(3, 1)}, false},
		{"zero amounts ignored", []models.CarryOverRecord{record(10, 0), record(3, 1)}, false},
		{"empty history", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LongTermCarryOver(tt.history, now))
		})
	}
}

func TestPreviousWeekStart(t *testing.T) {
	tests := []struct {
		now  time.Time
		want time.Time
	}{
		// Wednesday resolves to the Monday of the prior week
		{time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		// a Monday resolves to the previous Monday
		{time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		// Sunday still belongs to the week that started six days earlier
		{time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC), time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, previousWeekStart(tt.now), "now=%s", tt.now)
	}
}
