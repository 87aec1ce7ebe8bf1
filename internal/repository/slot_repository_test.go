package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/gatherly-api/internal/models"
)

func TestSlotRepositoryReplacePlan(t *testing.T) {
	db, mock, done := newRepoMock(t)
	defer done()
	repo := NewSlotRepository(db)

	memberID := "m1"
	slots := []models.AssignedSlot{
		{Date: "2026-03-02", StartTime: "09:00", EndTime: "09:30", Day: models.DayMon, IsTravel: true, Label: "Travel to Ada"},
		{MemberID: &memberID, Date: "2026-03-02", StartTime: "09:30", EndTime: "11:30", Day: models.DayMon, Label: "Visit Ada"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM assigned_slots WHERE room_id = $1`)).
		WithArgs("room1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO assigned_slots`)).
		WithArgs(sqlmock.AnyArg(), "room1", nil, "2026-03-02", "09:00", "09:30", "MON", true, "Travel to Ada", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO assigned_slots`)).
		WithArgs(sqlmock.AnyArg(), "room1", "m1", "2026-03-02", "09:30", "11:30", "MON", false, "Visit Ada", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplacePlan(context.Background(), "room1", slots))

	assert.NotEmpty(t, slots[0].ID)
	assert.Equal(t, "room1", slots[1].RoomID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepositorySumAssignedHours(t *testing.T) {
	db, mock, done := newRepoMock(t)
	defer done()
	repo := NewSlotRepository(db)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	rows := sqlmock.NewRows([]string{"member_id", "hours"}).
		AddRow("m1", 2.0).
		AddRow("m2", 0.5)
	mock.ExpectQuery(`SELECT member_id, SUM`).
		WithArgs("room1", from, to).
		WillReturnRows(rows)

	totals, err := repo.SumAssignedHours(context.Background(), "room1", from, to)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"m1": 2.0, "m2": 0.5}, totals)
	assert.NoError(t, mock.ExpectationsWereMet())
}
