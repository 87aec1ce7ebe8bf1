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

func TestActivityRepositoryAppendFillsDefaults(t *testing.T) {
	db, mock, done := newRepoMock(t)
	defer done()
	repo := NewActivityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO activity_log`)).
		WithArgs(sqlmock.AnyArg(), "room1", "owner", "Olive", "change_approve",
			"approved MON 10:00-11:00 for alice", []byte(nil), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.ActivityLogEntry{
		RoomID:    "room1",
		ActorID:   "owner",
		ActorName: "Olive",
		Action:    models.ActivityActionChangeApprove,
		Detail:    "approved MON 10:00-11:00 for alice",
	}
	require.NoError(t, repo.Append(context.Background(), nil, entry))

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryAppendJoinsTransaction(t *testing.T) {
	db, mock, done := newRepoMock(t)
	defer done()
	repo := NewActivityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO activity_log`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	entry := &models.ActivityLogEntry{RoomID: "room1", ActorID: "owner", Action: models.ActivityActionSlotSwap}
	require.NoError(t, repo.Append(context.Background(), tx, entry))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryListByRoom(t *testing.T) {
	db, mock, done := newRepoMock(t)
	defer done()
	repo := NewActivityRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "room_id", "actor_id", "actor_name", "action", "detail", "metadata", "created_at"}).
		AddRow("a2", "room1", "owner", "Olive", "change_approve", "approved MON 10:00-11:00 for alice", nil, now).
		AddRow("a1", "room1", "alice", "Alice", "slot_swap", "booked MON 10:00-11:00", []byte(`{"approvedBy":"owner"}`), now.Add(-time.Minute))

	mock.ExpectQuery(`SELECT .+ FROM activity_log WHERE room_id = \$1 ORDER BY created_at DESC`).
		WithArgs("room1").
		WillReturnRows(rows)

	entries, err := repo.ListByRoom(context.Background(), "room1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a2", entries[0].ID)
	assert.Equal(t, models.ActivityActionSlotSwap, entries[1].Action)
	assert.JSONEq(t, `{"approvedBy":"owner"}`, string(entries[1].Metadata))
	assert.NoError(t, mock.ExpectationsWereMet())
}
