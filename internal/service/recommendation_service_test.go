package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/gatherly-api/internal/dto"
	"github.com/gatherly/gatherly-api/internal/models"
	appErrors "github.com/gatherly/gatherly-api/pkg/errors"
)

type cacheStub struct {
	values      map[string][]byte
	sets        int
	invalidated int
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.sets++
	return nil
}

func (c *cacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.invalidated++
	return nil
}

type eventStoreStub struct {
	event   *models.Event
	findErr error
	updates []dto.ConfirmRescheduleRequest
}

func (s *eventStoreStub) FindEvent(ctx context.Context, id string) (*models.Event, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.event, nil
}

func (s *eventStoreStub) UpdateEventTime(ctx context.Context, id string, start, end time.Time) error {
	s.updates = append(s.updates, dto.ConfirmRescheduleRequest{EventID: id, StartTime: start, EndTime: end})
	return nil
}

func newRecommendationService(store *eventStoreStub) *RecommendationService {
	return NewRecommendationService(RecommendationConfig{}, &cacheStub{}, store, nil, nil)
}

func TestAlternativesPrefersNearestLaterOffset(t *testing.T) {
	svc := newRecommendationService(nil)
	start := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	resp, err := svc.Alternatives(context.Background(), dto.AlternativeTimeRequest{
		PendingEvent: dto.PendingEventRequest{StartTime: start, EndTime: start.Add(time.Hour), Title: "standup"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Recommendations, 3)

	assert.Equal(t, start.Add(30*time.Minute), resp.Recommendations[0].StartTime)
	assert.Equal(t, start.Add(-30*time.Minute), resp.Recommendations[1].StartTime)
	assert.Equal(t, start.Add(60*time.Minute), resp.Recommendations[2].StartTime)

	for _, rec := range resp.Recommendations {
		assert.Equal(t, time.Hour, rec.EndTime.Sub(rec.StartTime))
		assert.Equal(t, start.Day(), rec.StartTime.Day())
	}
}

func TestAlternativesRespectsWorkingHourBounds(t *testing.T) {
	svc := newRecommendationService(nil)
	// 21:30 start: +30 lands on 22:00 (out), -30 lands on 21:00 (in)
	start := time.Date(2026, 3, 4, 21, 30, 0, 0, time.UTC)

	resp, err := svc.Alternatives(context.Background(), dto.AlternativeTimeRequest{
		PendingEvent: dto.PendingEventRequest{StartTime: start, EndTime: start.Add(30 * time.Minute)},
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Recommendations)
	for _, rec := range resp.Recommendations {
		assert.GreaterOrEqual(t, rec.StartTime.Hour(), 8)
		assert.Less(t, rec.StartTime.Hour(), 22)
	}
	assert.Equal(t, start.Add(-30*time.Minute), resp.Recommendations[0].StartTime)
}

func TestAlternativesStaysOnCalendarDay(t *testing.T) {
	svc := newRecommendationService(nil)
	// near end of working hours with existing events squeezing candidates
	start := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	busy := []models.Event{
		{ID: "busy1", StartTime: start.Add(-time.Hour), EndTime: start.Add(3 * time.Hour)},
	}

	resp, err := svc.Alternatives(context.Background(), dto.AlternativeTimeRequest{
		PendingEvent:   dto.PendingEventRequest{StartTime: start, EndTime: start.Add(time.Hour)},
		ExistingEvents: busy,
	})
	require.NoError(t, err)
	for _, rec := range resp.Recommendations {
		assert.Equal(t, start.Day(), rec.StartTime.Day())
		candidate := models.Event{StartTime: rec.StartTime, EndTime: rec.EndTime}
		for _, event := range busy {
			assert.False(t, candidate.Overlaps(event))
		}
	}
}

func TestAlternativesEmptyWhenFullyBooked(t *testing.T) {
	svc := newRecommendationService(nil)
	start := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	// a single block covering the whole searchable window
	busy := []models.Event{
		{ID: "wall", StartTime: start.Add(-4 * time.Hour), EndTime: start.Add(5 * time.Hour)},
	}

	resp, err := svc.Alternatives(context.Background(), dto.AlternativeTimeRequest{
		PendingEvent:   dto.PendingEventRequest{StartTime: start, EndTime: start.Add(time.Hour)},
		ExistingEvents: busy,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Recommendations)
	assert.Equal(t, "No alternative time slots are available around the requested time.", resp.Message)
}

func TestReschedulesExcludesTheEventBeingMoved(t *testing.T) {
	svc := newRecommendationService(nil)
	start := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	conflicting := models.Event{ID: "e1", Title: "review", StartTime: start, EndTime: start.Add(2 * time.Hour)}

	// the event itself dominates the nearby window; excluding it must
	// leave candidates free
	resp, err := svc.Reschedules(context.Background(), dto.RescheduleTimeRequest{
		ConflictingEvent: conflicting,
		ExistingEvents:   []models.Event{conflicting},
	})
	require.NoError(t, err)
	require.Len(t, resp.Recommendations, 3)
	assert.Equal(t, start.Add(30*time.Minute), resp.Recommendations[0].StartTime)
	assert.Contains(t, resp.Message, `"review"`)
	assert.Contains(t, resp.Message, "1. ")
}

func TestRecommendationMessageNumbering(t *testing.T) {
	svc := newRecommendationService(nil)
	start := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	resp, err := svc.Alternatives(context.Background(), dto.AlternativeTimeRequest{
		PendingEvent: dto.PendingEventRequest{StartTime: start, EndTime: start.Add(time.Hour)},
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "1. ")
	assert.Contains(t, resp.Message, "2. ")
	assert.Contains(t, resp.Message, "3. ")
}

func TestConfirmRescheduleCommits(t *testing.T) {
	start := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	store := &eventStoreStub{event: &models.Event{ID: "e1", StartTime: start, EndTime: start.Add(time.Hour)}}
	cache := &cacheStub{}
	svc := NewRecommendationService(RecommendationConfig{}, cache, store, nil, nil)

	resp, err := svc.ConfirmReschedule(context.Background(), dto.ConfirmRescheduleRequest{
		EventID:   "e1",
		StartTime: start.Add(30 * time.Minute),
		EndTime:   start.Add(90 * time.Minute),
	})
	require.NoError(t, err)
	assert.False(t, resp.AlreadyApplied)
	require.Len(t, store.updates, 1)
	assert.Equal(t, start.Add(30*time.Minute), store.updates[0].StartTime)
	assert.Equal(t, 1, cache.invalidated)
}

func TestConfirmRescheduleUnknownEventIsNotFound(t *testing.T) {
	start := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	store := &eventStoreStub{findErr: sql.ErrNoRows}
	svc := newRecommendationService(store)

	_, err := svc.ConfirmReschedule(context.Background(), dto.ConfirmRescheduleRequest{
		EventID:   "missing",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.updates)
}

func TestConfirmRescheduleIsIdempotent(t *testing.T) {
	start := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	store := &eventStoreStub{event: &models.Event{ID: "e1", StartTime: start, EndTime: start.Add(time.Hour)}}
	svc := newRecommendationService(store)

	resp, err := svc.ConfirmReschedule(context.Background(), dto.ConfirmRescheduleRequest{
		EventID:   "e1",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.True(t, resp.AlreadyApplied)
	assert.Empty(t, store.updates)
}

func TestAlternativesRejectsInvertedWindow(t *testing.T) {
	svc := newRecommendationService(nil)
	start := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	_, err := svc.Alternatives(context.Background(), dto.AlternativeTimeRequest{
		PendingEvent: dto.PendingEventRequest{StartTime: start, EndTime: start.Add(-time.Hour)},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
