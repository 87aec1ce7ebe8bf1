package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/gatherly-api/internal/models"
)

func sched(title string, day models.DayCode, start, end string) models.Schedule {
	return models.Schedule{
		Title: title,
		TimeWindow: models.TimeWindow{
			Days:      []models.DayCode{day},
			StartTime: start,
			EndTime:   end,
		},
	}
}

func seededCombinationService(seed int64) *CombinationService {
	return NewCombinationService(nil, WithRandSource(rand.New(rand.NewSource(seed))))
}

func TestHasConflictSymmetry(t *testing.T) {
	a := sched("a", models.DayMon, "10:00", "11:00")
	b := sched("b", models.DayMon, "10:30", "11:30")
	c := sched("c", models.DayMon, "11:00", "12:00")
	d := sched("d", models.DayTue, "10:00", "11:00")

	assert.Equal(t, HasConflict(a, b), HasConflict(b, a))
	assert.True(t, HasConflict(a, b))

	// shared boundary is not a conflict
	assert.False(t, HasConflict(a, c))
	assert.False(t, HasConflict(c, a))

	// different days never conflict
	assert.False(t, HasConflict(a, d))
}

func TestGenerateProducesConflictFreeCombination(t *testing.T) {
	svc := seededCombinationService(7)
	schedules := []models.Schedule{
		sched("math", models.DayMon, "09:00", "10:00"),
		sched("art", models.DayMon, "09:30", "10:30"),
		sched("gym", models.DayMon, "10:00", "11:00"),
		sched("music", models.DayTue, "09:00", "10:00"),
	}

	combination := svc.Generate(schedules)
	require.NotEmpty(t, combination)
	for i := range combination {
		for j := i + 1; j < len(combination); j++ {
			assert.False(t, HasConflict(combination[i], combination[j]),
				"%s conflicts with %s", combination[i].Title, combination[j].Title)
		}
	}
}

func TestGenerateMultipleDeduplicatesAndOrders(t *testing.T) {
	svc := seededCombinationService(42)
	schedules := []models.Schedule{
		sched("math", models.DayMon, "09:00", "10:00"),
		sched("art", models.DayMon, "09:30", "10:30"),
		sched("gym", models.DayTue, "10:00", "11:00"),
		sched("music", models.DayWed, "09:00", "10:00"),
	}

	combinations := svc.GenerateMultiple(schedules, 5, 50)
	require.NotEmpty(t, combinations)
	assert.LessOrEqual(t, len(combinations), 5)

	seen := make(map[string]bool)
	for _, combo := range combinations {
		require.NotEmpty(t, combo)
		sig := combo.Signature()
		assert.False(t, seen[sig], "duplicate combination %s", sig)
		seen[sig] = true
	}

	for i := 1; i < len(combinations); i++ {
		assert.GreaterOrEqual(t, len(combinations[i-1]), len(combinations[i]))
	}
}

func TestGenerateMultipleNonEmptyForNonEmptyInput(t *testing.T) {
	svc := seededCombinationService(3)
	// every pair conflicts, so any valid combination has exactly one entry
	schedules := []models.Schedule{
		sched("a", models.DayMon, "09:00", "11:00"),
		sched("b", models.DayMon, "09:30", "11:30"),
		sched("c", models.DayMon, "10:00", "12:00"),
	}

	combinations := svc.GenerateMultiple(schedules, 5, 20)
	require.NotEmpty(t, combinations)
	for _, combo := range combinations {
		assert.Len(t, combo, 1)
	}
}

func TestGenerateMultipleDefaults(t *testing.T) {
	svc := seededCombinationService(11)
	schedules := []models.Schedule{
		sched("solo", models.DayMon, "09:00", "10:00"),
	}

	combinations := svc.GenerateMultiple(schedules, 0, 0)
	require.Len(t, combinations, 1)
	assert.Equal(t, "solo", combinations[0][0].Title)
}
