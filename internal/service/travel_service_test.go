package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/gatherly-api/internal/dto"
	"github.com/gatherly/gatherly-api/internal/models"
)

func geo(lat, lng float64) *models.GeoPoint {
	return &models.GeoPoint{Lat: lat, Lng: lng}
}

func newTravelService() *TravelService {
	return NewTravelService(TravelConfig{}, nil, nil)
}

func TestHaversineZeroDistance(t *testing.T) {
	p := models.GeoPoint{Lat: 37.5665, Lng: 126.978}
	assert.InDelta(t, 0, Haversine(p, p), 1e-9)
}

func TestHaversineKnownDistance(t *testing.T) {
	// ~0.072 degrees of latitude is about 8 km
	a := models.GeoPoint{Lat: 37.5665, Lng: 126.978}
	b := models.GeoPoint{Lat: 37.4946, Lng: 126.978}

	d := Haversine(a, b)
	assert.Greater(t, d, 7.5)
	assert.Less(t, d, 8.5)
	assert.InDelta(t, Haversine(b, a), d, 1e-9)
}

func TestTravelSlotsRoundsUp(t *testing.T) {
	svc := newTravelService()

	// ~16 km at 30 km/h is 32 minutes: two 30-minute slots
	a := geo(37.5665, 126.978)
	b := geo(37.4226, 126.978)
	assert.Equal(t, 2, svc.TravelSlots(a, b))

	// zero distance needs zero slots
	assert.Equal(t, 0, svc.TravelSlots(a, a))
}

func TestTravelSlotsMissingCoordinates(t *testing.T) {
	svc := newTravelService()
	a := geo(37.5665, 126.978)

	assert.Equal(t, infiniteSlots, svc.TravelSlots(nil, a))
	assert.Equal(t, infiniteSlots, svc.TravelSlots(a, nil))
}

func planFixture(members []models.Member, assigned map[string]float64) dto.TravelPlanRequest {
	return dto.TravelPlanRequest{
		Members: members,
		Owner: models.Member{
			ID:       "owner",
			Name:     "Owner",
			Location: geo(37.5665, 126.978),
		},
		// 2026-03-02 is a Monday
		StartDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Settings: models.RoomSettings{
			ScheduleStartHour: 9,
			ScheduleEndHour:   18,
			MinHoursPerWeek:   2,
		},
		Assigned: assigned,
	}
}

func TestPlanVisitsEveryMemberWithoutOverlap(t *testing.T) {
	svc := newTravelService()
	members := []models.Member{
		{ID: "m1", Name: "Ada", Location: geo(37.55, 126.97)},
		{ID: "m2", Name: "Ben", Location: geo(37.52, 126.95)},
		{ID: "m3", Name: "Cho", Location: geo(37.58, 127.0)},
	}

	resp, err := svc.Plan(planFixture(members, nil))
	require.NoError(t, err)
	assert.Empty(t, resp.Unvisited)

	visited := make(map[string]bool)
	for _, slot := range resp.TimeSlots {
		if slot.MemberID != nil {
			visited[*slot.MemberID] = true
		}
	}
	for _, m := range members {
		assert.True(t, visited[m.ID], "member %s not visited", m.ID)
	}

	for i := range resp.TimeSlots {
		for j := i + 1; j < len(resp.TimeSlots); j++ {
			assert.False(t, resp.TimeSlots[i].OverlapsOnDay(resp.TimeSlots[j]),
				"slots %d and %d overlap", i, j)
		}
	}
}

func TestPlanVisitLengthCoversRequirement(t *testing.T) {
	svc := newTravelService()
	members := []models.Member{
		{ID: "m1", Name: "Ada", Location: geo(37.55, 126.97)},
	}

	resp, err := svc.Plan(planFixture(members, nil))
	require.NoError(t, err)

	var visitMinutes int
	for _, slot := range resp.TimeSlots {
		if slot.MemberID == nil {
			continue
		}
		start, err := models.MinutesOfDay(slot.StartTime)
		require.NoError(t, err)
		end, err := models.MinutesOfDay(slot.EndTime)
		require.NoError(t, err)
		visitMinutes += end - start
	}
	assert.Equal(t, 120, visitMinutes)
}

func TestPlanSkipsAlreadySatisfiedMembers(t *testing.T) {
	svc := newTravelService()
	members := []models.Member{
		{ID: "m1", Name: "Ada", Location: geo(37.55, 126.97)},
		{ID: "m2", Name: "Ben", Location: geo(37.52, 126.95)},
	}

	resp, err := svc.Plan(planFixture(members, map[string]float64{"m1": 2}))
	require.NoError(t, err)

	for _, slot := range resp.TimeSlots {
		if slot.MemberID != nil {
			assert.NotEqual(t, "m1", *slot.MemberID)
		}
	}
	assert.Empty(t, resp.Unvisited)
}

func TestPlanIncludesCarryOverInRequirement(t *testing.T) {
	svc := newTravelService()
	members := []models.Member{
		{ID: "m1", Name: "Ada", Location: geo(37.55, 126.97), CarryOverHours: 1},
	}

	resp, err := svc.Plan(planFixture(members, nil))
	require.NoError(t, err)

	var visitMinutes int
	for _, slot := range resp.TimeSlots {
		if slot.MemberID != nil {
			start, _ := models.MinutesOfDay(slot.StartTime)
			end, _ := models.MinutesOfDay(slot.EndTime)
			visitMinutes += end - start
		}
	}
	assert.Equal(t, 180, visitMinutes)
}

func TestPlanHandlesMembersWithoutCoordinates(t *testing.T) {
	svc := newTravelService()
	members := []models.Member{
		{ID: "m1", Name: "Ada", Location: geo(37.55, 126.97)},
		{ID: "m2", Name: "Ben"},
	}

	resp, err := svc.Plan(planFixture(members, nil))
	require.NoError(t, err)
	assert.Empty(t, resp.Unvisited)

	visited := make(map[string]bool)
	for _, slot := range resp.TimeSlots {
		if slot.MemberID != nil {
			visited[*slot.MemberID] = true
		}
	}
	assert.True(t, visited["m2"])
}

func TestPlanTerminatesWhenAvailabilityNeverMatches(t *testing.T) {
	svc := newTravelService()
	members := []models.Member{
		{
			ID:       "m1",
			Name:     "Ada",
			Location: geo(37.55, 126.97),
			// only available outside working hours
			PreferredBlocks: []models.TimeWindow{
				{Days: []models.DayCode{models.DayMon}, StartTime: "19:00", EndTime: "21:00"},
			},
		},
	}

	resp, err := svc.Plan(planFixture(members, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, resp.Unvisited)
}

func TestPlanRespectsPreferredBlocks(t *testing.T) {
	svc := newTravelService()
	members := []models.Member{
		{
			ID:       "m1",
			Name:     "Ada",
			Location: geo(37.5665, 126.978),
			PreferredBlocks: []models.TimeWindow{
				{Days: []models.DayCode{models.DayMon}, StartTime: "13:00", EndTime: "16:00"},
			},
		},
	}

	resp, err := svc.Plan(planFixture(members, nil))
	require.NoError(t, err)
	assert.Empty(t, resp.Unvisited)

	for _, slot := range resp.TimeSlots {
		if slot.MemberID == nil {
			continue
		}
		start, err := models.MinutesOfDay(slot.StartTime)
		require.NoError(t, err)
		end, err := models.MinutesOfDay(slot.EndTime)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, start, 13*60)
		assert.LessOrEqual(t, end, 16*60)
	}
}
