package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/gatherly-api/internal/dto"
	"github.com/gatherly/gatherly-api/internal/models"
	"github.com/gatherly/gatherly-api/pkg/export"
)

type travelRoomStoreMock struct {
	room    *models.Room
	members []models.Member
}

func (m *travelRoomStoreMock) FindRoom(_ context.Context, id string) (*models.Room, error) {
	if m.room == nil || m.room.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.room, nil
}

func (m *travelRoomStoreMock) ListMembers(_ context.Context, _ string) ([]models.Member, error) {
	return m.members, nil
}

type travelPlanStoreMock struct {
	slots    []models.AssignedSlot
	replaced []models.AssignedSlot
	assigned map[string]float64
}

func (m *travelPlanStoreMock) ReplacePlan(_ context.Context, _ string, slots []models.AssignedSlot) error {
	m.replaced = slots
	return nil
}

func (m *travelPlanStoreMock) ListByRoom(_ context.Context, _ string) ([]models.AssignedSlot, error) {
	return m.slots, nil
}

func (m *travelPlanStoreMock) SumAssignedHours(_ context.Context, _ string, _, _ time.Time) (map[string]float64, error) {
	return m.assigned, nil
}

type visitPlannerMock struct {
	resp *dto.TravelPlanResponse
}

func (m *visitPlannerMock) Plan(_ dto.TravelPlanRequest) (*dto.TravelPlanResponse, error) {
	return m.resp, nil
}

func getExport(t *testing.T, handler *TravelHandler, format string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	target := "/rooms/room1/travel-plan/export"
	if format != "" {
		target += "?format=" + format
	}
	req, _ := http.NewRequest(http.MethodGet, target, nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "room1"}}
	handler.Export(c)
	return w
}

func TestTravelHandlerExportCSV(t *testing.T) {
	rooms := &travelRoomStoreMock{
		room: &models.Room{ID: "room1", OwnerID: "owner"},
		members: []models.Member{
			{ID: "owner", Name: "Olive"},
			{ID: "m1", Name: "Ada"},
		},
	}
	memberID := "m1"
	slots := &travelPlanStoreMock{slots: []models.AssignedSlot{
		{Date: "2026-03-02", Day: models.DayMon, StartTime: "09:00", EndTime: "09:30", IsTravel: true, Label: "travel to Ada"},
		{Date: "2026-03-02", Day: models.DayMon, StartTime: "09:30", EndTime: "11:30", MemberID: &memberID, Label: "visit Ada"},
	}}
	handler := NewTravelHandler(rooms, slots, nil, export.NewCSVExporter(), export.NewPDFExporter(), "Travel plan")

	w := getExport(t, handler, "csv")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Day,Start,End,Member,Type,Label", lines[0])
	assert.Equal(t, "2026-03-02,MON,09:00,09:30,,travel,travel to Ada", lines[1])
	assert.Equal(t, "2026-03-02,MON,09:30,11:30,Ada,visit,visit Ada", lines[2])
}

func TestTravelHandlerExportUnknownRoom(t *testing.T) {
	handler := NewTravelHandler(&travelRoomStoreMock{}, &travelPlanStoreMock{}, nil,
		export.NewCSVExporter(), export.NewPDFExporter(), "Travel plan")

	w := getExport(t, handler, "csv")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTravelHandlerExportRejectsUnknownFormat(t *testing.T) {
	handler := NewTravelHandler(&travelRoomStoreMock{room: &models.Room{ID: "room1"}}, &travelPlanStoreMock{}, nil,
		export.NewCSVExporter(), export.NewPDFExporter(), "Travel plan")

	w := getExport(t, handler, "xml")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
