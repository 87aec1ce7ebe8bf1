package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/gatherly-api/internal/dto"
	"github.com/gatherly/gatherly-api/internal/models"
)

type combinationServiceMock struct {
	combinations []models.Combination
	calls        int
}

func (m *combinationServiceMock) GenerateMultiple(schedules []models.Schedule, maxCombinations, maxAttempts int) []models.Combination {
	m.calls++
	return m.combinations
}

func postCombinations(t *testing.T, handler *CombinationHandler, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, "/schedules/combinations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	handler.Generate(c)
	return w
}

func TestCombinationHandlerGenerate(t *testing.T) {
	mock := &combinationServiceMock{combinations: []models.Combination{{
		{ID: "s1", Title: "math", TimeWindow: models.TimeWindow{Days: []models.DayCode{models.DayMon}, StartTime: "09:00", EndTime: "10:00"}},
	}}}
	handler := NewCombinationHandler(mock)

	w := postCombinations(t, handler, dto.CombinationRequest{Schedules: []models.Schedule{
		{ID: "s1", Title: "math", TimeWindow: models.TimeWindow{Days: []models.DayCode{models.DayMon}, StartTime: "09:00", EndTime: "10:00"}},
	}})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, mock.calls)

	var envelope struct {
		Data dto.CombinationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Combinations, 1)
	assert.Equal(t, "math", envelope.Data.Combinations[0][0].Title)
}

func TestCombinationHandlerRejectsEmptySchedules(t *testing.T) {
	mock := &combinationServiceMock{}
	handler := NewCombinationHandler(mock)

	w := postCombinations(t, handler, dto.CombinationRequest{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, mock.calls)
}

func TestCombinationHandlerRejectsMalformedWindow(t *testing.T) {
	mock := &combinationServiceMock{}
	handler := NewCombinationHandler(mock)

	w := postCombinations(t, handler, dto.CombinationRequest{Schedules: []models.Schedule{
		{ID: "s1", Title: "math", TimeWindow: models.TimeWindow{Days: []models.DayCode{models.DayMon}, StartTime: "10:00", EndTime: "09:00"}},
	}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, mock.calls)
}

func TestCombinationHandlerInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCombinationHandler(&combinationServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedules/combinations", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Generate(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
