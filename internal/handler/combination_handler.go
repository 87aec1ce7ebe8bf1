package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/gatherly-api/internal/dto"
	"github.com/gatherly/gatherly-api/internal/models"
	appErrors "github.com/gatherly/gatherly-api/pkg/errors"
	"github.com/gatherly/gatherly-api/pkg/response"
)

type combinationGenerator interface {
	GenerateMultiple(schedules []models.Schedule, maxCombinations, maxAttempts int) []models.Combination
}

// CombinationHandler exposes the conflict-free combination endpoint.
type CombinationHandler struct {
	service combinationGenerator
}

// NewCombinationHandler constructs the combination handler.
func NewCombinationHandler(service combinationGenerator) *CombinationHandler {
	return &CombinationHandler{service: service}
}

// Generate godoc
// @Summary Generate conflict-free schedule combinations
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.CombinationRequest true "Candidate schedules"
// @Success 200 {object} response.Envelope
// @Router /schedules/combinations [post]
func (h *CombinationHandler) Generate(c *gin.Context) {
	var req dto.CombinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid combination payload"))
		return
	}
	if len(req.Schedules) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schedules must not be empty"))
		return
	}
	for _, schedule := range req.Schedules {
		if err := schedule.Validate(); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule window"))
			return
		}
	}

	combinations := h.service.GenerateMultiple(req.Schedules, req.MaxCombinations, req.MaxAttempts)
	response.JSON(c, http.StatusOK, dto.CombinationResponse{Combinations: combinations}, nil)
}
