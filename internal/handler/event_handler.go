package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/gatherly-api/internal/dto"
	appErrors "github.com/gatherly/gatherly-api/pkg/errors"
	"github.com/gatherly/gatherly-api/pkg/response"
)

type recommendationProvider interface {
	Alternatives(ctx context.Context, req dto.AlternativeTimeRequest) (*dto.RecommendationResponse, error)
	Reschedules(ctx context.Context, req dto.RescheduleTimeRequest) (*dto.RecommendationResponse, error)
	ConfirmReschedule(ctx context.Context, req dto.ConfirmRescheduleRequest) (*dto.ConfirmRescheduleResponse, error)
}

// EventHandler exposes time-recommendation endpoints.
type EventHandler struct {
	service recommendationProvider
}

// NewEventHandler constructs the event handler.
func NewEventHandler(service recommendationProvider) *EventHandler {
	return &EventHandler{service: service}
}

// RecommendAlternative godoc
// @Summary Recommend free slots near a pending event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.AlternativeTimeRequest true "Pending event and existing commitments"
// @Success 200 {object} response.Envelope
// @Router /events/recommend-alternative [post]
func (h *EventHandler) RecommendAlternative(c *gin.Context) {
	var req dto.AlternativeTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid recommendation payload"))
		return
	}
	resp, err := h.service.Alternatives(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// RecommendReschedule godoc
// @Summary Recommend relocation slots for a conflicting event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.RescheduleTimeRequest true "Conflicting event and existing commitments"
// @Success 200 {object} response.Envelope
// @Router /events/recommend-reschedule [post]
func (h *EventHandler) RecommendReschedule(c *gin.Context) {
	var req dto.RescheduleTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reschedule payload"))
		return
	}
	resp, err := h.service.Reschedules(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// ConfirmReschedule godoc
// @Summary Commit a recommended slot for an event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.ConfirmRescheduleRequest true "Event and chosen slot"
// @Success 200 {object} response.Envelope
// @Router /events/confirm-reschedule [post]
func (h *EventHandler) ConfirmReschedule(c *gin.Context) {
	var req dto.ConfirmRescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid confirm payload"))
		return
	}
	resp, err := h.service.ConfirmReschedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
