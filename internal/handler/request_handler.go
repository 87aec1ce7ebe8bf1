package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/gatherly-api/internal/dto"
	"github.com/gatherly/gatherly-api/internal/models"
	appErrors "github.com/gatherly/gatherly-api/pkg/errors"
	"github.com/gatherly/gatherly-api/pkg/response"
)

type coordinationWorkflow interface {
	Create(ctx context.Context, roomID, requesterID string, req dto.CreateCoordinationRequest) (*models.CoordinationRequest, error)
	Resolve(ctx context.Context, roomID, requestID, actorID string, req dto.ResolveCoordinationRequest) (*dto.ResolveCoordinationResponse, error)
	Delete(ctx context.Context, roomID, requestID, actorID string) error
	List(ctx context.Context, roomID string) ([]models.CoordinationRequest, error)
	Activity(ctx context.Context, roomID string) ([]models.ActivityLogEntry, error)
}

type carryOverReporter interface {
	Status(ctx context.Context, roomID string, now time.Time) ([]dto.CarryOverStatus, error)
}

// RequestHandler exposes the coordination workflow per room.
type RequestHandler struct {
	workflow  coordinationWorkflow
	carryOver carryOverReporter
}

// NewRequestHandler constructs the coordination request handler.
func NewRequestHandler(workflow coordinationWorkflow, carryOver carryOverReporter) *RequestHandler {
	return &RequestHandler{workflow: workflow, carryOver: carryOver}
}

// Create godoc
// @Summary Open a coordination request
// @Tags Coordination
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param payload body dto.CreateCoordinationRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /rooms/{id}/requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateCoordinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}

	created, err := h.workflow.Create(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Resolve godoc
// @Summary Approve or reject a pending request
// @Tags Coordination
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param requestId path string true "Request ID"
// @Param payload body dto.ResolveCoordinationRequest true "Resolution action"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id}/requests/{requestId}/resolve [post]
func (h *RequestHandler) Resolve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ResolveCoordinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolution payload"))
		return
	}

	resolved, err := h.workflow.Resolve(c.Request.Context(), c.Param("id"), c.Param("requestId"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resolved, nil)
}

// Delete godoc
// @Summary Withdraw or clean up a request
// @Tags Coordination
// @Produce json
// @Param id path string true "Room ID"
// @Param requestId path string true "Request ID"
// @Success 204
// @Router /rooms/{id}/requests/{requestId} [delete]
func (h *RequestHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.workflow.Delete(c.Request.Context(), c.Param("id"), c.Param("requestId"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List a room's coordination requests
// @Tags Coordination
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id}/requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	requests, err := h.workflow.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Activity godoc
// @Summary List a room's activity log
// @Tags Coordination
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id}/activity [get]
func (h *RequestHandler) Activity(c *gin.Context) {
	entries, err := h.workflow.Activity(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// CarryOver godoc
// @Summary Report carry-over balances and long-term flags
// @Tags Coordination
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id}/carryover [get]
func (h *RequestHandler) CarryOver(c *gin.Context) {
	statuses, err := h.carryOver.Status(c.Request.Context(), c.Param("id"), time.Now().UTC())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statuses, nil)
}
