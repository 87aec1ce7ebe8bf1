package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/gatherly-api/internal/dto"
	"github.com/gatherly/gatherly-api/internal/models"
	appErrors "github.com/gatherly/gatherly-api/pkg/errors"
	"github.com/gatherly/gatherly-api/pkg/export"
	"github.com/gatherly/gatherly-api/pkg/response"
)

type travelRoomStore interface {
	FindRoom(ctx context.Context, id string) (*models.Room, error)
	ListMembers(ctx context.Context, roomID string) ([]models.Member, error)
}

type travelPlanStore interface {
	ReplacePlan(ctx context.Context, roomID string, slots []models.AssignedSlot) error
	ListByRoom(ctx context.Context, roomID string) ([]models.AssignedSlot, error)
	SumAssignedHours(ctx context.Context, roomID string, from, to time.Time) (map[string]float64, error)
}

type visitPlanner interface {
	Plan(req dto.TravelPlanRequest) (*dto.TravelPlanResponse, error)
}

// TravelHandler runs the travel scheduler over a room and exports the
// resulting assignment table.
type TravelHandler struct {
	rooms    travelRoomStore
	slots    travelPlanStore
	planner  visitPlanner
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	pdfTitle string
}

// NewTravelHandler constructs the travel handler.
func NewTravelHandler(rooms travelRoomStore, slots travelPlanStore, planner visitPlanner, csv *export.CSVExporter, pdf *export.PDFExporter, pdfTitle string) *TravelHandler {
	return &TravelHandler{rooms: rooms, slots: slots, planner: planner, csv: csv, pdf: pdf, pdfTitle: pdfTitle}
}

type travelPlanBody struct {
	StartDate time.Time `json:"startDate" binding:"required"`
}

// Plan godoc
// @Summary Run the travel scheduler for a room
// @Tags Travel
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param payload body travelPlanBody true "Week start date"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id}/travel-plan [post]
func (h *TravelHandler) Plan(c *gin.Context) {
	roomID := c.Param("id")

	var body travelPlanBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid travel plan payload"))
		return
	}

	ctx := c.Request.Context()
	room, err := h.rooms.FindRoom(ctx, roomID)
	if err != nil {
		response.Error(c, h.roomErr(err))
		return
	}
	members, err := h.rooms.ListMembers(ctx, roomID)
	if err != nil {
		response.Error(c, err)
		return
	}

	var owner *models.Member
	visitees := make([]models.Member, 0, len(members))
	for i := range members {
		if members[i].ID == room.OwnerID {
			owner = &members[i]
			continue
		}
		visitees = append(visitees, members[i])
	}
	if owner == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "room owner is not a member"))
		return
	}
	if len(visitees) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "room has no members to visit"))
		return
	}

	assigned, err := h.slots.SumAssignedHours(ctx, roomID, body.StartDate, body.StartDate.AddDate(0, 0, 7))
	if err != nil {
		response.Error(c, err)
		return
	}

	plan, err := h.planner.Plan(dto.TravelPlanRequest{
		Members:   visitees,
		Owner:     *owner,
		StartDate: body.StartDate,
		Settings:  room.Settings,
		Assigned:  assigned,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.slots.ReplacePlan(ctx, roomID, plan.TimeSlots); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, plan, nil)
}

// Export godoc
// @Summary Export the room's current travel plan
// @Tags Travel
// @Produce text/csv,application/pdf
// @Param id path string true "Room ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} byte
// @Router /rooms/{id}/travel-plan/export [get]
func (h *TravelHandler) Export(c *gin.Context) {
	roomID := c.Param("id")
	ctx := c.Request.Context()

	if _, err := h.rooms.FindRoom(ctx, roomID); err != nil {
		response.Error(c, h.roomErr(err))
		return
	}
	slots, err := h.slots.ListByRoom(ctx, roomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	members, err := h.rooms.ListMembers(ctx, roomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	names := make(map[string]string, len(members))
	for _, member := range members {
		names[member.ID] = member.Name
	}

	dataset := planDataset(slots, names)

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		payload, err := h.csv.Render(dataset)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=travel-plan-%s.csv", roomID))
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.pdf.Render(dataset, h.pdfTitle)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=travel-plan-%s.pdf", roomID))
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

func planDataset(slots []models.AssignedSlot, names map[string]string) export.Dataset {
	rows := make([]map[string]string, 0, len(slots))
	for _, slot := range slots {
		kind := "visit"
		memberName := ""
		if slot.IsTravel {
			kind = "travel"
		} else if slot.MemberID != nil {
			memberName = names[*slot.MemberID]
		}
		rows = append(rows, map[string]string{
			"Date":   slot.Date,
			"Day":    string(slot.Day),
			"Start":  slot.StartTime,
			"End":    slot.EndTime,
			"Member": memberName,
			"Type":   kind,
			"Label":  slot.Label,
		})
	}
	return export.Dataset{
		Headers: []string{"Date", "Day", "Start", "End", "Member", "Type", "Label"},
		Rows:    rows,
	}
}

func (h *TravelHandler) roomErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "room not found")
	}
	return err
}
