package dto

import (
	"time"

	"github.com/gatherly/gatherly-api/internal/models"
)

// TravelPlanRequest invokes one travel-scheduler run over a room.
type TravelPlanRequest struct {
	Members   []models.Member     `json:"members" validate:"required,min=1,dive"`
	Owner     models.Member       `json:"owner" validate:"required"`
	StartDate time.Time           `json:"startDate" validate:"required"`
	Settings  models.RoomSettings `json:"roomSettings"`
	Assigned  map[string]float64  `json:"assignedHours,omitempty"`
}

// TravelPlanResponse returns the assignment table for the run.
type TravelPlanResponse struct {
	TimeSlots []models.AssignedSlot `json:"timeSlots"`
	Members   []models.Member       `json:"members"`
	Settings  models.RoomSettings   `json:"settings"`
	Unvisited []string              `json:"unvisitedMemberIds,omitempty"`
}
