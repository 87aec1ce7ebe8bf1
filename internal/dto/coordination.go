package dto

import "github.com/gatherly/gatherly-api/internal/models"

// CreateCoordinationRequest opens a new swap/booking request in a room.
type CreateCoordinationRequest struct {
	Type       string            `json:"type" validate:"required,oneof=booking slot_swap conflict"`
	TimeSlot   models.TimeWindow `json:"timeSlot" validate:"required"`
	TargetUser *string           `json:"targetUser,omitempty"`
	Message    *string           `json:"message,omitempty"`
}

// ResolveCoordinationRequest approves or rejects a pending request.
type ResolveCoordinationRequest struct {
	Action string `json:"action" validate:"required,oneof=approved rejected"`
}

// ResolveCoordinationResponse surfaces the outcome and the log entries
// appended by the workflow.
type ResolveCoordinationResponse struct {
	Status        string                    `json:"status"`
	LoggedEntries []models.ActivityLogEntry `json:"loggedEntries"`
}

// CarryOverStatus reports one member's fairness bookkeeping.
type CarryOverStatus struct {
	MemberID       string  `json:"memberId"`
	MemberName     string  `json:"memberName"`
	CarryOverHours float64 `json:"carryOverHours"`
	LongTermFlag   bool    `json:"longTermFlag"`
}
