package dto

import (
	"time"

	"github.com/gatherly/gatherly-api/internal/models"
)

// PendingEventRequest describes the event needing an alternative slot.
type PendingEventRequest struct {
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required"`
	Title     string    `json:"title"`
}

// AlternativeTimeRequest asks for free slots near a pending event.
type AlternativeTimeRequest struct {
	PendingEvent   PendingEventRequest `json:"pendingEvent" validate:"required"`
	ExistingEvents []models.Event      `json:"existingEvents" validate:"dive"`
}

// RescheduleTimeRequest asks for relocation slots for an existing event.
type RescheduleTimeRequest struct {
	ConflictingEvent models.Event   `json:"conflictingEvent" validate:"required"`
	ExistingEvents   []models.Event `json:"existingEvents" validate:"dive"`
}

// Recommendation is one candidate slot with a display label.
type Recommendation struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Display   string    `json:"display"`
}

// RecommendationResponse wraps the candidate list and its message.
type RecommendationResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
	Message         string           `json:"message"`
}

// ConfirmRescheduleRequest commits a previously recommended slot.
// Re-confirming identical input is a no-op success.
type ConfirmRescheduleRequest struct {
	EventID   string    `json:"eventId" validate:"required"`
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required"`
}

// ConfirmRescheduleResponse reports the committed slot.
type ConfirmRescheduleResponse struct {
	EventID        string    `json:"eventId"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	AlreadyApplied bool      `json:"alreadyApplied"`
}
