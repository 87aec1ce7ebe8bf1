package dto

import "github.com/gatherly/gatherly-api/internal/models"

// CombinationRequest supplies candidate schedules to combine.
type CombinationRequest struct {
	Schedules       []models.Schedule `json:"schedules" validate:"required,min=1,dive"`
	MaxCombinations int               `json:"maxCombinations" validate:"omitempty,min=1,max=20"`
	MaxAttempts     int               `json:"maxAttempts" validate:"omitempty,min=1,max=100"`
}

// CombinationResponse returns conflict-free combinations, largest first.
type CombinationResponse struct {
	Combinations []models.Combination `json:"combinations"`
}
