package dto

import (
	"time"

	"github.com/google/uuid"
)

// AiConfigurationResponse represents one tuning setting row.
type AiConfigurationResponse struct {
	Id          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	ValueType   string    `json:"value_type"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpdateAiConfigurationRequest for updating a configuration value
type UpdateAiConfigurationRequest struct {
	Value string `json:"value" validate:"required,max=200"`
}
