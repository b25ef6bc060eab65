package model

import "github.com/google/uuid"

type SMSConfig struct {
	ID           uuid.UUID `json:"id"`
	ProviderName string    `json:"provider_name" validate:"required"`
	APIKey       string    `json:"-"`
	APISecret    string    `json:"-"`
	SenderID     string    `json:"sender_id" validate:"max=15"`
	BaseURL      string    `json:"base_url" validate:"omitempty,url"`
	IsDefault    bool      `json:"is_default"`
	IsActive     bool      `json:"is_active"`
}
