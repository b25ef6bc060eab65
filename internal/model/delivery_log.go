package model

import (
	"time"

	"github.com/google/uuid"
)

type LogStatus string

const (
	LogSent      LogStatus = "sent"
	LogFailed    LogStatus = "failed"
	LogPending   LogStatus = "pending"
	LogDelivered LogStatus = "delivered"
	LogRejected  LogStatus = "rejected"
	LogExpired   LogStatus = "expired"
)

func (s LogStatus) Valid() bool {
	switch s {
	case LogSent, LogFailed, LogPending, LogDelivered, LogRejected, LogExpired:
		return true
	}
	return false
}

type DeliveryLog struct {
	ID                uuid.UUID `json:"id"`
	MessageID         uuid.UUID `json:"message_id"`
	RecipientID       uuid.UUID `json:"recipient_id"`
	Status            LogStatus `json:"status"`
	ErrorMessage      *string   `json:"error_message,omitempty"`
	ProviderMessageID *string   `json:"provider_message_id,omitempty"`
	SentAt            time.Time `json:"sent_at"`
}
