package model

import (
	"time"

	"github.com/google/uuid"
)

type MessageStatus string

const (
	MessageActive     MessageStatus = "active"
	MessageScheduled  MessageStatus = "scheduled"
	MessageProcessing MessageStatus = "processing"
	MessageCompleted  MessageStatus = "completed"
	MessageInactive   MessageStatus = "inactive"
	MessageError      MessageStatus = "error"
)

type Frequency string

const (
	OneTime Frequency = "one-time"
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// BirthdayType messages are sent by a separate flow and never dispatched here.
const BirthdayType = "birthday"

type Message struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Content      string        `json:"content"`
	Status       MessageStatus `json:"status"`
	Frequency    Frequency     `json:"frequency"`
	ScheduleTime time.Time     `json:"schedule_time"`
	EndDate      *time.Time    `json:"end_date,omitempty"`
	Type         string        `json:"type"`
	ErrorMessage *string       `json:"error_message,omitempty"`
}


type RecipientType string

const (
	Individual RecipientType = "individual"
	Group      RecipientType = "group"
)

type RecipientRef struct {
	MessageID     uuid.UUID     `json:"message_id"`
	RecipientID   uuid.UUID     `json:"recipient_id"`
	RecipientType RecipientType `json:"recipient_type"`
}
