package model

import "github.com/google/uuid"

type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
	DeliverySkipped DeliveryStatus = "skipped"
)

// Succeeded counts a skipped delivery as success so the message is not retried.
func (s DeliveryStatus) Succeeded() bool {
	return s == DeliverySent || s == DeliverySkipped
}

type MemberDelivery struct {
	MemberID          uuid.UUID      `json:"member_id"`
	Name              string         `json:"name,omitempty"`
	Phone             string         `json:"phone,omitempty"`
	Status            DeliveryStatus `json:"status"`
	Reason            string         `json:"reason,omitempty"`
	Error             string         `json:"error,omitempty"`
	ProviderMessageID string         `json:"provider_message_id,omitempty"`
}

type RecipientResult struct {
	RecipientID   uuid.UUID        `json:"recipient_id"`
	RecipientType RecipientType    `json:"recipient_type"`
	Status        DeliveryStatus   `json:"status"`
	Reason        string           `json:"reason,omitempty"`
	Error         string           `json:"error,omitempty"`
	Sent          int              `json:"sent"`
	Failed        int              `json:"failed"`
	Skipped       int              `json:"skipped"`
	Deliveries    []MemberDelivery `json:"deliveries,omitempty"`
}

func (r *RecipientResult) Add(d MemberDelivery) {
	switch d.Status {
	case DeliverySent:
		r.Sent++
	case DeliverySkipped:
		r.Skipped++
	default:
		r.Failed++
	}
	r.Deliveries = append(r.Deliveries, d)
}

func (r RecipientResult) Succeeded() bool {
	return r.Sent+r.Skipped > 0
}

type MessageOutcome string

const (
	OutcomeSuccess MessageOutcome = "success"
	OutcomeFailed  MessageOutcome = "failed"
	OutcomeSkipped MessageOutcome = "skipped"
	OutcomeError   MessageOutcome = "error"
)

type MessageResult struct {
	MessageID     uuid.UUID         `json:"message_id"`
	Name          string            `json:"name"`
	Status        MessageOutcome    `json:"status"`
	Reason        string            `json:"reason,omitempty"`
	Error         string            `json:"error,omitempty"`
	ScheduleError string            `json:"schedule_error,omitempty"`
	FinalStatus   MessageStatus     `json:"final_status,omitempty"`
	Recipients    []RecipientResult `json:"recipients,omitempty"`
}

type Report struct {
	Processed int             `json:"processed"`
	Results   []MessageResult `json:"results"`
}
