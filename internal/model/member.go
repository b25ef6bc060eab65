package model

import (
	"strings"

	"github.com/google/uuid"
)

type MemberStatus string

const (
	MemberActive   MemberStatus = "active"
	MemberInactive MemberStatus = "inactive"
)

type Member struct {
	ID                 uuid.UUID    `json:"id"`
	FirstName          string       `json:"first_name"`
	LastName           string       `json:"last_name"`
	PrimaryPhoneNumber string       `json:"primary_phone_number"`
	Status             MemberStatus `json:"status"`
}

func (m Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// Reachable reports whether the member can receive an SMS.
func (m Member) Reachable() bool {
	return m.Status == MemberActive && strings.TrimSpace(m.PrimaryPhoneNumber) != ""
}
