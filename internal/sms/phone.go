package sms

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// PhoneNormalizer validates numbers and renders them in E.164.
// Numbers without a country code are read in the default region.
type PhoneNormalizer struct {
	region string
}

func NewPhoneNormalizer(region string) PhoneNormalizer {
	return PhoneNormalizer{region: strings.ToUpper(strings.TrimSpace(region))}
}

func (p PhoneNormalizer) Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrInvalidPhone
	}

	if num, err := phonenumbers.Parse(s, p.region); err == nil && phonenumbers.IsValidNumber(num) {
		return phonenumbers.Format(num, phonenumbers.E164), nil
	}

	// Stored numbers sometimes carry the country code without the leading +.
	if !strings.HasPrefix(s, "+") {
		if num, err := phonenumbers.Parse("+"+s, ""); err == nil && phonenumbers.IsValidNumber(num) {
			return phonenumbers.Format(num, phonenumbers.E164), nil
		}
	}

	return "", ErrInvalidPhone
}
