package service

import (
	"regexp"
	"strings"

	"github.com/LeventeLantos/church-messaging/internal/model"
)

var tokenPattern = regexp.MustCompile(`(?i)\{\{?\s*(first_name|last_name|full_name|phone)\s*\}?\}`)

// Personalize substitutes member tokens such as {{first_name}} in text.
// Unknown tokens are left untouched.
func Personalize(text string, m model.Member, phone string) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(tok string) string {
		sub := tokenPattern.FindStringSubmatch(tok)
		if len(sub) < 2 {
			return tok
		}
		switch strings.ToLower(sub[1]) {
		case "first_name":
			return m.FirstName
		case "last_name":
			return m.LastName
		case "full_name":
			return m.FullName()
		case "phone":
			return phone
		}
		return tok
	})
}
