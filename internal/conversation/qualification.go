package conversation

import (
	"strings"

	"github.com/sidekickhq/leadline/internal/leads"
)

const (
	ServiceTypeHeating = "heating"
	ServiceTypeCooling = "cooling"
	ServiceTypeBoth    = "both"
	ServiceTypeUnknown = "unknown"

	UrgencyEmergency = "emergency"
	UrgencyUnknown   = "unknown"
)

var heatingKeywords = []string{"furnace", "heat", "heating", "boiler", "thermostat"}
var coolingKeywords = []string{"ac", "a/c", "air conditioning", "air conditioner", "cooling", "humid"}

// ExtractQualification derives advisory service-type and urgency metadata from
// the lead's stored fields and the customer's side of the transcript.
func ExtractQualification(lead *leads.Lead, transcript []Turn) Qualification {
	q := Qualification{
		ServiceType: ServiceTypeUnknown,
		Urgency:     UrgencyUnknown,
	}

	var customerText strings.Builder
	if lead != nil && lead.RequestedService != "" {
		customerText.WriteString(strings.ToLower(lead.RequestedService))
		customerText.WriteByte(' ')
	}
	for _, turn := range transcript {
		if turn.Role == ChatRoleUser {
			customerText.WriteString(strings.ToLower(turn.Content))
			customerText.WriteByte(' ')
		}
	}
	text := customerText.String()

	heating := containsAny(text, heatingKeywords)
	cooling := containsAny(text, coolingKeywords)
	switch {
	case heating && cooling:
		q.ServiceType = ServiceTypeBoth
	case heating:
		q.ServiceType = ServiceTypeHeating
	case cooling:
		q.ServiceType = ServiceTypeCooling
	}

	if containsAny(text, emergencyKeywords) {
		q.Urgency = UrgencyEmergency
	}

	return q
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		// Short tokens like "ac" need word boundaries or they match inside
		// unrelated words ("contact", "reach").
		if len(kw) <= 3 && !strings.Contains(kw, " ") {
			for _, word := range strings.FieldsFunc(text, func(r rune) bool {
				return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '/'
			}) {
				if word == kw {
					return true
				}
			}
			continue
		}
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
