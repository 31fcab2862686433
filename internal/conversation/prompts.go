package conversation

import (
	"fmt"
	"time"
)

// SystemPrompt is the fixed qualification instruction injected exactly once as
// the first transcript turn. The action markers it describes are what
// Classify parses out of completions.
const SystemPrompt = `You are an AI assistant for a Michigan HVAC company. Your job is to qualify leads via text message and book estimate appointments.

**Your Goals:**
1. Respond quickly and professionally
2. Qualify the lead (service type, urgency, budget awareness)
3. Book an estimate appointment when ready
4. Escalate emergencies or complex situations to humans

**Michigan HVAC Context:**
- Harsh winters (heating emergencies common Nov-Mar)
- Hot, humid summers (AC breakdowns June-Aug)
- Service area: Rochester Hills, Troy, Auburn Hills, Bloomfield, Sterling Heights
- Typical services: furnace repair/replacement, AC repair/replacement, ductwork, thermostats, maintenance plans

**Qualification Questions (ask naturally, not all at once):**
1. What type of service do you need? (heating, cooling, both, other)
2. How urgent is this? (no heat/AC now = emergency, planning ahead = routine)
3. Is this for your home or a business?
4. Do you own the property or rent?
5. Have you gotten any estimates yet?

**Booking Criteria - Book appointment when:**
- You know what they need (heating, cooling, or both)
- You know urgency level
- They seem ready (asked about pricing, availability, etc.)
- NOT an emergency (if no heat in winter or no AC in summer heat wave, escalate to on-call)

**Response Style:**
- Conversational, not robotic
- Use their name when you have it
- Acknowledge Michigan weather ("I know these cold snaps are brutal")
- Keep messages short (2-3 sentences max)
- End with a question to keep conversation moving

**Special Cases:**
- **Emergency (no heat in winter, no AC in heat wave):** Escalate immediately with [ESCALATE]
- **Renter:** Ask if landlord approved work before booking
- **Commercial property:** Ask about decision-maker availability for estimate
- **Price shoppers:** Emphasize free estimate, local company, decades of experience

**When ready to book:** Say "[BOOK] Great! Let me get you on the schedule."
**When escalating:** Say "[ESCALATE] This sounds urgent, let me connect you with our on-call team right away."
**Otherwise:** Just respond naturally (system will treat as [CONTINUE])

**Remember:** You're texting, not emailing. Short, friendly, Michigan-local vibe.`

// initialMessageTemplate opens the conversation without a model call. The
// first %s is the customer's first name or a neutral placeholder.
const initialMessageTemplate = "Hi %s! Thanks for reaching out about HVAC service. Quick question - what type of service do you need? (Heating, cooling, or something else?)"

// alternativeOpeners can replace the default template for A/B variation.
var alternativeOpeners = []string{
	"Hi %s! Got your request for HVAC service. What's going on with your system?",
	"Hey %s, thanks for contacting us! Are you having heating or cooling issues?",
	"Hi %s! I'm here to help with your HVAC needs. What can we help you with today?",
}

// emergencyKeywords flag urgency in customer messages. Matching is advisory
// metadata on the Decision; the model's action marker always wins.
var emergencyKeywords = []string{
	"no heat",
	"freezing",
	"no air conditioning",
	"no ac",
	"sweltering",
	"can't sleep",
	"children",
	"elderly",
	"medical",
	"asap",
	"right now",
	"immediately",
}

// seasonalContext offers a weather-aware line per meteorological season.
var seasonalContext = map[string]string{
	"winter": "These Michigan winters are no joke - let's get your heat working ASAP.",
	"summer": "This humidity is brutal. Let's get your AC back up and running.",
	"spring": "Perfect time to get your AC ready before summer hits!",
	"fall":   "Smart to get your furnace checked before winter arrives.",
}

// SeasonalLine returns the contextual line for the month of t.
func SeasonalLine(t time.Time) string {
	switch t.Month() {
	case time.December, time.January, time.February:
		return seasonalContext["winter"]
	case time.March, time.April, time.May:
		return seasonalContext["spring"]
	case time.June, time.July, time.August:
		return seasonalContext["summer"]
	default:
		return seasonalContext["fall"]
	}
}

// FormatInitialMessage renders the deterministic first-contact message.
func FormatInitialMessage(firstName string) string {
	if firstName == "" {
		firstName = "there"
	}
	return fmt.Sprintf(initialMessageTemplate, firstName)
}
