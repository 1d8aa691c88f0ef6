package conversation

import "strings"

type Intent string

const (
	IntentBooking  Intent = "booking"
	IntentQuestion Intent = "question"
)

type intentRule struct {
	intent Intent
	match  func(lower string) bool
}

var bookingKeywords = []string{"call me", "book appointment", "schedule call", "contact me", "arrange call"}

// intentRules are tried in order; the first match wins.
var intentRules = []intentRule{
	{intent: IntentBooking, match: containsAny(bookingKeywords...)},
}

func containsAny(keywords ...string) func(string) bool {
	return func(lower string) bool {
		for _, k := range keywords {
			if strings.Contains(lower, k) {
				return true
			}
		}
		return false
	}
}

// DetectIntent classifies a message that arrives while no form is being filled.
func DetectIntent(text string) Intent {
	lower := strings.ToLower(text)
	for _, r := range intentRules {
		if r.match(lower) {
			return r.intent
		}
	}
	return IntentQuestion
}
