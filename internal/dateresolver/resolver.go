// Package dateresolver turns free-text date phrases ("next monday", "tomorrow",
// "12/24/2026") into calendar dates relative to an explicit reference date.
package dateresolver

import (
	"strings"
	"time"
)

// Layout is the canonical storage format for resolved dates.
const Layout = "2006-01-02"

const displayLayout = "January 02, 2006"

const (
	ReasonValid         = "Valid date"
	ReasonInPast        = "Date cannot be in the past"
	ReasonInvalidFormat = "Invalid date format. Please use YYYY-MM-DD"
)

// Resolver resolves phrases against the host's local "today".
// Now is injectable so callers can pin the reference date.
type Resolver struct {
	Now func() time.Time
}

func New() *Resolver {
	return &Resolver{Now: time.Now}
}

// Today returns the reference date (midnight, local calendar of Now).
func (r *Resolver) Today() time.Time {
	now := time.Now
	if r != nil && r.Now != nil {
		now = r.Now
	}
	return Day(now())
}

func (r *Resolver) Resolve(text string) (time.Time, bool) {
	return Resolve(text, r.Today())
}

func (r *Resolver) Validate(date time.Time) (bool, string) {
	return Validate(date, r.Today())
}

// Resolve maps text to a calendar date relative to ref. The second return value
// is false when the text cannot be resolved.
func Resolve(text string, ref time.Time) (time.Time, bool) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return time.Time{}, false
	}
	lower := strings.ToLower(raw)
	ref = Day(ref)

	for _, r := range rules {
		if !r.match(lower) {
			continue
		}
		if date, ok := r.resolve(input{raw: raw, lower: lower}, ref); ok {
			return date, true
		}
		if !r.passThrough {
			return time.Time{}, false
		}
	}
	return time.Time{}, false
}

// Validate reports whether date is acceptable for booking: today or later.
func Validate(date, ref time.Time) (bool, string) {
	if Day(date).Before(Day(ref)) {
		return false, ReasonInPast
	}
	return true, ReasonValid
}

// ValidateString validates a canonical YYYY-MM-DD string.
func ValidateString(s string, ref time.Time) (bool, string) {
	date, err := time.ParseInLocation(Layout, strings.TrimSpace(s), ref.Location())
	if err != nil {
		return false, ReasonInvalidFormat
	}
	return Validate(date, ref)
}

// Format renders date in the canonical YYYY-MM-DD layout.
func Format(date time.Time) string {
	return date.Format(Layout)
}

// FormatForDisplay renders a canonical date as "January 15, 2024". Input that
// does not parse is returned unchanged.
func FormatForDisplay(s string) string {
	date, err := time.Parse(Layout, s)
	if err != nil {
		return s
	}
	return date.Format(displayLayout)
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
