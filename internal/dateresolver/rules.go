package dateresolver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Weekday names in Monday-first order; index 0 is Monday.
var weekdayNames = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

type input struct {
	raw   string
	lower string
}

// rule is one entry of the resolution table. Rules are evaluated in order and
// the first rule whose predicate matches decides the outcome, unless
// passThrough is set, in which case a failed resolution moves on to the next rule.
type rule struct {
	name        string
	match       func(lower string) bool
	resolve     func(in input, ref time.Time) (time.Time, bool)
	passThrough bool
}

var rules = []rule{
	{name: "today", match: contains("today"), resolve: offsetDays(0)},
	{name: "tomorrow", match: contains("tomorrow"), resolve: offsetDays(1)},
	{name: "yesterday", match: contains("yesterday"), resolve: offsetDays(-1)},
	{name: "next", match: contains("next"), resolve: resolveNext},
	{name: "this", match: contains("this"), resolve: resolveThis},
	{name: "weekday", match: containsWeekday, resolve: resolveBareWeekday},
	{name: "structured", match: hasStructuredDate, resolve: resolveStructured, passThrough: true},
	{name: "in-duration", match: inDurationPattern.MatchString, resolve: resolveInDuration, passThrough: true},
	{name: "ordinal-day", match: isBareOrdinalDay, resolve: resolveOrdinalDay, passThrough: true},
	{name: "fuzzy", match: func(string) bool { return true }, resolve: resolveFuzzy},
}

func contains(token string) func(string) bool {
	return func(lower string) bool {
		return strings.Contains(lower, token)
	}
}

func offsetDays(n int) func(input, time.Time) (time.Time, bool) {
	return func(_ input, ref time.Time) (time.Time, bool) {
		return ref.AddDate(0, 0, n), true
	}
}

func resolveNext(in input, ref time.Time) (time.Time, bool) {
	switch {
	case strings.Contains(in.lower, "next week"):
		return ref.AddDate(0, 0, 7), true
	case strings.Contains(in.lower, "next month"):
		return addMonths(ref, 1), true
	case strings.Contains(in.lower, "next year"):
		return addMonths(ref, 12), true
	}
	for i, day := range weekdayNames {
		if strings.Contains(in.lower, "next "+day) {
			return ref.AddDate(0, 0, i-weekdayIndex(ref)+7), true
		}
	}
	return time.Time{}, false
}

func resolveThis(in input, ref time.Time) (time.Time, bool) {
	for i, day := range weekdayNames {
		if !strings.Contains(in.lower, "this "+day) {
			continue
		}
		ahead := i - weekdayIndex(ref)
		if ahead < 0 {
			ahead += 7
		}
		return ref.AddDate(0, 0, ahead), true
	}
	return time.Time{}, false
}

func containsWeekday(lower string) bool {
	for _, day := range weekdayNames {
		if strings.Contains(lower, day) {
			return true
		}
	}
	return false
}

func resolveBareWeekday(in input, ref time.Time) (time.Time, bool) {
	for i, day := range weekdayNames {
		if !strings.Contains(in.lower, day) {
			continue
		}
		ahead := i - weekdayIndex(ref)
		if ahead <= 0 {
			ahead += 7
		}
		return ref.AddDate(0, 0, ahead), true
	}
	return time.Time{}, false
}

type datePattern struct {
	re     *regexp.Regexp
	layout string
	// dayFirst is tried when the month-first layout does not parse ("25/12/2026").
	dayFirst string
}

// Priority order matters: the first pattern with any match is tried first.
var structuredPatterns = []datePattern{
	{re: regexp.MustCompile(`\d{4}-\d{2}-\d{2}`), layout: "2006-01-02"},
	{re: regexp.MustCompile(`\d{2}/\d{2}/\d{4}`), layout: "01/02/2006", dayFirst: "02/01/2006"},
	{re: regexp.MustCompile(`\d{2}-\d{2}-\d{4}`), layout: "01-02-2006", dayFirst: "02-01-2006"},
	{re: regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`), layout: "1/2/2006", dayFirst: "2/1/2006"},
}

func hasStructuredDate(lower string) bool {
	for _, p := range structuredPatterns {
		if p.re.MatchString(lower) {
			return true
		}
	}
	return false
}

func resolveStructured(in input, ref time.Time) (time.Time, bool) {
	for _, p := range structuredPatterns {
		match := p.re.FindString(in.lower)
		if match == "" {
			continue
		}
		if date, err := time.ParseInLocation(p.layout, match, ref.Location()); err == nil {
			return date, true
		}
		if p.dayFirst == "" {
			continue
		}
		if date, err := time.ParseInLocation(p.dayFirst, match, ref.Location()); err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}

var inDurationPattern = regexp.MustCompile(`\bin\s+(\d{1,3})\s+(day|days|week|weeks)\b`)

func resolveInDuration(in input, ref time.Time) (time.Time, bool) {
	m := inDurationPattern.FindStringSubmatch(in.lower)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	if strings.HasPrefix(m[2], "week") {
		n *= 7
	}
	return ref.AddDate(0, 0, n), true
}

var ordinalDay = regexp.MustCompile(`\b(\d{1,2})(st|nd|rd|th)\b`)

// isBareOrdinalDay matches "the 20th" when no month is named.
func isBareOrdinalDay(lower string) bool {
	return ordinalDay.MatchString(lower) && !monthToken.MatchString(lower)
}

// resolveOrdinalDay reads a bare ordinal as that day of the reference month.
func resolveOrdinalDay(in input, ref time.Time) (time.Time, bool) {
	m := ordinalDay.FindStringSubmatch(in.lower)
	if m == nil {
		return time.Time{}, false
	}
	d, _ := strconv.Atoi(m[1])
	return calendarDate(ref.Year(), int(ref.Month()), d, ref.Location())
}

var (
	monthToken  = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\b`)
	numericDate = regexp.MustCompile(`\d{1,4}[/.\-]\d{1,2}`)
	hasFullYear = regexp.MustCompile(`\b\d{4}\b`)
	numericOnly = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})(?:[/.\-](\d{2}|\d{4}))?$`)
	trimPunct   = " ,.;:!?()\"'"
)

// resolveFuzzy tries contiguous token windows of the raw text, longest first.
// Windows naming a month go to dateparse; a window that is only a numeric
// date is read month-first, then day-first, with the reference year filled in
// when none is given. Other windows are skipped so bare numbers are never read
// as timestamps.
func resolveFuzzy(in input, ref time.Time) (date time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			date, ok = time.Time{}, false
		}
	}()

	tokens := strings.Fields(in.raw)
	for size := len(tokens); size > 0; size-- {
		for start := 0; start+size <= len(tokens); start++ {
			candidate := strings.Trim(strings.Join(tokens[start:start+size], " "), trimPunct)
			switch {
			case candidate == "":
				continue
			case monthToken.MatchString(candidate):
				if parsed, ok := parseCandidate(candidate, ref); ok {
					return parsed, true
				}
			case numericDate.MatchString(candidate):
				if parsed, ok := parseNumeric(candidate, ref); ok {
					return parsed, true
				}
			}
		}
	}
	return time.Time{}, false
}

func parseCandidate(candidate string, ref time.Time) (time.Time, bool) {
	attempts := []string{candidate}
	if !hasFullYear.MatchString(candidate) {
		attempts = append([]string{fmt.Sprintf("%s %d", candidate, ref.Year())}, attempts...)
	}
	for _, attempt := range attempts {
		t, err := dateparse.ParseIn(attempt, ref.Location())
		if err != nil {
			continue
		}
		if t.Year() < 1 || t.Year() > 9999 {
			continue
		}
		return Day(t), true
	}
	return time.Time{}, false
}

func parseNumeric(candidate string, ref time.Time) (time.Time, bool) {
	m := numericOnly.FindStringSubmatch(candidate)
	if m == nil {
		return time.Time{}, false
	}
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])

	year := ref.Year()
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
	}

	if date, ok := calendarDate(year, a, b, ref.Location()); ok {
		return date, true
	}
	return calendarDate(year, b, a, ref.Location())
}

// calendarDate builds the date only if month and day exist in that year.
func calendarDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if date.Day() != day {
		return time.Time{}, false
	}
	return date, true
}

// weekdayIndex maps time.Weekday onto Monday=0 ... Sunday=6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// addMonths adds calendar months, clamping the day to the end of the target month.
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
