package recurrence

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var (
	monthDayPattern = regexp.MustCompile(`\bon the (\d{1,2})(?:st|nd|rd|th)?\b`)
	untilPattern    = regexp.MustCompile(`\buntil\s+([a-zA-Z0-9, /-]+)`)
	countPattern    = regexp.MustCompile(`\b(?:for\s+)?(\d{1,3})\s+(?:times|occurrences|sessions|meetings)\b`)
	everyNPattern   = regexp.MustCompile(`\bevery\s+(\d{1,2})\s+(day|week|month|year)s?\b`)
)

var untilLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"01/02/2006",
	"2 January 2006",
}

// Parse extracts a recurrence descriptor from a pre-structured scheduling
// hint. Ambiguous or non-recurring language yields nil so the request can
// proceed as a one-time meeting; Parse never fails.
func Parse(hint string) *Descriptor {
	text := strings.ToLower(strings.TrimSpace(hint))
	if text == "" {
		return nil
	}

	descriptor := Descriptor{Interval: 1}

	switch {
	case containsAny(text, "bi-weekly", "biweekly", "every other week", "every two weeks", "fortnight"):
		descriptor.Frequency = FrequencyWeekly
		descriptor.Interval = 2
	case containsAny(text, "every day", "daily", "each day", "everyday"):
		descriptor.Frequency = FrequencyDaily
	case containsAny(text, "every week", "weekly", "each week"):
		descriptor.Frequency = FrequencyWeekly
	case containsAny(text, "every month", "monthly", "each month"):
		descriptor.Frequency = FrequencyMonthly
	case containsAny(text, "every year", "yearly", "annually", "each year"):
		descriptor.Frequency = FrequencyYearly
	}

	if match := everyNPattern.FindStringSubmatch(text); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil && n >= 1 {
			descriptor.Interval = n
		}
		switch match[2] {
		case "day":
			descriptor.Frequency = FrequencyDaily
		case "week":
			descriptor.Frequency = FrequencyWeekly
		case "month":
			descriptor.Frequency = FrequencyMonthly
		case "year":
			descriptor.Frequency = FrequencyYearly
		}
	}

	descriptor.Weekdays = parseWeekdays(text)

	// Weekday mentions alone imply a weekly cadence ("every monday").
	if descriptor.Frequency == "" && len(descriptor.Weekdays) > 0 && strings.Contains(text, "every") {
		descriptor.Frequency = FrequencyWeekly
	}

	if descriptor.Frequency == "" {
		return nil
	}

	if descriptor.Frequency == FrequencyMonthly {
		if match := monthDayPattern.FindStringSubmatch(text); match != nil {
			if day, err := strconv.Atoi(match[1]); err == nil && day >= 1 && day <= 31 {
				descriptor.MonthDay = &day
			}
		}
	}
	if descriptor.Frequency != FrequencyWeekly {
		descriptor.Weekdays = nil
	}

	if until := parseUntil(text); until != nil {
		descriptor.Until = until
	} else if match := countPattern.FindStringSubmatch(text); match != nil {
		if count, err := strconv.Atoi(match[1]); err == nil && count >= 1 {
			descriptor.Count = &count
		}
	}

	return &descriptor
}

func parseWeekdays(text string) []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for name, day := range weekdayNames {
		if containsWord(text, name) {
			days = append(days, day)
		}
	}
	// Aliases expand to explicit sets; "weekend" must be tested before
	// "weekday" only matches whole words so the two cannot collide.
	if containsWord(text, "weekend") || containsWord(text, "weekends") {
		days = append(days, time.Saturday, time.Sunday)
	}
	if containsWord(text, "weekday") || containsWord(text, "weekdays") {
		days = append(days, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
	}
	if len(days) == 0 {
		return nil
	}
	return sortedWeekdays(days)
}

func parseUntil(text string) *time.Time {
	match := untilPattern.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	raw := strings.TrimSpace(match[1])
	for cut := len(raw); cut > 0; cut-- {
		candidate := strings.TrimRight(strings.TrimSpace(raw[:cut]), ".,")
		for _, layout := range untilLayouts {
			if parsed, err := time.Parse(layout, titleCase(candidate)); err == nil {
				until := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, 0, time.UTC)
				return &until
			}
		}
	}
	return nil
}

func titleCase(value string) string {
	fields := strings.Fields(value)
	for i, field := range fields {
		if len(field) > 0 && field[0] >= 'a' && field[0] <= 'z' {
			fields[i] = strings.ToUpper(field[:1]) + field[1:]
		}
	}
	return strings.Join(fields, " ")
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	index := 0
	for {
		found := strings.Index(text[index:], word)
		if found < 0 {
			return false
		}
		start := index + found
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		index = start + 1
	}
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
