package application

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/recurrence"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/scheduler"
)

// IntentParser turns a free-text scheduling utterance into a structured
// request the engine can execute.
type IntentParser interface {
	ParseIntent(utterance string) (StructuredRequest, error)
}

// defaultDurationMinutes applies when an utterance names no meeting length.
const defaultDurationMinutes = 30

// KeywordIntentParser extracts duration, day, time-of-day and recurrence
// cues with keyword and pattern matching. Unrecognized utterances still
// yield a usable request with defaults.
type KeywordIntentParser struct{}

// NewKeywordIntentParser returns the deterministic keyword parser.
func NewKeywordIntentParser() *KeywordIntentParser {
	return &KeywordIntentParser{}
}

var (
	durationMinutesPattern = regexp.MustCompile(`(\d+)\s*(?:minutes?|mins?)\b`)
	durationHoursPattern   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:hours?|hrs?)\b`)
	clockRangePattern      = regexp.MustCompile(`between\s+(\d{1,2}(?::\d{2})?)\s*(am|pm)?\s+and\s+(\d{1,2}(?::\d{2})?)\s*(am|pm)?`)
)

var weekdayKeywords = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseIntent implements IntentParser.
func (p *KeywordIntentParser) ParseIntent(utterance string) (StructuredRequest, error) {
	lower := strings.ToLower(utterance)
	request := StructuredRequest{
		DurationMinutes: defaultDurationMinutes,
		MaxSlots:        scheduler.DefaultMaxSlots,
	}

	if match := durationMinutesPattern.FindStringSubmatch(lower); match != nil {
		if minutes, err := strconv.Atoi(match[1]); err == nil && minutes > 0 {
			request.DurationMinutes = minutes
		}
	} else if match := durationHoursPattern.FindStringSubmatch(lower); match != nil {
		if hours, err := strconv.ParseFloat(match[1], 64); err == nil && hours > 0 {
			request.DurationMinutes = int(hours * 60)
		}
	}

	for name, day := range weekdayKeywords {
		if containsWord(lower, name) || containsWord(lower, name[:3]) {
			request.Weekdays = append(request.Weekdays, day)
		}
	}
	sortWeekdays(request.Weekdays)

	switch {
	case strings.Contains(lower, "morning"):
		request.Band = scheduler.BandMorning
	case strings.Contains(lower, "afternoon"):
		request.Band = scheduler.BandAfternoon
	case strings.Contains(lower, "evening"):
		request.Band = scheduler.BandEvening
	}

	if match := clockRangePattern.FindStringSubmatch(lower); match != nil {
		start, okStart := parseClock(match[1], match[2])
		end, okEnd := parseClock(match[3], match[4])
		if okStart && okEnd && start.Before(end) {
			request.ClockRange = &scheduler.ClockRange{Start: start, End: end}
		}
	}

	switch {
	case strings.Contains(lower, "next week"):
		request.Week = scheduler.WeekNext
	case strings.Contains(lower, "this week"):
		request.Week = scheduler.WeekThis
	}

	if descriptor := recurrence.Parse(utterance); descriptor != nil {
		request.Recurrence = descriptor
		request.RecurrenceHint = utterance
	}

	return request, nil
}

func parseClock(value, meridiem string) (scheduler.TimeOfDay, bool) {
	if !strings.Contains(value, ":") {
		value += ":00"
	}
	tod, err := scheduler.ParseTimeOfDay(value)
	if err != nil {
		return scheduler.TimeOfDay{}, false
	}
	if meridiem == "pm" && tod.Hour < 12 {
		tod.Hour += 12
	}
	if meridiem == "am" && tod.Hour == 12 {
		tod.Hour = 0
	}
	return tod, true
}

// containsWord reports whether text contains word bounded by non-letters.
func containsWord(text, word string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], word)
		if pos < 0 {
			return false
		}
		pos += idx
		before := pos == 0 || !isLetter(text[pos-1])
		afterIdx := pos + len(word)
		after := afterIdx >= len(text) || !isLetter(text[afterIdx])
		if before && after {
			return true
		}
		idx = pos + len(word)
	}
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func sortWeekdays(days []time.Weekday) {
	for i := 1; i < len(days); i++ {
		for j := i; j > 0 && days[j] < days[j-1]; j-- {
			days[j], days[j-1] = days[j-1], days[j]
		}
	}
}
