package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

var toRRuleWeekday = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

var fromRRuleWeekday = map[int]time.Weekday{
	rrule.MO.Day(): time.Monday,
	rrule.TU.Day(): time.Tuesday,
	rrule.WE.Day(): time.Wednesday,
	rrule.TH.Day(): time.Thursday,
	rrule.FR.Day(): time.Friday,
	rrule.SA.Day(): time.Saturday,
	rrule.SU.Day(): time.Sunday,
}

var toRRuleFrequency = map[Frequency]rrule.Frequency{
	FrequencyDaily:   rrule.DAILY,
	FrequencyWeekly:  rrule.WEEKLY,
	FrequencyMonthly: rrule.MONTHLY,
	FrequencyYearly:  rrule.YEARLY,
}

var fromRRuleFrequency = map[rrule.Frequency]Frequency{
	rrule.DAILY:   FrequencyDaily,
	rrule.WEEKLY:  FrequencyWeekly,
	rrule.MONTHLY: FrequencyMonthly,
	rrule.YEARLY:  FrequencyYearly,
}

// RuleString serializes the descriptor into its persisted RRULE text form.
// The round trip through ParseRuleString is lossless for every modeled
// field.
func (d Descriptor) RuleString() (string, error) {
	freq, ok := toRRuleFrequency[d.Frequency]
	if !ok {
		return "", fmt.Errorf("recurrence: unknown frequency %q", d.Frequency)
	}

	opt := rrule.ROption{
		Freq:     freq,
		Interval: d.EffectiveInterval(),
	}
	for _, day := range sortedWeekdays(d.Weekdays) {
		opt.Byweekday = append(opt.Byweekday, toRRuleWeekday[day])
	}
	if d.MonthDay != nil {
		opt.Bymonthday = []int{*d.MonthDay}
	}
	if d.Until != nil {
		opt.Until = d.Until.UTC().Truncate(time.Second)
	}
	if d.Count != nil {
		opt.Count = *d.Count
	}
	return opt.String(), nil
}

// ParseRuleString decodes a persisted rule string back into a descriptor.
func ParseRuleString(value string) (Descriptor, error) {
	opt, err := rrule.StrToROption(value)
	if err != nil {
		return Descriptor{}, fmt.Errorf("recurrence: parse rule string: %w", err)
	}

	freq, ok := fromRRuleFrequency[opt.Freq]
	if !ok {
		return Descriptor{}, fmt.Errorf("recurrence: unsupported frequency in %q", value)
	}

	descriptor := Descriptor{
		Frequency: freq,
		Interval:  opt.Interval,
	}
	if descriptor.Interval < 1 {
		descriptor.Interval = 1
	}
	for _, day := range opt.Byweekday {
		mapped, ok := fromRRuleWeekday[day.Day()]
		if !ok {
			return Descriptor{}, fmt.Errorf("recurrence: unsupported weekday in %q", value)
		}
		descriptor.Weekdays = append(descriptor.Weekdays, mapped)
	}
	descriptor.Weekdays = sortedWeekdays(descriptor.Weekdays)
	if len(descriptor.Weekdays) == 0 {
		descriptor.Weekdays = nil
	}
	if len(opt.Bymonthday) > 0 {
		monthDay := opt.Bymonthday[0]
		descriptor.MonthDay = &monthDay
	}
	if !opt.Until.IsZero() {
		until := opt.Until.UTC()
		descriptor.Until = &until
	}
	if opt.Count > 0 {
		count := opt.Count
		descriptor.Count = &count
	}
	return descriptor, nil
}
