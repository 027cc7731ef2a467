package scheduler

import (
	"math"
	"sort"
	"time"
)

// MemberLoad summarizes one active team member's booking load for
// round-robin ranking.
type MemberLoad struct {
	MemberID string
	// Upcoming counts confirmed bookings from now forward.
	Upcoming int
	// Recent counts bookings assigned within the last seven days.
	Recent int
}

// PickRoundRobin ranks members by (upcoming ASC, recent ASC, id ASC) and
// returns the top-ranked one. The id tiebreak makes assignment
// deterministic under equal load. Excluded members are skipped.
func PickRoundRobin(loads []MemberLoad, exclude map[string]struct{}) (MemberLoad, bool) {
	eligible := make([]MemberLoad, 0, len(loads))
	for _, load := range loads {
		if _, skip := exclude[load.MemberID]; skip {
			continue
		}
		eligible = append(eligible, load)
	}
	if len(eligible) == 0 {
		return MemberLoad{}, false
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].Upcoming != eligible[j].Upcoming {
			return eligible[i].Upcoming < eligible[j].Upcoming
		}
		if eligible[i].Recent != eligible[j].Recent {
			return eligible[i].Recent < eligible[j].Recent
		}
		return eligible[i].MemberID < eligible[j].MemberID
	})
	return eligible[0], true
}

// MemberCalendar is the first-available view of one team member.
type MemberCalendar struct {
	MemberID string
	// HasUser is false for members without a platform identity; they
	// cannot be conflict-checked and are skipped.
	HasUser  bool
	Bookings []BookingInterval
	Buffer   time.Duration
}

// PickFirstAvailable walks members in ascending id order and returns the
// first one whose calendar is free for the proposed interval, or false when
// none are.
func PickFirstAvailable(members []MemberCalendar, start, end time.Time, exclude map[string]struct{}) (string, bool, error) {
	ordered := make([]MemberCalendar, len(members))
	copy(ordered, members)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].MemberID < ordered[j].MemberID
	})

	for _, member := range ordered {
		if !member.HasUser {
			continue
		}
		if _, skip := exclude[member.MemberID]; skip {
			continue
		}
		report, err := CheckConflict(member.Bookings, start, end, member.Buffer, "")
		if err != nil {
			return "", false, err
		}
		if !report.HasConflict {
			return member.MemberID, true, nil
		}
	}
	return "", false, nil
}

// FairnessSummary is the read-only balance view over a team's upcoming
// booking counts.
type FairnessSummary struct {
	AverageUpcoming        float64 `json:"average_upcoming"`
	StandardDeviation      float64 `json:"standard_deviation"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
	Label                  string  `json:"label"`
}

// Fairness computes distribution statistics over upcoming booking counts.
// The coefficient of variation (stddev / mean) maps to a qualitative label.
func Fairness(upcoming []int) FairnessSummary {
	if len(upcoming) == 0 {
		return FairnessSummary{Label: labelForVariation(0)}
	}

	sum := 0
	for _, count := range upcoming {
		sum += count
	}
	mean := float64(sum) / float64(len(upcoming))

	variance := 0.0
	for _, count := range upcoming {
		diff := float64(count) - mean
		variance += diff * diff
	}
	variance /= float64(len(upcoming))
	stddev := math.Sqrt(variance)

	variation := 0.0
	if mean > 0 {
		variation = stddev / mean
	}

	return FairnessSummary{
		AverageUpcoming:        round2(mean),
		StandardDeviation:      round2(stddev),
		CoefficientOfVariation: round2(variation),
		Label:                  labelForVariation(variation),
	}
}

func labelForVariation(variation float64) string {
	switch {
	case variation < 0.3:
		return "Excellent"
	case variation < 0.5:
		return "Good"
	case variation < 0.8:
		return "Fair"
	default:
		return "Needs balancing"
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
