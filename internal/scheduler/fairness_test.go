package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickRoundRobin(t *testing.T) {
	t.Parallel()

	t.Run("least loaded member wins", func(t *testing.T) {
		t.Parallel()
		loads := []MemberLoad{
			{MemberID: "m-alice", Upcoming: 3, Recent: 1},
			{MemberID: "m-bob", Upcoming: 1, Recent: 2},
			{MemberID: "m-carol", Upcoming: 2, Recent: 0},
		}
		pick, ok := PickRoundRobin(loads, nil)
		require.True(t, ok)
		assert.Equal(t, "m-bob", pick.MemberID)
	})

	t.Run("recent count breaks upcoming ties", func(t *testing.T) {
		t.Parallel()
		loads := []MemberLoad{
			{MemberID: "m-alice", Upcoming: 2, Recent: 3},
			{MemberID: "m-bob", Upcoming: 2, Recent: 1},
		}
		pick, ok := PickRoundRobin(loads, nil)
		require.True(t, ok)
		assert.Equal(t, "m-bob", pick.MemberID)
	})

	t.Run("identical loads always pick the lowest id", func(t *testing.T) {
		t.Parallel()
		loads := []MemberLoad{
			{MemberID: "m-carol", Upcoming: 2, Recent: 1},
			{MemberID: "m-alice", Upcoming: 2, Recent: 1},
			{MemberID: "m-bob", Upcoming: 2, Recent: 1},
		}
		for i := 0; i < 5; i++ {
			pick, ok := PickRoundRobin(loads, nil)
			require.True(t, ok)
			assert.Equal(t, "m-alice", pick.MemberID)
		}
	})

	t.Run("excluded members are skipped", func(t *testing.T) {
		t.Parallel()
		loads := []MemberLoad{
			{MemberID: "m-alice", Upcoming: 0},
			{MemberID: "m-bob", Upcoming: 5},
		}
		pick, ok := PickRoundRobin(loads, map[string]struct{}{"m-alice": {}})
		require.True(t, ok)
		assert.Equal(t, "m-bob", pick.MemberID)
	})

	t.Run("no eligible members", func(t *testing.T) {
		t.Parallel()
		_, ok := PickRoundRobin(nil, nil)
		assert.False(t, ok)

		_, ok = PickRoundRobin([]MemberLoad{{MemberID: "m-alice"}}, map[string]struct{}{"m-alice": {}})
		assert.False(t, ok)
	})
}

func TestPickFirstAvailable(t *testing.T) {
	t.Parallel()

	start := tuesday(10, 0)
	end := tuesday(10, 30)

	t.Run("first free member in id order", func(t *testing.T) {
		t.Parallel()
		members := []MemberCalendar{
			{MemberID: "m-bob", HasUser: true},
			{MemberID: "m-alice", HasUser: true, Bookings: []BookingInterval{{ID: "b-1", Start: start, End: end}}},
		}
		id, ok, err := PickFirstAvailable(members, start, end, nil)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "m-bob", id)
	})

	t.Run("members without a linked user are skipped", func(t *testing.T) {
		t.Parallel()
		members := []MemberCalendar{
			{MemberID: "m-alice", HasUser: false},
			{MemberID: "m-bob", HasUser: true},
		}
		id, ok, err := PickFirstAvailable(members, start, end, nil)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "m-bob", id)
	})

	t.Run("buffer makes a member busy", func(t *testing.T) {
		t.Parallel()
		members := []MemberCalendar{
			{
				MemberID: "m-alice",
				HasUser:  true,
				Bookings: []BookingInterval{{ID: "b-1", Start: tuesday(9, 30), End: tuesday(10, 0)}},
				Buffer:   15 * time.Minute,
			},
		}
		_, ok, err := PickFirstAvailable(members, start, end, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("nobody free", func(t *testing.T) {
		t.Parallel()
		members := []MemberCalendar{
			{MemberID: "m-alice", HasUser: true, Bookings: []BookingInterval{{ID: "b-1", Start: start, End: end}}},
		}
		_, ok, err := PickFirstAvailable(members, start, end, nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestFairness(t *testing.T) {
	t.Parallel()

	t.Run("balanced team", func(t *testing.T) {
		t.Parallel()
		summary := Fairness([]int{4, 4, 4})
		assert.Equal(t, 4.0, summary.AverageUpcoming)
		assert.Equal(t, 0.0, summary.StandardDeviation)
		assert.Equal(t, "Excellent", summary.Label)
	})

	t.Run("skewed team", func(t *testing.T) {
		t.Parallel()
		// Mean 4, stddev ~3.56, variation ~0.89.
		summary := Fairness([]int{0, 3, 9})
		assert.Equal(t, 4.0, summary.AverageUpcoming)
		assert.Equal(t, "Needs balancing", summary.Label)
	})

	t.Run("moderate spread", func(t *testing.T) {
		t.Parallel()
		// Mean 5, stddev 2, variation 0.4.
		summary := Fairness([]int{3, 5, 7})
		assert.Equal(t, "Good", summary.Label)
		assert.InDelta(t, 0.33, summary.CoefficientOfVariation, 0.01)
	})

	t.Run("zero load is not flagged", func(t *testing.T) {
		t.Parallel()
		summary := Fairness([]int{0, 0, 0})
		assert.Equal(t, 0.0, summary.CoefficientOfVariation)
		assert.Equal(t, "Excellent", summary.Label)
	})

	t.Run("empty team", func(t *testing.T) {
		t.Parallel()
		summary := Fairness(nil)
		assert.Equal(t, "Excellent", summary.Label)
	})
}
