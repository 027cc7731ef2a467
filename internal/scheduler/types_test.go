package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	valid := []struct {
		input string
		want  TimeOfDay
	}{
		{"09:30", TimeOfDay{Hour: 9, Minute: 30}},
		{"9:05", TimeOfDay{Hour: 9, Minute: 5}},
		{"00:00", TimeOfDay{}},
		{"23:59", TimeOfDay{Hour: 23, Minute: 59}},
	}
	for _, tc := range valid {
		got, err := ParseTimeOfDay(tc.input)
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, got, "input %q", tc.input)
	}

	invalid := []string{
		"",
		"0930",
		"09:30xyz",
		"x9:30",
		"09:3",
		"09:300",
		"-9:30",
		"09:-3",
		"24:00",
		"12:60",
		" 9:30",
	}
	for _, input := range invalid {
		_, err := ParseTimeOfDay(input)
		assert.Error(t, err, "input %q", input)
	}
}
