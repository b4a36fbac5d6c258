package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	minutes, ok := ParseClock("09:30")
	require.True(t, ok)
	require.Equal(t, 9*60+30, minutes)

	minutes, ok = ParseClock(" 23:59 ")
	require.True(t, ok)
	require.Equal(t, 23*60+59, minutes)

	for _, bad := range []string{"", "morning", "25:00", "9:3:1"} {
		_, ok := ParseClock(bad)
		require.False(t, ok, "input %q must not parse", bad)
	}
}

func TestFormatClock(t *testing.T) {
	require.Equal(t, "09:30", FormatClock(9*60+30))
	require.Equal(t, "00:00", FormatClock(0))
	require.Equal(t, "00:00", FormatClock(-5))
	require.Equal(t, "01:00", FormatClock(25*60))
}
