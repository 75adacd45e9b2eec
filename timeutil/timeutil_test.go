package timeutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-fm/simkernel/timeutil"
	"github.com/smart-fm/simkernel/utils/randengine"
)

func TestWindowOfBoundaries(t *testing.T) {
	cases := []struct {
		seconds int64
		want    timeutil.HalfHourWindow
	}{
		{3 * 3600, 3.25},
		{3*3600 + 1799, 3.25},
		{3*3600 + 1800, 3.75},
		{23*3600 + 1800, 23.75},
		{0, 24.25},
	}
	for _, c := range cases {
		assert.InDelta(t, float64(c.want), float64(timeutil.WindowOf(c.seconds)), 1e-9, "seconds=%d", c.seconds)
	}
}

func TestNextWindowWrapsAround(t *testing.T) {
	assert.InDelta(t, 3.25, float64(timeutil.HalfHourWindow(26.75).NextWindow()), 1e-9)
	assert.InDelta(t, 4.25, float64(timeutil.HalfHourWindow(3.75).NextWindow()), 1e-9)
}

func TestRandomTimeInWindowStaysWithinBucket(t *testing.T) {
	rng := randengine.New(1)
	for i := 0; i < 200; i++ {
		got := timeutil.RandomTimeInWindow(3.25, false, rng)
		assert.GreaterOrEqual(t, got, int64(3*3600))
		assert.Less(t, got, int64(3*3600+1800))
	}
}

func TestRandomTimeInWindowFirstHalfRestricted(t *testing.T) {
	rng := randengine.New(2)
	for i := 0; i < 200; i++ {
		got := timeutil.RandomTimeInWindow(3.75, true, rng)
		assert.GreaterOrEqual(t, got, int64(3*3600+1800))
		assert.Less(t, got, int64(3*3600+1800+900))
	}
}

func TestRandomTimeInWindowWrapsPastMidnight(t *testing.T) {
	rng := randengine.New(3)
	for i := 0; i < 200; i++ {
		got := timeutil.RandomTimeInWindow(24.25, false, rng)
		assert.GreaterOrEqual(t, got, int64(0))
		assert.Less(t, got, int64(1800))
	}
}

func TestParseDailyTimeBothFormats(t *testing.T) {
	d1, err := timeutil.ParseDailyTime("08:30:00")
	require.NoError(t, err)
	assert.False(t, d1.HasDate)
	assert.Equal(t, int64(8*3600+30*60), d1.SecondsOfDay)
	assert.Equal(t, "08:30:00", d1.String())

	d2, err := timeutil.ParseDailyTime("15-03-2026 08:30")
	require.NoError(t, err)
	assert.True(t, d2.HasDate)
	assert.Equal(t, 2026, d2.Date.Year())
	assert.Equal(t, int64(8*3600+30*60), d2.SecondsOfDay)
}

func TestParseDailyTimeRejectsGarbage(t *testing.T) {
	_, err := timeutil.ParseDailyTime("not a time")
	assert.Error(t, err)
}
