// Package timeutil converts between wall-clock seconds and the
// "preday" half-hour window representation the persistent store uses
// for activity and trip time windows: a 24-hour day that starts at
// 03:00 and runs until 27:00 (03:00 the next morning), so the small hours of the night sort
// after the evening of the same logical day instead of wrapping to
// hour zero.
package timeutil

import (
	"fmt"
	"math"
	"time"

	"github.com/smart-fm/simkernel/utils/randengine"
)

// secondsPerDay is the wall-clock day length used to detect and undo
// the preday wraparound.
const secondsPerDay = 24 * 3600

// dayStartSeconds is the wall-clock second-of-day the simulation
// itself treats as tick zero, matching the preday convention every
// HalfHourWindow bucket already uses.
const dayStartSeconds = 3 * 3600

// HalfHourWindow labels a 30-minute bucket in the preday
// representation: the integer part is the hour, and the fractional
// part is .25 for the bucket starting at :00 or .75 for the one
// starting at :30. Values run from 3.25 (03:00) through 26.75 (02:30
// the following calendar day).
type HalfHourWindow float64

// WindowOf maps a wall-clock seconds-of-day value to its HalfHourWindow
// bucket. Seconds before 03:00 belong to the tail of the preday and are
// shifted forward by 24 hours before bucketing, so 0 maps to 24.25
// rather than 0.25.
func WindowOf(secondsOfDay int64) HalfHourWindow {
	if secondsOfDay < 3*3600 {
		secondsOfDay += secondsPerDay
	}
	halfHours := secondsOfDay / 1800
	hour := halfHours / 2
	if halfHours%2 == 0 {
		return HalfHourWindow(hour) + 0.25
	}
	return HalfHourWindow(hour) + 0.75
}

// NextWindow advances to the next half-hour bucket, wrapping from
// 26.75 back to 3.25. The loader uses this to track nextWindow
// across calls.
func (w HalfHourWindow) NextWindow() HalfHourWindow {
	next := w + 0.5
	if next > 26.75 {
		return 3.25
	}
	return next
}

// startSeconds returns the wall-clock seconds-of-day this bucket
// begins at.
func (w HalfHourWindow) startSeconds() int64 {
	hour := int64(math.Floor(float64(w)))
	frac := float64(w) - math.Floor(float64(w))
	var offset int64
	if frac >= 0.5 {
		offset = 1800
	}
	total := hour*3600 + offset
	if hour >= 24 {
		total -= secondsPerDay
	}
	return total
}

// RandomTimeInWindow draws a wall-clock seconds-of-day value uniformly
// from the 30-minute span w represents, or from just its first 15
// minutes when onlyFirstHalf is set (used to keep a paired
// arrival/departure within the same half-hour window).
func RandomTimeInWindow(w HalfHourWindow, onlyFirstHalf bool, rng *randengine.Engine) int64 {
	span := int64(1800)
	if onlyFirstHalf {
		span = 900
	}
	t := w.startSeconds() + int64(rng.IntnSafe(int(span)))
	return ((t % secondsPerDay) + secondsPerDay) % secondsPerDay
}

// RunSeconds converts a wall-clock seconds-of-day value (as produced by
// RandomTimeInWindow) into seconds elapsed since the simulation's own
// day start at 03:00 - the zero point the driver's clock and every
// Person's StartTimeMs are expressed in. Values before 03:00 belong to
// the tail of the preday and wrap forward by 24 hours, mirroring
// WindowOf's own wraparound rule.
func RunSeconds(wallSecondsOfDay int64) int64 {
	elapsed := wallSecondsOfDay - dayStartSeconds
	if elapsed < 0 {
		elapsed += secondsPerDay
	}
	return elapsed
}

// DailyTime parses the two wall-clock string formats the store and
// configuration use and exposes the result as seconds-of-day plus,
// when the date was given, the calendar date it falls on.
type DailyTime struct {
	SecondsOfDay int64
	HasDate      bool
	Date         time.Time // zero value (year 0) when HasDate is false
}

// ParseDailyTime accepts either "HH:MM:SS" or "DD-MM-YYYY HH:MM".
func ParseDailyTime(s string) (DailyTime, error) {
	if t, err := time.Parse("15:04:05", s); err == nil {
		return DailyTime{SecondsOfDay: int64(t.Hour())*3600 + int64(t.Minute())*60 + int64(t.Second())}, nil
	}
	if t, err := time.Parse("02-01-2006 15:04", s); err == nil {
		return DailyTime{
			SecondsOfDay: int64(t.Hour())*3600 + int64(t.Minute())*60,
			HasDate:      true,
			Date:         time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
		}, nil
	}
	return DailyTime{}, fmt.Errorf("timeutil: %q matches neither HH:MM:SS nor DD-MM-YYYY HH:MM", s)
}

// String renders the time back as HH:MM:SS.
func (d DailyTime) String() string {
	h := d.SecondsOfDay / 3600
	m := (d.SecondsOfDay % 3600) / 60
	s := d.SecondsOfDay % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
