package clock

import "fmt"

// Clock tracks the discrete simulation clock shared by every worker, the
// pending queue and the periodic loader. Unlike the distributed driver
// this kernel replaces, there is no RPC surface and no sub-loop scaling:
// one Clock, one base granularity, one monotonically increasing tick.
type Clock struct {
	BaseGranMs   int64 // length of one base tick, in milliseconds
	InternalStep int64 // current base tick, starts at StartStep
	StartStep    int64
	EndStep      int64 // simulation stops once InternalStep reaches EndStep
}

// New creates a Clock from the configured base granularity and run length.
func New(baseGranMs int64, startTick, totalTicks int64) *Clock {
	c := &Clock{
		BaseGranMs: baseGranMs,
		StartStep:  startTick,
		EndStep:    startTick + totalTicks,
	}
	c.Init()
	return c
}

// Init resets the clock to its start tick.
func (c *Clock) Init() {
	c.InternalStep = c.StartStep
}

// Millis returns the current simulation time in milliseconds.
func (c *Clock) Millis() int64 {
	return c.InternalStep * c.BaseGranMs
}

// Advance moves the clock forward by one base tick.
func (c *Clock) Advance() {
	c.InternalStep++
}

// Done reports whether the configured run length has been reached.
func (c *Clock) Done() bool {
	return c.InternalStep >= c.EndStep
}

// GetHourMinuteSecond splits the current simulation time into
// hour/minute/second-with-millis components, for console progress lines.
func (c *Clock) GetHourMinuteSecond() (hour, minute int, second float64) {
	t := float64(c.Millis()) / 1000.0
	hour = int(t) / 3600
	t -= float64(hour * 3600)
	minute = int(t) / 60
	t -= float64(minute * 60)
	second = t
	return
}

// String renders the current time as HH:MM:SS.ss (seconds with two
// decimals).
func (c *Clock) String() string {
	h, m, s := c.GetHourMinuteSecond()
	return fmt.Sprintf("%02d:%02d:%05.2f", h, m, s)
}
