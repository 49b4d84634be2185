package hal

import "time"

// frameClock measures the wall time between frames. The first tick reports
// the nominal frame time; gaps longer than maxGap are clamped so a stalled
// window does not produce one huge step.
type frameClock struct {
	now     func() time.Time
	nominal time.Duration
	maxGap  time.Duration

	last time.Time
}

func newFrameClock(hz int, now func() time.Time) *frameClock {
	if hz <= 0 {
		hz = 60
	}
	if now == nil {
		now = time.Now
	}
	nominal := time.Second / time.Duration(hz)
	return &frameClock{now: now, nominal: nominal, maxGap: 250 * time.Millisecond}
}

func (c *frameClock) tick() time.Duration {
	t := c.now()
	if c.last.IsZero() {
		c.last = t
		return c.nominal
	}
	dt := t.Sub(c.last)
	c.last = t
	if dt < 0 {
		return 0
	}
	return min(dt, c.maxGap)
}
