package ammonia

import "time"

// Window accumulates instantaneous PPM readings between flushes.
type Window struct {
	interval time.Duration
	start    time.Time
	sum      float32
	count    int
}

// NewWindow starts a window at now.
func NewWindow(interval time.Duration, now time.Time) Window {
	return Window{interval: interval, start: now}
}

// Add accumulates one reading.
func (w *Window) Add(ppm float32) {
	w.sum += ppm
	w.count++
}

// Count returns the number of readings since the last flush.
func (w *Window) Count() int { return w.count }

// Start returns the time of the last flush.
func (w *Window) Start() time.Time { return w.start }

// Mean returns the partial mean, 0 when empty.
func (w *Window) Mean() float32 {
	if w.count == 0 {
		return 0
	}
	return w.sum / float32(w.count)
}

// Read peeks at the partial mean, or flushes the window once the interval
// has elapsed since the last flush. A flush returns the period mean and
// restarts the window at now.
func (w *Window) Read(now time.Time) (mean float32, flushed bool) {
	mean = w.Mean()
	if now.Sub(w.start) < w.interval {
		return mean, false
	}
	w.sum = 0
	w.count = 0
	w.start = now
	return mean, true
}
