package ammonia

import "github.com/chewxy/math32"

// Phase is the state of a calibration run.
type Phase int

const (
	PhaseIdle        Phase = iota // No run in progress
	PhaseSampling                 // Run started, waiting for the first usable sample
	PhaseStabilizing              // Tracking relative change between samples
	PhaseDone                     // Baseline available
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSampling:
		return "sampling"
	case PhaseStabilizing:
		return "stabilizing"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Baseline is the clean-air sensor resistance R0.
type Baseline struct {
	R0    float32 `json:"r0"`
	Valid bool    `json:"valid"`
}

// Calibrator searches for a stable baseline resistance. It performs no I/O:
// the caller actuates the indicator, reads a resistance and feeds it to Add.
//
// A run ends early once StableSamples consecutive samples change by less
// than StabilityDelta relative to their predecessor; otherwise it ends after
// MaxSamples. Either way the baseline is the mean of every usable sample of
// the run.
type Calibrator struct {
	cfg CalibrationConfig

	phase    Phase
	taken    int
	usable   int
	total    float32
	prev     float32
	havePrev bool
	stable   int
	result   Baseline
}

// NewCalibrator creates an idle calibrator.
func NewCalibrator(cfg CalibrationConfig) *Calibrator {
	return &Calibrator{cfg: cfg}
}

// Begin starts a new run, discarding any previous progress.
func (c *Calibrator) Begin() {
	*c = Calibrator{cfg: c.cfg, phase: PhaseSampling}
}

// Reset returns the calibrator to idle.
func (c *Calibrator) Reset() {
	*c = Calibrator{cfg: c.cfg}
}

// Phase returns the current phase.
func (c *Calibrator) Phase() Phase { return c.phase }

// Active reports whether a run is in progress.
func (c *Calibrator) Active() bool {
	return c.phase == PhaseSampling || c.phase == PhaseStabilizing
}

// Taken returns the number of samples consumed from the budget.
func (c *Calibrator) Taken() int { return c.taken }

// StableCount returns the current stability counter.
func (c *Calibrator) StableCount() int { return c.stable }

// Result returns the baseline of the last finished run.
func (c *Calibrator) Result() Baseline { return c.result }

// Add feeds one resistance sample. A sample with err != nil, or a
// non-finite or non-positive resistance, consumes budget, resets the
// stability counter and is left out of the mean.
func (c *Calibrator) Add(rs float32, err error) Phase {
	if !c.Active() {
		return c.phase
	}
	c.taken++

	if err != nil || !finite(rs) || rs <= 0 {
		c.stable = 0
		c.havePrev = false
	} else {
		if c.havePrev {
			delta := math32.Abs(rs-c.prev) / c.prev
			if delta < c.cfg.StabilityDelta {
				c.stable++
			} else {
				c.stable = 0
			}
		}
		c.total += rs
		c.usable++
		c.prev = rs
		c.havePrev = true
		c.phase = PhaseStabilizing
	}

	if c.stable >= c.cfg.StableSamples || c.taken >= c.cfg.MaxSamples {
		c.finish()
	}
	return c.phase
}

func (c *Calibrator) finish() {
	c.phase = PhaseDone
	if c.usable == 0 {
		c.result = Baseline{}
		return
	}
	r0 := c.total / float32(c.usable)
	c.result = Baseline{R0: r0, Valid: finite(r0) && r0 > 0}
}
