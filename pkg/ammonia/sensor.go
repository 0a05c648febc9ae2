// Package ammonia implements the odor pipeline of the restroom monitor:
// baseline calibration of a metal-oxide gas sensor, conversion of raw ADC
// readings to an NH3 concentration, time windowed averaging and the 3 point
// odor scale.
//
// The pipeline is single threaded. A Sensor must be driven from one loop;
// none of its methods are safe for concurrent use.
package ammonia

import (
	"context"
	"fmt"
	"log"
	"time"
)

// ADC reads a raw count from the gas sensor divider.
type ADC interface {
	Get() (uint16, error)
}

// Indicator is the LED blinked while calibrating.
type Indicator interface {
	Set(on bool)
}

// Clock abstracts time for the averaging window and calibration delays.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// Event is an outward status change of the sensor.
type Event int

const (
	EventCalibrationStarted Event = iota
	EventAutoCalibration
	EventCalibrated
	EventCalibrationAborted
)

func (e Event) String() string {
	switch e {
	case EventCalibrationStarted:
		return "calibration started"
	case EventAutoCalibration:
		return "auto calibration"
	case EventCalibrated:
		return "calibrated"
	case EventCalibrationAborted:
		return "calibration aborted"
	default:
		return "unknown"
	}
}

// Reading is the averaged concentration with its odor score.
type Reading struct {
	PPM      float32  `json:"ppm"`
	Score    float32  `json:"score"`
	Category Category `json:"category"`
	Flushed  bool     `json:"flushed"` // Averaging window was closed by this read
}

// Sensor owns the state of the ammonia pipeline: baseline, calibration flag,
// averaging window and timestamps.
type Sensor struct {
	cfg   Config
	adc   ADC
	led   Indicator
	clock Clock

	onEvent func(Event)

	baseline        Baseline
	calibrating     bool
	lastCalibration time.Time
	cal             *Calibrator
	window          Window
}

// New creates a sensor. led and clock may be nil. A new sensor reports
// Calibrating() until its first calibration completes, so no readings are
// accumulated before a baseline exists.
func New(cfg Config, adc ADC, led Indicator, clock Clock) *Sensor {
	cfg.EnsureDefaults()
	if led == nil {
		led = nopIndicator{}
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &Sensor{
		cfg:         cfg,
		adc:         adc,
		led:         led,
		clock:       clock,
		calibrating: true,
		cal:         NewCalibrator(cfg.Calibration),
		window:      NewWindow(cfg.AveragingInterval, clock.Now()),
	}
}

// OnEvent registers the status change callback. Only one callback is kept.
func (s *Sensor) OnEvent(fn func(Event)) {
	s.onEvent = fn
}

// Config returns the effective configuration.
func (s *Sensor) Config() Config { return s.cfg }

// Baseline returns the current baseline.
func (s *Sensor) Baseline() Baseline { return s.baseline }

// Calibrating reports whether calibration is pending or in progress.
func (s *Sensor) Calibrating() bool { return s.calibrating }

// LastCalibration returns the completion time of the last calibration.
func (s *Sensor) LastCalibration() time.Time { return s.lastCalibration }

// CalibrationPhase returns the phase of the current or last run.
func (s *Sensor) CalibrationPhase() Phase { return s.cal.Phase() }

// Buffered returns the number of readings in the current averaging window.
func (s *Sensor) Buffered() int { return s.window.Count() }

// Resistance reads the ADC and returns the sensor resistance.
func (s *Sensor) Resistance() (float32, error) {
	adc, err := s.adc.Get()
	if err != nil {
		return 0, fmt.Errorf("ammonia: read adc: %w", err)
	}
	return s.cfg.Resistance(adc)
}

// Update takes one instantaneous reading into the averaging window. It is a
// no-op while calibrating, without a valid baseline, or when the reading is
// unusable. It reports whether a reading was accumulated.
func (s *Sensor) Update() bool {
	if s.calibrating || !s.baseline.Valid {
		return false
	}
	rs, err := s.Resistance()
	if err != nil {
		return false
	}
	ppm := s.cfg.Curve.PPM(rs / s.baseline.R0)
	if !finite(ppm) {
		return false
	}
	s.window.Add(ppm)
	return true
}

// AveragedPPM returns the window mean. Once AveragingInterval has elapsed
// since the last flush the window is flushed and restarted; before that the
// partial mean is returned and the window is left intact.
func (s *Sensor) AveragedPPM() float32 {
	ppm, _ := s.window.Read(s.clock.Now())
	return ppm
}

// Read returns the averaged concentration with its score, with the same
// peek-or-flush semantics as AveragedPPM.
func (s *Sensor) Read() Reading {
	ppm, flushed := s.window.Read(s.clock.Now())
	return Reading{
		PPM:      ppm,
		Score:    s.cfg.Scale.Score(ppm),
		Category: s.cfg.Scale.Category(ppm),
		Flushed:  flushed,
	}
}

// CalibrationDue reports whether an automatic calibration should start.
// While the baseline is invalid the shorter retry interval applies.
func (s *Sensor) CalibrationDue() bool {
	if s.calibrating {
		return false
	}
	interval := s.cfg.CalibrationInterval
	if !s.baseline.Valid {
		interval = s.cfg.Calibration.RetryInterval
	}
	return s.clock.Now().Sub(s.lastCalibration) >= interval
}

// AutoCalibrate runs a blocking calibration when one is due. It reports
// whether calibration ran.
func (s *Sensor) AutoCalibrate(ctx context.Context) (bool, error) {
	if !s.CalibrationDue() {
		return false, nil
	}
	log.Println("ammonia: starting automatic recalibration")
	s.emit(EventAutoCalibration)
	return true, s.Calibrate(ctx)
}

// Calibrate runs a full calibration, blocking for up to
// MaxSamples*(LEDOn+LEDOff). It always produces a baseline unless ctx is
// cancelled, in which case the previous baseline is kept and ctx.Err() is
// returned.
func (s *Sensor) Calibrate(ctx context.Context) error {
	s.beginCalibration()
	for {
		done, err := s.step(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// BeginCalibration starts a run without taking a sample. Subsequent
// StepCalibration calls advance it. It is a no-op while a run is active.
func (s *Sensor) BeginCalibration() {
	if !s.cal.Active() {
		s.beginCalibration()
	}
}

// StepCalibration takes a single calibration sample, starting a run if none
// is active. Starting a run from the idle state counts as an automatic
// recalibration. It blocks for one LED blink and reports whether the run
// finished. The scheduler calls it once per tick while Calibrating() or
// CalibrationDue().
func (s *Sensor) StepCalibration(ctx context.Context) (bool, error) {
	if !s.cal.Active() {
		if !s.calibrating {
			log.Println("ammonia: starting automatic recalibration")
			s.emit(EventAutoCalibration)
		}
		s.beginCalibration()
	}
	return s.step(ctx)
}

func (s *Sensor) beginCalibration() {
	s.calibrating = true
	s.cal.Begin()
	log.Println("ammonia: calibration started")
	s.emit(EventCalibrationStarted)
}

func (s *Sensor) step(ctx context.Context) (bool, error) {
	s.led.Set(true)
	if err := s.clock.Sleep(ctx, s.cfg.Calibration.LEDOn); err != nil {
		s.abortCalibration()
		return false, err
	}
	s.led.Set(false)
	if err := s.clock.Sleep(ctx, s.cfg.Calibration.LEDOff); err != nil {
		s.abortCalibration()
		return false, err
	}

	rs, err := s.Resistance()
	if s.cal.Add(rs, err) != PhaseDone {
		return false, nil
	}
	s.finishCalibration()
	return true, nil
}

func (s *Sensor) finishCalibration() {
	s.baseline = s.cal.Result()
	s.calibrating = false
	s.lastCalibration = s.clock.Now()
	if s.baseline.Valid {
		log.Printf("ammonia: calibration done after %d samples, R0=%.1f Ohm", s.cal.Taken(), s.baseline.R0)
	} else {
		log.Printf("ammonia: calibration produced no usable baseline after %d samples, readings suppressed", s.cal.Taken())
	}
	s.emit(EventCalibrated)
}

func (s *Sensor) abortCalibration() {
	s.led.Set(false)
	s.cal.Reset()
	s.calibrating = false
	log.Println("ammonia: calibration aborted")
	s.emit(EventCalibrationAborted)
}

func (s *Sensor) emit(e Event) {
	if s.onEvent != nil {
		s.onEvent(e)
	}
}

type nopIndicator struct{}

func (nopIndicator) Set(bool) {}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
