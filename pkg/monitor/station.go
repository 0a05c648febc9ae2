// Package monitor drives the sensing pipeline from a single polling loop and
// publishes snapshots to subscribers.
package monitor

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/itohio/restroom/pkg/ammonia"
	"github.com/itohio/restroom/pkg/config"
	"github.com/itohio/restroom/pkg/display"
	"github.com/itohio/restroom/pkg/presence"
	"github.com/itohio/restroom/pkg/report"
)

// Sensors are the inputs polled by the station.
type Sensors struct {
	Ammonia *ammonia.Sensor
	Soap    []*presence.Soap
	Tissue  []*presence.Tissue
	Water   *presence.Water
}

// Station owns all sensor state. Only Run touches the sensors; other
// goroutines read snapshots and may request a calibration.
type Station struct {
	deviceID         string
	ip               string
	pollInterval     time.Duration
	snapshotInterval time.Duration
	averaging        time.Duration
	incremental      bool

	sensors  Sensors
	display  *display.Display
	reporter *report.Reporter
	history  *History
	now      func() time.Time

	calibrate chan struct{}

	mu           sync.RWMutex
	last         Snapshot
	haveLast     bool
	lastSnapshot time.Time

	callbacks []func(Snapshot)
	cbMu      sync.RWMutex
}

// New creates a station. d may be nil when no screen is attached.
func New(cfg *config.Config, sensors Sensors, d *display.Display, r *report.Reporter) *Station {
	s := &Station{
		deviceID:         cfg.Device.ID,
		ip:               cfg.Device.IP,
		pollInterval:     cfg.Monitor.PollInterval,
		snapshotInterval: cfg.Monitor.SnapshotInterval,
		averaging:        sensors.Ammonia.Config().AveragingInterval,
		incremental:      cfg.Ammonia.Calibration.Incremental,
		sensors:          sensors,
		display:          d,
		reporter:         r,
		history:          NewHistory(cfg.Monitor.HistorySize),
		now:              time.Now,
		calibrate:        make(chan struct{}, 1),
	}
	sensors.Ammonia.OnEvent(s.onAmmoniaEvent)
	return s
}

// DeviceID returns the device identifier used in snapshots.
func (s *Station) DeviceID() string { return s.deviceID }

// History returns the snapshot history.
func (s *Station) History() *History { return s.history }

// Last returns the most recent snapshot.
func (s *Station) Last() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last.Clone(), s.haveLast
}

// Report returns the text report of the most recent snapshot.
func (s *Station) Report() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last.Report
}

// OnUpdate registers a callback invoked with every new snapshot. Callbacks
// run on the polling goroutine and must return quickly.
func (s *Station) OnUpdate(callback func(Snapshot)) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.callbacks = append(s.callbacks, callback)
}

// RequestCalibration asks the loop to recalibrate the gas sensor. It reports
// false when a request is already queued.
func (s *Station) RequestCalibration() bool {
	select {
	case s.calibrate <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run polls the sensors until ctx is cancelled. The first calibration runs
// before any reading is taken.
func (s *Station) Run(ctx context.Context) error {
	if s.display != nil {
		if err := s.display.Begin(); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if err := s.tick(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-s.calibrate:
			if err := s.requestedCalibration(ctx); err != nil && ctx.Err() != nil {
				return nil
			}
		case <-ticker.C:
		}
	}
}

func (s *Station) requestedCalibration(ctx context.Context) error {
	log.Println("monitor: calibration requested")
	gas := s.sensors.Ammonia
	if s.incremental {
		gas.BeginCalibration()
		return nil
	}
	return gas.Calibrate(ctx)
}

// tick runs one iteration of the polling loop.
func (s *Station) tick(ctx context.Context) error {
	if err := s.calibrateIfNeeded(ctx); err != nil {
		return err
	}
	s.sensors.Ammonia.Update()

	now := s.now()
	s.mu.RLock()
	due := !s.haveLast || now.Sub(s.lastSnapshot) >= s.snapshotInterval
	s.mu.RUnlock()
	if due {
		s.snapshot(now)
	}
	return nil
}

func (s *Station) calibrateIfNeeded(ctx context.Context) error {
	gas := s.sensors.Ammonia
	if s.incremental {
		if gas.Calibrating() || gas.CalibrationDue() {
			_, err := gas.StepCalibration(ctx)
			return err
		}
		return nil
	}
	if gas.Calibrating() {
		return gas.Calibrate(ctx)
	}
	_, err := gas.AutoCalibrate(ctx)
	return err
}

// snapshot reads every sensor, renders the report and notifies subscribers.
func (s *Station) snapshot(now time.Time) {
	gas := s.sensors.Ammonia
	reading := gas.Read()

	snap := Snapshot{
		Device:    s.deviceID,
		Timestamp: now,
		Soap:      make([]presence.SoapReading, 0, len(s.sensors.Soap)),
		Tissue:    make([]presence.TissueReading, 0, len(s.sensors.Tissue)),
		Ammonia: AmmoniaState{
			PPM:             reading.PPM,
			Score:           reading.Score,
			Category:        reading.Category,
			Flushed:         reading.Flushed,
			Baseline:        gas.Baseline(),
			Calibrating:     gas.Calibrating(),
			Phase:           gas.CalibrationPhase().String(),
			LastCalibration: gas.LastCalibration(),
			Buffered:        gas.Buffered(),
		},
	}
	for _, soap := range s.sensors.Soap {
		snap.Soap = append(snap.Soap, soap.Read())
	}
	for _, tissue := range s.sensors.Tissue {
		snap.Tissue = append(snap.Tissue, tissue.Read())
	}
	if s.sensors.Water != nil {
		snap.Water = s.sensors.Water.Read()
	}
	if s.reporter != nil {
		snap.Report = s.reporter.All(snap.ReportInput(s.averaging))
	}

	s.mu.Lock()
	s.last = snap
	s.haveLast = true
	s.lastSnapshot = now
	s.mu.Unlock()

	s.history.Add(snap)

	if s.display != nil && !snap.Ammonia.Calibrating {
		if err := s.display.Running(s.ip, s.deviceID); err != nil {
			log.Printf("monitor: %v", err)
		}
	}

	s.notifyCallbacks(snap)
}

// notifyCallbacks invokes all registered callbacks with a copy of snap.
func (s *Station) notifyCallbacks(snap Snapshot) {
	s.cbMu.RLock()
	callbacks := make([]func(Snapshot), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(snap.Clone())
		}
	}
}

// onAmmoniaEvent mirrors calibration progress on the status screen.
func (s *Station) onAmmoniaEvent(e ammonia.Event) {
	if s.display == nil {
		return
	}
	l := s.display.Labels()
	var status string
	switch e {
	case ammonia.EventCalibrationStarted:
		status = l.Calibrating
	case ammonia.EventAutoCalibration:
		status = l.AutoCalibration
	case ammonia.EventCalibrated, ammonia.EventCalibrationAborted:
		status = l.Online
	default:
		return
	}
	if err := s.display.Status(status); err != nil {
		log.Printf("monitor: %v", err)
	}
}
