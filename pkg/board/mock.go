package board

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/itohio/restroom/pkg/config"
)

const (
	mockSoapMaxCM     = 40.0 // Beyond this the ranger loses the echo
	mockTissuePeriod  = time.Hour
	mockTissueOutAt   = 50 * time.Minute
	mockWaterPeriod   = 45 * time.Minute
	mockWaterStart    = 30 * time.Minute
	mockWaterDuration = 2 * time.Minute
)

// Mock simulates the monitor board for testing and development.
type Mock struct {
	cfg *config.MockConfig

	frames    chan Frame
	done      chan struct{}
	mu        sync.RWMutex
	connected bool

	led       bool
	ledToggle int
	startTime time.Time
}

// NewMock creates a new simulated board.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.Default().Mock
	}
	return &Mock{
		cfg:    cfg,
		frames: make(chan Frame, DefaultBufferSize),
		done:   make(chan struct{}),
	}
}

// Connect starts generating frames.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = time.Now()

	go m.generateFrames()

	return nil
}

// Close stops the simulation and closes the frames channel.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	close(m.done)
	m.connected = false
	close(m.frames)

	return nil
}

// Frames returns the channel of simulated frames.
func (m *Mock) Frames() <-chan Frame {
	return m.frames
}

// SetLED records the indicator state.
func (m *Mock) SetLED(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}
	if on != m.led {
		m.ledToggle++
	}
	m.led = on
	return nil
}

// LED returns the indicator state and the number of toggles.
func (m *Mock) LED() (bool, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.led, m.ledToggle
}

// IsConnected returns whether the simulation is running.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *Mock) generateFrames() {
	ticker := time.NewTicker(m.cfg.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.RLock()
			if !m.connected {
				m.mu.RUnlock()
				return
			}
			frame := m.generateFrame(now, now.Sub(m.startTime))
			select {
			case m.frames <- frame:
			default:
				// Channel full, skip
			}
			m.mu.RUnlock()
		}
	}
}

// generateFrame computes the simulated inputs elapsed after start.
func (m *Mock) generateFrame(now time.Time, elapsed time.Duration) Frame {
	gas := float64(m.cfg.BaselineADC) + m.cfg.OdorDepth*m.odorEnvelope(elapsed)
	if m.cfg.Noise > 0 {
		gas += rand.NormFloat64() * m.cfg.Noise
	}
	gas = math.Max(1, math.Min(gas, 4094))

	f := Frame{
		Timestamp: now,
		Gas:       uint16(gas),
		Tissue:    [2]bool{true, elapsed%mockTissuePeriod < mockTissueOutAt},
	}

	hours := elapsed.Hours()
	for i := range f.SoapCM {
		d := m.cfg.SoapStartCM[i] + m.cfg.SoapDrain*hours
		if d > mockSoapMaxCM {
			f.SoapCM[i] = -1
			continue
		}
		f.SoapCM[i] = int32(math.Round(d))
	}

	wp := elapsed % mockWaterPeriod
	f.Water = wp < mockWaterStart || wp >= mockWaterStart+mockWaterDuration

	return f
}

// odorEnvelope is a raised sine bump at the end of every odor period, so
// the first minutes after start are clean air.
func (m *Mock) odorEnvelope(elapsed time.Duration) float64 {
	if m.cfg.OdorPeriod <= 0 || m.cfg.OdorDuration <= 0 {
		return 0
	}
	start := m.cfg.OdorPeriod - m.cfg.OdorDuration
	phase := elapsed % m.cfg.OdorPeriod
	if phase < start {
		return 0
	}
	x := float64(phase-start) / float64(m.cfg.OdorDuration)
	s := math.Sin(math.Pi * x)
	return s * s
}
