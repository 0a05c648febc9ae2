package board

import (
	"errors"
	"log"
	"sync"

	"github.com/itohio/restroom/pkg/ammonia"
	"github.com/itohio/restroom/pkg/presence"
)

// ErrNoFrame is returned by inputs read before the first frame arrived.
var ErrNoFrame = errors.New("board: no frame received")

// Inputs keeps the latest frame of a board and exposes its fields through
// the pull interfaces of the sensing packages.
type Inputs struct {
	board Board

	mu     sync.RWMutex
	latest Frame
	have   bool
	frames uint64
}

// NewInputs wraps b. Run must be started to receive frames.
func NewInputs(b Board) *Inputs {
	return &Inputs{board: b}
}

// Run consumes frames until the board closes its channel.
func (in *Inputs) Run() {
	for f := range in.board.Frames() {
		in.mu.Lock()
		in.latest = f
		in.have = true
		in.frames++
		in.mu.Unlock()
	}
}

// Latest returns the last frame and whether one has been received.
func (in *Inputs) Latest() (Frame, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.latest, in.have
}

// Count returns the number of frames received.
func (in *Inputs) Count() uint64 {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.frames
}

// Gas returns the gas ADC.
func (in *Inputs) Gas() ammonia.ADC { return gasADC{in} }

// LED returns the calibration indicator.
func (in *Inputs) LED() ammonia.Indicator { return led{in.board} }

// Soap returns the ranger of soap unit i (0 based).
func (in *Inputs) Soap(i int) presence.Ranger { return soapRanger{in, i} }

// Tissue returns the pin of tissue unit i (0 based).
func (in *Inputs) Tissue(i int) presence.Pin { return tissuePin{in, i} }

// Water returns the water pin.
func (in *Inputs) Water() presence.Pin { return waterPin{in} }

type gasADC struct{ in *Inputs }

func (a gasADC) Get() (uint16, error) {
	f, ok := a.in.Latest()
	if !ok {
		return 0, ErrNoFrame
	}
	return f.Gas, nil
}

type soapRanger struct {
	in *Inputs
	i  int
}

func (r soapRanger) Distance() (int32, error) {
	f, ok := r.in.Latest()
	if !ok {
		return 0, ErrNoFrame
	}
	if f.SoapCM[r.i] < 0 {
		return 0, presence.ErrEchoTimeout
	}
	return f.SoapCM[r.i], nil
}

// Pins read HIGH until the first frame so nothing is reported empty or wet
// before data arrives.
type tissuePin struct {
	in *Inputs
	i  int
}

func (p tissuePin) Get() bool {
	f, ok := p.in.Latest()
	return !ok || f.Tissue[p.i]
}

type waterPin struct{ in *Inputs }

func (p waterPin) Get() bool {
	f, ok := p.in.Latest()
	return !ok || f.Water
}

type led struct{ b Board }

func (l led) Set(on bool) {
	if err := l.b.SetLED(on); err != nil && !errors.Is(err, ErrNotConnected) {
		log.Printf("board: set led: %v", err)
	}
}
