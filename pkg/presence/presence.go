// Package presence classifies the discrete restroom sensors: ultrasonic
// soap level rangers and pull-up contact sensors for tissue and standing
// water.
package presence

import (
	"errors"
	"fmt"
)

// ErrEchoTimeout is returned by a Ranger when no echo arrived.
var ErrEchoTimeout = errors.New("presence: echo timeout")

// Ranger measures a distance to the nearest surface in centimetres.
type Ranger interface {
	Distance() (int32, error)
}

// Pin reads a digital input. Inputs are pulled up, so an open contact
// reads true.
type Pin interface {
	Get() bool
}

// EmptyThresholdCM is the default distance above which a soap dispenser is
// considered empty.
const EmptyThresholdCM = 10

// Level is the state of a soap dispenser.
type Level int

const (
	LevelUnknown Level = iota
	LevelAvailable
	LevelEmpty
)

func (l Level) String() string {
	switch l {
	case LevelAvailable:
		return "available"
	case LevelEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	switch string(text) {
	case "available":
		*l = LevelAvailable
	case "empty":
		*l = LevelEmpty
	case "unknown":
		*l = LevelUnknown
	default:
		return fmt.Errorf("presence: unknown level %q", text)
	}
	return nil
}

// SoapReading is one measurement of a soap unit.
type SoapReading struct {
	Unit       int    `json:"unit"`
	DistanceCM int32  `json:"distance_cm"`
	Level      Level  `json:"level"`
	Err        string `json:"error,omitempty"`
}

// Soap is an ultrasonic soap level sensor mounted above the reservoir.
type Soap struct {
	unit      int
	ranger    Ranger
	threshold int32
}

// NewSoap creates soap unit number unit (1 based). A non-positive threshold
// selects EmptyThresholdCM.
func NewSoap(unit int, r Ranger, thresholdCM int32) *Soap {
	if thresholdCM <= 0 {
		thresholdCM = EmptyThresholdCM
	}
	return &Soap{unit: unit, ranger: r, threshold: thresholdCM}
}

// Unit returns the unit number.
func (s *Soap) Unit() int { return s.unit }

// Read triggers one measurement. A failed measurement is reported with
// LevelUnknown and the error text, never as Empty.
func (s *Soap) Read() SoapReading {
	r := SoapReading{Unit: s.unit}
	d, err := s.ranger.Distance()
	if err != nil {
		r.Err = fmt.Errorf("soap %d: %w", s.unit, err).Error()
		return r
	}
	r.DistanceCM = d
	r.Level = ClassifySoap(d, s.threshold)
	return r
}

// ClassifySoap maps a distance to a level: farther than threshold means the
// reservoir is empty.
func ClassifySoap(distanceCM, thresholdCM int32) Level {
	if distanceCM > thresholdCM {
		return LevelEmpty
	}
	return LevelAvailable
}

// TissueReading is the state of one tissue holder.
type TissueReading struct {
	Unit      int  `json:"unit"`
	Available bool `json:"available"`
}

// Tissue is a contact sensor that closes to ground when the roll is gone.
type Tissue struct {
	unit int
	pin  Pin
}

func NewTissue(unit int, pin Pin) *Tissue {
	return &Tissue{unit: unit, pin: pin}
}

func (t *Tissue) Unit() int { return t.unit }

// Read returns Available unless the pin reads LOW.
func (t *Tissue) Read() TissueReading {
	return TissueReading{Unit: t.unit, Available: t.pin.Get()}
}

// WaterReading is the state of the floor water sensor.
type WaterReading struct {
	Detected bool `json:"detected"`
}

// Water is a floor contact sensor; standing water pulls it LOW.
type Water struct {
	pin Pin
}

func NewWater(pin Pin) *Water {
	return &Water{pin: pin}
}

func (w *Water) Read() WaterReading {
	return WaterReading{Detected: !w.pin.Get()}
}
