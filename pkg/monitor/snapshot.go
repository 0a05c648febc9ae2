package monitor

import (
	"time"

	"github.com/itohio/restroom/pkg/ammonia"
	"github.com/itohio/restroom/pkg/presence"
	"github.com/itohio/restroom/pkg/report"
)

// AmmoniaState is the odor part of a snapshot.
type AmmoniaState struct {
	PPM             float32          `json:"ppm"`
	Score           float32          `json:"score"`
	Category        ammonia.Category `json:"category"`
	Flushed         bool             `json:"flushed"`
	Baseline        ammonia.Baseline `json:"baseline"`
	Calibrating     bool             `json:"calibrating"`
	Phase           string           `json:"phase"`
	LastCalibration time.Time        `json:"last_calibration"`
	Buffered        int              `json:"buffered"`
}

// Snapshot is the state of every sensor at one reporting cycle.
type Snapshot struct {
	Device    string                   `json:"device"`
	Timestamp time.Time                `json:"timestamp"`
	Soap      []presence.SoapReading   `json:"soap"`
	Tissue    []presence.TissueReading `json:"tissue"`
	Water     presence.WaterReading    `json:"water"`
	Ammonia   AmmoniaState             `json:"ammonia"`
	Report    string                   `json:"report,omitempty"`
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	s.Soap = append([]presence.SoapReading(nil), s.Soap...)
	s.Tissue = append([]presence.TissueReading(nil), s.Tissue...)
	return s
}

// ReportInput converts the snapshot to the text report input.
func (s Snapshot) ReportInput(window time.Duration) report.Input {
	return report.Input{
		Soap:   s.Soap,
		Tissue: s.Tissue,
		Water:  s.Water,
		Ammonia: report.Ammonia{
			Reading: ammonia.Reading{
				PPM:      s.Ammonia.PPM,
				Score:    s.Ammonia.Score,
				Category: s.Ammonia.Category,
				Flushed:  s.Ammonia.Flushed,
			},
			Window:      window,
			Calibrating: s.Ammonia.Calibrating,
		},
	}
}

// SoapEmpty returns the units reported empty.
func (s Snapshot) SoapEmpty() []int {
	var units []int
	for _, r := range s.Soap {
		if r.Level == presence.LevelEmpty {
			units = append(units, r.Unit)
		}
	}
	return units
}

// TissueEmpty returns the units reported empty.
func (s Snapshot) TissueEmpty() []int {
	var units []int
	for _, r := range s.Tissue {
		if !r.Available {
			units = append(units, r.Unit)
		}
	}
	return units
}
