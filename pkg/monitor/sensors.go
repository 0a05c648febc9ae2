package monitor

import (
	"github.com/itohio/restroom/pkg/ammonia"
	"github.com/itohio/restroom/pkg/config"
	"github.com/itohio/restroom/pkg/presence"
)

// Inputs provides the raw hardware channels of a board.
type Inputs interface {
	Gas() ammonia.ADC
	LED() ammonia.Indicator
	Soap(i int) presence.Ranger
	Tissue(i int) presence.Pin
	Water() presence.Pin
}

// NewSensors builds the sensor set of cfg on top of in. Units are numbered
// from 1 in reports.
func NewSensors(cfg *config.Config, in Inputs, clock ammonia.Clock) Sensors {
	s := Sensors{
		Ammonia: ammonia.New(cfg.Ammonia, in.Gas(), in.LED(), clock),
		Water:   presence.NewWater(in.Water()),
	}
	for i := range len(cfg.Pins.SoapTrig) {
		s.Soap = append(s.Soap, presence.NewSoap(i+1, in.Soap(i), cfg.Soap.EmptyThresholdCM))
	}
	for i := range len(cfg.Pins.Tissue) {
		s.Tissue = append(s.Tissue, presence.NewTissue(i+1, in.Tissue(i)))
	}
	return s
}
