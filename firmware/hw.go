//go:build tinygo

package main

import (
	"machine"

	"tinygo.org/x/drivers/hcsr04"

	"github.com/itohio/restroom/pkg/ammonia"
	"github.com/itohio/restroom/pkg/presence"
)

// gasADC reads the sensor divider at ADC_RESOLUTION bits.
type gasADC struct {
	adc machine.ADC
}

func (g gasADC) Get() (uint16, error) {
	return g.adc.Get() >> ADC_SHIFT, nil
}

// indicator drives the LED. The host may also switch it with L0/L1.
type indicator struct {
	pin machine.Pin
}

func (l indicator) Set(on bool) { l.pin.Set(on) }

// ranger converts the HC-SR04 millimetre reading to centimetres. The driver
// reports 0 when no echo arrives.
type ranger struct {
	dev hcsr04.Device
}

func (r ranger) Distance() (int32, error) {
	mm := r.dev.ReadDistance()
	if mm <= 0 {
		return 0, presence.ErrEchoTimeout
	}
	return mm / 10, nil
}

var (
	_ ammonia.ADC       = gasADC{}
	_ ammonia.Indicator = indicator{}
	_ presence.Ranger   = ranger{}
	_ presence.Pin      = machine.Pin(0)
)
