package ammonia

import (
	"errors"

	"github.com/chewxy/math32"
)

var (
	// ErrNoSignal is returned for a zero ADC count: the divider output is at
	// ground and the sensor resistance is unbounded.
	ErrNoSignal = errors.New("ammonia: no signal on sensor divider")
	// ErrSaturated is returned for a full scale ADC count: the sensor
	// resistance is zero.
	ErrSaturated = errors.New("ammonia: sensor divider saturated")
)

// PPM evaluates the log-log curve fit 10^(slope*log10(ratio) + intercept).
// The ratio must be positive; callers guard it through a valid baseline.
func PPM(ratio, slope, intercept float32) float32 {
	return math32.Pow(10, slope*math32.Log10(ratio)+intercept)
}

// PPM evaluates the curve for a resistance ratio Rs/R0.
func (c Curve) PPM(ratio float32) float32 {
	return PPM(ratio, c.Slope, c.Intercept)
}

// Resistance converts a raw ADC count to the sensor resistance in Ohm.
//
//	Vout = adc / ADCMax * Vcc
//	Rs   = (Vcc - Vout) / Vout * RL
func (c Config) Resistance(adc uint16) (float32, error) {
	if adc == 0 {
		return 0, ErrNoSignal
	}
	if adc >= c.ADCMax {
		return 0, ErrSaturated
	}
	vout := adcToVoltage(adc, c.ADCMax, c.Vcc)
	return ((c.Vcc - vout) / vout) * c.LoadResistance, nil
}

// adcToVoltage converts an ADC count to volts.
func adcToVoltage(adc, max uint16, vref float32) float32 {
	return (float32(adc) / float32(max)) * vref
}

func finite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}
