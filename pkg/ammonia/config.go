package ammonia

import "time"

// Config holds the electrical constants, curve fits and timing of the
// ammonia pipeline. Zero fields are replaced by EnsureDefaults.
type Config struct {
	Vcc            float32 `yaml:"vcc"`             // Sensor supply voltage (V)
	LoadResistance float32 `yaml:"load_resistance"` // RL of the divider (Ohm)
	ADCMax         uint16  `yaml:"adc_max"`         // Full scale ADC count (4095 for 12-bit)

	Curve Curve `yaml:"curve"`
	Scale Scale `yaml:"scale"`

	AveragingInterval   time.Duration `yaml:"averaging_interval"`
	CalibrationInterval time.Duration `yaml:"calibration_interval"`

	Calibration CalibrationConfig `yaml:"calibration"`
}

// Curve is a log-log fit of the sensor datasheet: log10(ppm) = Slope*log10(Rs/R0) + Intercept.
type Curve struct {
	Slope     float32 `yaml:"slope"`
	Intercept float32 `yaml:"intercept"`
}

// Scale maps an averaged PPM onto the 3 point odor scale.
type Scale struct {
	Intercept float32 `yaml:"intercept"`
	Slope     float32 `yaml:"slope"`
	GoodMax   float32 `yaml:"good_max"`   // score <= GoodMax is Good
	NormalMax float32 `yaml:"normal_max"` // score <= NormalMax is Normal, above is Critical
}

// CalibrationConfig controls the baseline search.
type CalibrationConfig struct {
	MaxSamples     int           `yaml:"max_samples"`
	StableSamples  int           `yaml:"stable_samples"`
	StabilityDelta float32       `yaml:"stability_delta"` // Relative change counted as stable
	LEDOn          time.Duration `yaml:"led_on"`
	LEDOff         time.Duration `yaml:"led_off"`
	// RetryInterval replaces CalibrationInterval while the baseline is invalid.
	RetryInterval time.Duration `yaml:"retry_interval"`
	// Incremental makes the monitor take one calibration sample per tick
	// instead of blocking for the whole run.
	Incremental bool `yaml:"incremental"`
}

// DefaultConfig returns the constants of the TGS2602 board revision.
func DefaultConfig() Config {
	return Config{
		Vcc:            5.0,
		LoadResistance: 4700,
		ADCMax:         4095,
		Curve: Curve{
			Slope:     -2.3447,
			Intercept: 0.0670,
		},
		Scale: Scale{
			Intercept: -0.805,
			Slope:     1.989,
			GoodMax:   1.5,
			NormalMax: 2.5,
		},
		AveragingInterval:   5 * time.Minute,
		CalibrationInterval: 2 * time.Hour,
		Calibration: CalibrationConfig{
			MaxSamples:     30,
			StableSamples:  5,
			StabilityDelta: 0.02,
			LEDOn:          300 * time.Millisecond,
			LEDOff:         300 * time.Millisecond,
			RetryInterval:  5 * time.Minute,
		},
	}
}

// EnsureDefaults fills zero fields from DefaultConfig. Curve and scale
// coefficients are only replaced when the whole pair is zero.
func (c *Config) EnsureDefaults() {
	def := DefaultConfig()

	if c.Vcc == 0 {
		c.Vcc = def.Vcc
	}
	if c.LoadResistance == 0 {
		c.LoadResistance = def.LoadResistance
	}
	if c.ADCMax == 0 {
		c.ADCMax = def.ADCMax
	}
	if c.Curve == (Curve{}) {
		c.Curve = def.Curve
	}
	if c.Scale.Intercept == 0 && c.Scale.Slope == 0 {
		c.Scale.Intercept = def.Scale.Intercept
		c.Scale.Slope = def.Scale.Slope
	}
	if c.Scale.GoodMax == 0 && c.Scale.NormalMax == 0 {
		c.Scale.GoodMax = def.Scale.GoodMax
		c.Scale.NormalMax = def.Scale.NormalMax
	}
	if c.AveragingInterval == 0 {
		c.AveragingInterval = def.AveragingInterval
	}
	if c.CalibrationInterval == 0 {
		c.CalibrationInterval = def.CalibrationInterval
	}

	cal := &c.Calibration
	if cal.MaxSamples == 0 {
		cal.MaxSamples = def.Calibration.MaxSamples
	}
	if cal.StableSamples == 0 {
		cal.StableSamples = def.Calibration.StableSamples
	}
	if cal.StabilityDelta == 0 {
		cal.StabilityDelta = def.Calibration.StabilityDelta
	}
	if cal.LEDOn == 0 {
		cal.LEDOn = def.Calibration.LEDOn
	}
	if cal.LEDOff == 0 {
		cal.LEDOff = def.Calibration.LEDOff
	}
	if cal.RetryInterval == 0 {
		cal.RetryInterval = def.Calibration.RetryInterval
	}
}
