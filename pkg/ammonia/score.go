package ammonia

import "fmt"

// Category is the ordinal odor severity.
type Category int

const (
	Good     Category = 1
	Normal   Category = 2
	Critical Category = 3
)

func (c Category) String() string {
	switch c {
	case Good:
		return "good"
	case Normal:
		return "normal"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// MarshalText makes categories readable in JSON payloads.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	switch string(text) {
	case "good":
		*c = Good
	case "normal":
		*c = Normal
	case "critical":
		*c = Critical
	case "unknown":
		*c = 0
	default:
		return fmt.Errorf("ammonia: unknown category %q", text)
	}
	return nil
}

// Score applies the regression score = Intercept + Slope*ppm. Negative
// concentrations are clamped to zero.
func (s Scale) Score(ppm float32) float32 {
	if ppm < 0 {
		ppm = 0
	}
	return s.Intercept + s.Slope*ppm
}

// Category classifies an averaged concentration.
func (s Scale) Category(ppm float32) Category {
	score := s.Score(ppm)
	switch {
	case score <= s.GoodMax:
		return Good
	case score <= s.NormalMax:
		return Normal
	default:
		return Critical
	}
}
