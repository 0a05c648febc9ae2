package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNotConnected is returned by commands sent to a closed board.
var ErrNotConnected = errors.New("board: not connected")

// FramePrefix marks a data line; anything else on the link is MCU log output.
const FramePrefix = '$'

// Frame is one scan of every sensor input.
type Frame struct {
	Timestamp time.Time
	Gas       uint16   // 12-bit ADC reading of the gas divider
	SoapCM    [3]int32 // Distance per soap ranger, -1 when no echo arrived
	Tissue    [2]bool  // Tissue pin levels (true = HIGH)
	Water     bool     // Water pin level (true = HIGH)
}

// parseLine parses a data line from the MCU into a Frame.
// Format: $unix_micros,gas,soap1,soap2,soap3,tissue1tissue2,water
// Example: $1234567890123,2048,4,17,-1,10,1
func parseLine(line string) (Frame, error) {
	if line == "" || line[0] != FramePrefix {
		return Frame{}, fmt.Errorf("invalid line format: missing %q prefix", FramePrefix)
	}
	parts := strings.Split(line[1:], ",")
	if len(parts) != 7 {
		return Frame{}, fmt.Errorf("invalid line format: expected 7 comma-separated values, got %d", len(parts))
	}

	timestampMicros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Frame{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	gas, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return Frame{}, fmt.Errorf("invalid gas reading: %w", err)
	}
	if gas > 4095 {
		return Frame{}, fmt.Errorf("gas reading out of range: %d (max 4095)", gas)
	}

	f := Frame{
		Timestamp: time.Unix(0, timestampMicros*1000),
		Gas:       uint16(gas),
	}

	for i := range f.SoapCM {
		cm, err := strconv.ParseInt(parts[2+i], 10, 32)
		if err != nil {
			return Frame{}, fmt.Errorf("invalid soap %d distance: %w", i+1, err)
		}
		if cm < -1 {
			return Frame{}, fmt.Errorf("soap %d distance out of range: %d", i+1, cm)
		}
		f.SoapCM[i] = int32(cm)
	}

	tissue := parts[5]
	if len(tissue) != 2 {
		return Frame{}, fmt.Errorf("invalid tissue states: expected 2 digits, got %d", len(tissue))
	}
	for i := range f.Tissue {
		switch tissue[i] {
		case '0':
			f.Tissue[i] = false
		case '1':
			f.Tissue[i] = true
		default:
			return Frame{}, fmt.Errorf("invalid tissue %d state: %q", i+1, tissue[i])
		}
	}

	switch parts[6] {
	case "0":
		f.Water = false
	case "1":
		f.Water = true
	default:
		return Frame{}, fmt.Errorf("invalid water state: %q", parts[6])
	}

	return f, nil
}

// ledCommand returns the indicator command understood by the firmware.
func ledCommand(on bool) []byte {
	if on {
		return []byte("L1\n")
	}
	return []byte("L0\n")
}
