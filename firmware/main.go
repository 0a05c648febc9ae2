//go:build tinygo

//go:generate tinygo flash -target=esp32-coreboard-v2

package main

import (
	"context"
	"machine"
	"time"

	"tinygo.org/x/drivers/hcsr04"

	"github.com/itohio/restroom/pkg/ammonia"
	"github.com/itohio/restroom/pkg/display"
	"github.com/itohio/restroom/pkg/presence"
	"github.com/itohio/restroom/pkg/report"
)

var (
	uart = machine.UART0

	gas    *ammonia.Sensor
	soap   [3]*presence.Soap
	tissue [2]*presence.Tissue
	water  *presence.Water
	screen *display.Display
	texts  = report.New("en")

	gasRaw     gasADC
	sonars     [3]ranger
	tissuePins = [2]machine.Pin{PIN_TISSUE1, PIN_TISSUE2}

	// Serial buffer for host commands
	serialBuffer [8]byte
	serialPos    int
)

func main() {
	uart.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE})

	PIN_LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_GAS.Configure(machine.PinConfig{Mode: machine.PinInput})
	for _, p := range tissuePins {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}
	PIN_WATER.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	machine.InitADC()
	adc := machine.ADC{Pin: PIN_GAS}
	adc.Configure(machine.ADCConfig{Reference: ADC_REFERENCE_MV, Resolution: ADC_RESOLUTION})
	gasRaw = gasADC{adc: adc}

	sonarPins := [3][2]machine.Pin{
		{PIN_SOAP1_TRIG, PIN_SOAP1_ECHO},
		{PIN_SOAP2_TRIG, PIN_SOAP2_ECHO},
		{PIN_SOAP3_TRIG, PIN_SOAP3_ECHO},
	}
	for i, p := range sonarPins {
		dev := hcsr04.New(p[0], p[1])
		dev.Configure()
		sonars[i] = ranger{dev: dev}
		soap[i] = presence.NewSoap(i+1, sonars[i], presence.EmptyThresholdCM)
	}
	for i, p := range tissuePins {
		tissue[i] = presence.NewTissue(i+1, p)
	}
	water = presence.NewWater(PIN_WATER)

	bus := machine.I2C0
	if err := bus.Configure(machine.I2CConfig{SDA: PIN_OLED_SDA, SCL: PIN_OLED_SCL, Frequency: 400 * machine.KHz}); err != nil {
		halt("i2c: " + err.Error())
	}
	screen = display.New(newOLED(bus), display.LabelsFor("en"))
	if err := screen.Begin(); err != nil {
		halt(err.Error())
	}

	gas = ammonia.New(ammonia.DefaultConfig(), gasRaw, indicator{pin: PIN_LED}, nil)
	gas.OnEvent(onGasEvent)

	ctx := context.Background()
	var lastScreen, lastReport time.Time
	for {
		now := time.Now()
		processSerial()

		if gas.Calibrating() {
			gas.Calibrate(ctx)
		} else if _, err := gas.AutoCalibrate(ctx); err != nil {
			println("calibration:", err.Error())
		}
		gas.Update()

		outputFrame(now)

		if now.Sub(lastScreen) >= SCREEN_INTERVAL_MS*time.Millisecond {
			screen.Running("-", DEVICE_ID)
			lastScreen = now
		}
		if now.Sub(lastReport) >= REPORT_INTERVAL_MS*time.Millisecond {
			// Read flushes the averaging window, so it only runs when the
			// result is reported.
			println(texts.All(reportInput(gas.Read())))
			lastReport = now
		}

		time.Sleep(POLL_INTERVAL_MS * time.Millisecond)
	}
}

// halt stops on a fatal hardware error. The LED stays lit.
func halt(msg string) {
	println("fatal:", msg)
	PIN_LED.High()
	for {
		time.Sleep(time.Hour)
	}
}

func onGasEvent(e ammonia.Event) {
	l := screen.Labels()
	switch e {
	case ammonia.EventCalibrationStarted:
		screen.Status(l.Calibrating)
	case ammonia.EventAutoCalibration:
		screen.Status(l.AutoCalibration)
	case ammonia.EventCalibrated, ammonia.EventCalibrationAborted:
		screen.Status(l.Online)
	}
}

func reportInput(r ammonia.Reading) report.Input {
	in := report.Input{
		Water: water.Read(),
		Ammonia: report.Ammonia{
			Reading:     r,
			Window:      gas.Config().AveragingInterval,
			Calibrating: gas.Calibrating(),
		},
	}
	for _, s := range soap {
		in.Soap = append(in.Soap, s.Read())
	}
	for _, t := range tissue {
		in.Tissue = append(in.Tissue, t.Read())
	}
	return in
}

// outputFrame writes one raw frame for the host:
// "$unix_micros,adc,soap1_cm,soap2_cm,soap3_cm,tissue12,water\n"
// A soap distance of -1 means no echo.
func outputFrame(now time.Time) {
	adc, _ := gasRaw.Get()

	print("$")
	print(now.UnixNano() / 1000)
	print(",")
	print(adc)
	for _, s := range sonars {
		cm, err := s.Distance()
		if err != nil {
			cm = -1
		}
		print(",")
		print(cm)
	}
	print(",")
	for _, p := range tissuePins {
		printLevel(p.Get())
	}
	print(",")
	printLevel(PIN_WATER.Get())
	print("\n")
}

func printLevel(high bool) {
	if high {
		print("1")
	} else {
		print("0")
	}
}

// processSerial handles "L0" / "L1" from the host.
func processSerial() {
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		if data == '\n' || data == '\r' {
			if serialPos == 2 && serialBuffer[0] == 'L' {
				PIN_LED.Set(serialBuffer[1] == '1')
			}
			serialPos = 0
			continue
		}
		if data == ' ' || data == '\t' {
			continue
		}
		if serialPos < len(serialBuffer) {
			serialBuffer[serialPos] = data
			serialPos++
		} else {
			serialPos = 0
		}
	}
}
