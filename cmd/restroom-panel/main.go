package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/restroom/pkg/board"
	"github.com/itohio/restroom/pkg/config"
	"github.com/itohio/restroom/pkg/display"
	"github.com/itohio/restroom/pkg/monitor"
	"github.com/itohio/restroom/pkg/oled"
	"github.com/itohio/restroom/pkg/report"
	"github.com/itohio/restroom/pkg/trend"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyUSB0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use a simulated board instead of the serial port")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if cfg.Device.ID == "" {
		cfg.Device.ID = "panel"
	}

	application := app.NewWithID("com.itohio.restroom")
	window := application.NewWindow("Restroom Monitor")
	window.Resize(fyne.NewSize(1100, 700))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		window:     window,
		useMock:    *mockFlag,
		screen:     oled.New(),
		chart:      trend.New(cfg.Ammonia.Scale, time.Hour),
		reportText: widget.NewLabel("Not connected"),
	}
	state.reportText.TextStyle = fyne.TextStyle{Monospace: true}

	toolbar := createToolbar(state)
	side := container.NewVBox(
		widget.NewCard("Panel", "", container.NewCenter(state.screen)),
		widget.NewCard("Report", "", state.reportText),
	)
	window.SetContent(container.NewBorder(toolbar, nil, nil, container.NewVScroll(side), state.chart))
	window.SetOnClosed(func() { closeChain(state.chain) })
	window.ShowAndRun()
}

// chain tracks a running monitor for graceful shutdown.
type chain struct {
	device  board.Board
	station *monitor.Station
	cancel  context.CancelFunc
	done    chan struct{} // Closed when the station loop exits
}

// appState holds the application state.
type appState struct {
	cfg        *config.Config
	configPath string
	window     fyne.Window
	useMock    bool

	screen     *oled.Screen
	chart      *trend.Widget
	reportText *widget.Label

	connectBtn   *widget.Button
	calibrateBtn *widget.Button
	chain        *chain

	throttle throttle
}

// createToolbar creates the toolbar with Connect, Settings and Calibrate buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	state.connectBtn = widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})
	state.calibrateBtn = widget.NewButtonWithIcon("Calibrate", theme.ViewRefreshIcon(), func() {
		handleCalibrate(state)
	})
	state.calibrateBtn.Disable()

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(state.connectBtn, settingsBtn),
		container.NewHBox(state.calibrateBtn),
		nil,
	)
}

// closeChain stops the station loop, waits for it and closes the board.
func closeChain(c *chain) {
	if c == nil {
		return
	}
	c.cancel()
	<-c.done
	if err := c.device.Close(); err != nil {
		log.Printf("Failed to close board: %v", err)
	}
}

// handleConnect toggles the connection to the board.
func handleConnect(state *appState) {
	if state.chain != nil {
		closeChain(state.chain)
		state.chain = nil
		state.calibrateBtn.Disable()
		state.reportText.SetText("Not connected")
		log.Println("Disconnected")
		return
	}

	var dev board.Board
	if state.useMock {
		dev = board.NewMock(&state.cfg.Mock)
	} else {
		dev = board.NewSerial(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, board.DefaultBufferSize)
	}
	if err := dev.Connect(); err != nil {
		target := state.cfg.Serial.Port
		if state.useMock {
			target = "simulated board"
		}
		dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", target, err), state.window)
		return
	}

	inputs := board.NewInputs(dev)
	go inputs.Run()

	screen := display.New(state.screen, display.LabelsFor(state.cfg.Report.Locale))
	reporter := report.New(state.cfg.Report.Locale)
	station := monitor.New(state.cfg, monitor.NewSensors(state.cfg, inputs, nil), screen, reporter)

	station.OnUpdate(func(s monitor.Snapshot) {
		if !state.throttle.ready(time.Now()) {
			return
		}
		history := station.History().Points(0)
		UpdateWidgetOnMainThread(func() {
			state.chart.UpdateData(history)
			state.reportText.SetText(s.Report)
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	c := &chain{device: dev, station: station, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(c.done)
		if err := station.Run(ctx); err != nil {
			log.Printf("Monitor stopped: %v", err)
			if errors.Is(err, display.ErrInit) {
				UpdateWidgetOnMainThread(func() { dialog.ShowError(err, state.window) })
			}
		}
	}()

	state.chain = c
	state.calibrateBtn.Enable()
	log.Printf("Connected, monitoring as %s", station.DeviceID())
}

// handleCalibrate queues a gas sensor calibration.
func handleCalibrate(state *appState) {
	if state.chain == nil {
		return
	}
	if !state.chain.station.RequestCalibration() {
		dialog.ShowInformation("Calibration", "A calibration is already queued.", state.window)
	}
}

// throttle limits UI refreshes to one per interval.
type throttle struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration
}

func (t *throttle) ready(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	interval := t.interval
	if interval == 0 {
		interval = 250 * time.Millisecond
	}
	if now.Sub(t.last) < interval {
		return false
	}
	t.last = now
	return true
}
