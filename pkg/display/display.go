// Package display renders the monitor screens on a small monochrome panel.
package display

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

// ErrInit is returned by Begin when the panel does not respond.
var ErrInit = errors.New("display: initialisation failed")

const (
	Width  = 128
	Height = 64
)

// Canvas is a text-mode frame buffer. Drawing calls only touch the buffer;
// Flush pushes it to the panel.
type Canvas interface {
	Configure() error
	Clear()
	Text(x, y int16, size uint8, s string)
	HLine(x, y, w int16)
	Flush() error
}

// Labels are the fixed strings of the screens.
type Labels struct {
	Starting        string
	Calibrating     string
	Online          string
	AutoCalibration string
	Running         [2]string
	PortalTitle     string
	PortalHint      string
}

var labels = map[string]Labels{
	"en": {
		Starting:        "Starting...",
		Calibrating:     "Calibrating...",
		Online:          "Online",
		AutoCalibration: "Auto Calibration",
		Running:         [2]string{"ONLINE &", "RUNNING"},
		PortalTitle:     "AP SETUP",
		PortalHint:      "Open 192.168.4.1",
	},
	"id": {
		Starting:        "Memulai...",
		Calibrating:     "Kalibrasi...",
		Online:          "Online",
		AutoCalibration: "Auto Kalibrasi",
		Running:         [2]string{"ONLINE &", "BERJALAN"},
		PortalTitle:     "AP SETUP",
		PortalHint:      "Akses 192.168.4.1",
	},
}

// LabelsFor returns the labels of locale, falling back to English.
func LabelsFor(locale string) Labels {
	if l, ok := labels[strings.ToLower(locale)]; ok {
		return l
	}
	return labels["en"]
}

// Display draws the status, running and portal screens.
type Display struct {
	canvas  Canvas
	labels  Labels
	current string
}

func New(canvas Canvas, l Labels) *Display {
	return &Display{canvas: canvas, labels: l}
}

// Labels returns the screen labels.
func (d *Display) Labels() Labels { return d.labels }

// Begin initialises the panel and shows the boot status. Callers must treat
// an error as fatal.
func (d *Display) Begin() error {
	if err := d.canvas.Configure(); err != nil {
		return fmt.Errorf("%w: %v", ErrInit, err)
	}
	return d.Status(d.labels.Starting)
}

// Current returns the last status drawn by Status. Running and Portal clear
// it so the next Status always redraws.
func (d *Display) Current() string { return d.current }

// Status shows a single large status line. Repeating the current status does
// not redraw.
func (d *Display) Status(s string) error {
	if s == d.current {
		return nil
	}
	d.canvas.Clear()
	d.canvas.Text(0, 32, 2, s)
	if err := d.flush(); err != nil {
		d.current = ""
		return err
	}
	d.current = s
	return nil
}

// Running shows the device identity and the online banner.
func (d *Display) Running(ip, id string) error {
	d.current = ""
	d.canvas.Clear()
	d.canvas.Text(0, 0, 1, "ID: "+id)
	d.canvas.Text(0, 10, 1, "IP: "+ip)
	d.canvas.HLine(0, 22, Width)
	d.canvas.Text(0, 30, 2, d.labels.Running[0])
	d.canvas.Text(0, 48, 2, d.labels.Running[1])
	return d.flush()
}

// Portal shows the access point provisioning screen.
func (d *Display) Portal(ssid, ip string) error {
	d.current = ""
	d.canvas.Clear()
	d.canvas.Text(0, 0, 2, d.labels.PortalTitle)
	d.canvas.HLine(0, 18, Width)
	d.canvas.Text(0, 25, 1, "SSID: "+ssid)
	d.canvas.Text(0, 35, 1, "Portal: "+ip)
	d.canvas.Text(0, 50, 1, d.labels.PortalHint)
	return d.flush()
}

func (d *Display) flush() error {
	if err := d.canvas.Flush(); err != nil {
		return fmt.Errorf("display: flush: %w", err)
	}
	return nil
}

// LogCanvas is a Canvas for headless hosts that logs every flushed frame.
type LogCanvas struct {
	lines []string
	last  []string
	logf  func(format string, args ...any)
}

var _ Canvas = (*LogCanvas)(nil)

// NewLogCanvas creates a canvas logging through log.Printf.
func NewLogCanvas() *LogCanvas {
	return &LogCanvas{logf: log.Printf}
}

func (c *LogCanvas) Configure() error { return nil }

func (c *LogCanvas) Clear() { c.lines = c.lines[:0] }

func (c *LogCanvas) Text(_, _ int16, _ uint8, s string) {
	c.lines = append(c.lines, s)
}

func (c *LogCanvas) HLine(_, _, _ int16) {
	c.lines = append(c.lines, "----")
}

func (c *LogCanvas) Flush() error {
	c.last = append(c.last[:0], c.lines...)
	c.logf("display: [%s]", strings.Join(c.last, " | "))
	return nil
}

// Frame returns the lines of the last flushed frame.
func (c *LogCanvas) Frame() []string {
	return append([]string(nil), c.last...)
}
