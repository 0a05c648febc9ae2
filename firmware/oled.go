//go:build tinygo

package main

import (
	"errors"
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freesans"
	"tinygo.org/x/tinyfont/proggy"

	"github.com/itohio/restroom/pkg/display"
)

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

	errNoPanel = errors.New("oled: no ack from panel")
)

// oled renders display screens on an SSD1306 over I2C.
type oled struct {
	bus *machine.I2C
	dev ssd1306.Device
}

var _ display.Canvas = (*oled)(nil)

func newOLED(bus *machine.I2C) *oled {
	return &oled{bus: bus, dev: ssd1306.NewI2C(bus)}
}

// Configure probes the panel address before initialising it; the driver
// itself does not report a missing panel.
func (o *oled) Configure() error {
	if err := o.bus.Tx(OLED_ADDRESS, []byte{0x00}, nil); err != nil {
		return errNoPanel
	}
	o.dev.Configure(ssd1306.Config{
		Address:  OLED_ADDRESS,
		Width:    display.Width,
		Height:   display.Height,
		VccState: ssd1306.SWITCHCAPVCC,
	})
	o.dev.ClearDisplay()
	return nil
}

func (o *oled) Clear() { o.dev.ClearBuffer() }

// Text draws s with its top edge at y. tinyfont positions text by baseline.
func (o *oled) Text(x, y int16, size uint8, s string) {
	if size >= 2 {
		tinyfont.WriteLine(&o.dev, &freesans.Bold9pt7b, x, y+13, s, white)
		return
	}
	tinyfont.WriteLine(&o.dev, &proggy.TinySZ8pt7b, x, y+7, s, white)
}

func (o *oled) HLine(x, y, w int16) {
	for i := x; i < x+w && i < display.Width; i++ {
		o.dev.SetPixel(i, y, white)
	}
}

func (o *oled) Flush() error { return o.dev.Display() }
