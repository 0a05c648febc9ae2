// Package oled emulates the 128x64 monochrome panel as a Fyne widget.
package oled

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/restroom/pkg/display"
)

// Op is one drawing primitive of a frame.
type Op struct {
	X, Y int16
	W    int16  // Line width, 0 for text
	Size uint8  // Text scale
	Text string // Empty for lines
}

// IsLine reports whether the op is a horizontal line.
func (o Op) IsLine() bool { return o.W > 0 }

// Screen is a Fyne widget implementing display.Canvas. Drawing happens in a
// back buffer from any goroutine; Flush swaps it to the front and schedules a
// refresh on the Fyne thread.
type Screen struct {
	widget.BaseWidget

	mu    sync.RWMutex
	back  []Op
	front []Op

	refresh func()
}

var _ display.Canvas = (*Screen)(nil)

// New creates an empty screen.
func New() *Screen {
	s := &Screen{}
	s.refresh = func() { fyne.Do(s.Refresh) }
	s.ExtendBaseWidget(s)
	return s
}

func (s *Screen) Configure() error { return nil }

func (s *Screen) Clear() {
	s.mu.Lock()
	s.back = s.back[:0]
	s.mu.Unlock()
}

func (s *Screen) Text(x, y int16, size uint8, text string) {
	if size == 0 {
		size = 1
	}
	s.mu.Lock()
	s.back = append(s.back, Op{X: x, Y: y, Size: size, Text: text})
	s.mu.Unlock()
}

func (s *Screen) HLine(x, y, w int16) {
	if w <= 0 {
		return
	}
	s.mu.Lock()
	s.back = append(s.back, Op{X: x, Y: y, W: w})
	s.mu.Unlock()
}

func (s *Screen) Flush() error {
	s.mu.Lock()
	s.front = append(s.front[:0], s.back...)
	s.mu.Unlock()
	s.refresh()
	return nil
}

// Frame returns a copy of the last flushed frame.
func (s *Screen) Frame() []Op {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Op(nil), s.front...)
}

// CreateRenderer creates the widget renderer.
func (s *Screen) CreateRenderer() fyne.WidgetRenderer {
	return newRenderer(s)
}
