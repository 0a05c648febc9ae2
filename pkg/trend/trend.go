// Package trend is a Fyne chart of the averaged NH3 concentration with the
// odor category bands drawn behind it.
package trend

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/restroom/pkg/ammonia"
	"github.com/itohio/restroom/pkg/monitor"
)

// Point is one plotted reading.
type Point struct {
	Timestamp   time.Time
	PPM         float64
	Category    ammonia.Category
	Calibrating bool
}

// Widget plots the snapshot history.
type Widget struct {
	widget.BaseWidget

	scale     ammonia.Scale
	minWindow time.Duration

	// Data (protected by mu)
	mu     sync.RWMutex
	points []Point

	yMin, yMax float64
	xMin, xMax time.Time

	maxDisplayPoints int
}

// New creates a chart. minWindow is the smallest time span shown on the x
// axis.
func New(scale ammonia.Scale, minWindow time.Duration) *Widget {
	w := &Widget{
		scale:            scale,
		minWindow:        minWindow,
		points:           make([]Point, 0, 500),
		maxDisplayPoints: 500,
	}
	w.ExtendBaseWidget(w)
	w.updateAutoScale()
	return w
}

// UpdateData replaces the plotted history. It must run on the Fyne thread.
func (w *Widget) UpdateData(history []monitor.Snapshot) {
	w.mu.Lock()
	history = monitor.Downsample(nil, history, w.maxDisplayPoints)
	w.points = w.points[:0]
	for _, s := range history {
		w.points = append(w.points, Point{
			Timestamp:   s.Timestamp,
			PPM:         float64(s.Ammonia.PPM),
			Category:    s.Ammonia.Category,
			Calibrating: s.Ammonia.Calibrating,
		})
	}
	w.updateAutoScale()
	w.mu.Unlock()

	w.Refresh()
}

// Points returns a copy of the plotted points.
func (w *Widget) Points() []Point {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]Point(nil), w.points...)
}

// Range returns the current axes.
func (w *Widget) Range() (yMin, yMax float64, xMin, xMax time.Time) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.yMin, w.yMax, w.xMin, w.xMax
}

// Thresholds returns the concentrations at the Good/Normal and
// Normal/Critical boundaries.
func (w *Widget) Thresholds() (goodMax, normalMax float64) {
	return ppmAt(w.scale, w.scale.GoodMax), ppmAt(w.scale, w.scale.NormalMax)
}

func ppmAt(s ammonia.Scale, score float32) float64 {
	if s.Slope == 0 {
		return 0
	}
	return float64((score - s.Intercept) / s.Slope)
}

// updateAutoScale fits the y axis to the data and the critical boundary so
// the bands are always visible.
func (w *Widget) updateAutoScale() {
	_, critical := w.Thresholds()
	w.yMin = 0
	w.yMax = critical * 1.25
	if w.yMax <= 0 {
		w.yMax = 1
	}
	for _, p := range w.points {
		if p.PPM > w.yMax {
			w.yMax = p.PPM * 1.1
		}
	}

	if len(w.points) == 0 {
		w.xMax = time.Now()
		w.xMin = w.xMax.Add(-w.minWindow)
		return
	}
	w.xMin = w.points[0].Timestamp
	w.xMax = w.points[len(w.points)-1].Timestamp
	if w.xMax.Sub(w.xMin) < w.minWindow {
		w.xMax = w.xMin.Add(w.minWindow)
	}
}

// CreateRenderer creates the widget renderer.
func (w *Widget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(backgroundColor)
	return &renderer{
		chart:   w,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}
