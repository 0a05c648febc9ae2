package trend

import (
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/restroom/pkg/ammonia"
	"github.com/itohio/restroom/pkg/monitor"
)

func history(start time.Time, ppm ...float32) []monitor.Snapshot {
	out := make([]monitor.Snapshot, len(ppm))
	for i, v := range ppm {
		out[i] = monitor.Snapshot{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Ammonia:   monitor.AmmoniaState{PPM: v, Category: ammonia.Good},
		}
	}
	return out
}

func TestWidget_Thresholds(t *testing.T) {
	w := New(ammonia.DefaultConfig().Scale, time.Hour)
	good, normal := w.Thresholds()
	assert.InDelta(t, 1.1589, good, 1e-3)
	assert.InDelta(t, 1.6616, normal, 1e-3)
}

func TestWidget_AutoScale(t *testing.T) {
	test.NewTempApp(t)
	w := New(ammonia.DefaultConfig().Scale, time.Hour)
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	w.UpdateData(history(start, 0.2, 0.4, 0.3))
	yMin, yMax, xMin, xMax := w.Range()
	assert.Equal(t, 0.0, yMin)
	_, normal := w.Thresholds()
	assert.InDelta(t, normal*1.25, yMax, 1e-9, "critical band stays visible")
	assert.Equal(t, start, xMin)
	assert.Equal(t, start.Add(time.Hour), xMax, "minimum window")

	w.UpdateData(history(start, 0.2, 5))
	_, yMax, _, _ = w.Range()
	assert.InDelta(t, 5.5, yMax, 1e-6)
}

func TestWidget_DownsamplesHistory(t *testing.T) {
	test.NewTempApp(t)
	w := New(ammonia.DefaultConfig().Scale, time.Minute)
	ppm := make([]float32, 2000)
	w.UpdateData(history(time.Now(), ppm...))
	assert.Len(t, w.Points(), 500)
}

func TestRenderer_Draws(t *testing.T) {
	test.NewTempApp(t)
	w := New(ammonia.DefaultConfig().Scale, time.Hour)
	w.Resize(fyne.NewSize(600, 300))

	r := test.WidgetRenderer(w)
	r.Refresh()
	empty := len(r.Objects())
	require.Greater(t, empty, 1)

	w.UpdateData(history(time.Now(), 0.2, 0.4, 0.3))
	r.Refresh()
	assert.Equal(t, empty+2+1, len(r.Objects()), "two segments and the current label")
}

func TestPlot_Pos(t *testing.T) {
	start := time.Unix(0, 0)
	p := plot{x: 10, y: 20, w: 100, h: 50, yMin: 0, yMax: 10, xMin: start, xMax: start.Add(10 * time.Second)}
	assert.Equal(t, fyne.NewPos(10, 70), p.pos(start, 0))
	assert.Equal(t, fyne.NewPos(110, 20), p.pos(start.Add(10*time.Second), 10))
	assert.Equal(t, fyne.NewPos(60, 45), p.pos(start.Add(5*time.Second), 5))
}
