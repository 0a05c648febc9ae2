package trend

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/itohio/restroom/pkg/ammonia"
)

var (
	backgroundColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	gridColor       = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor      = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	lineColor       = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	calibratingGray = color.RGBA{R: 90, G: 90, B: 90, A: 255}

	bandColors = map[ammonia.Category]color.Color{
		ammonia.Good:     color.RGBA{R: 20, G: 60, B: 20, A: 255},
		ammonia.Normal:   color.RGBA{R: 60, G: 55, B: 15, A: 255},
		ammonia.Critical: color.RGBA{R: 70, G: 20, B: 20, A: 255},
	}
)

type renderer struct {
	chart    *Widget
	bg       *canvas.Rectangle
	objects  []fyne.CanvasObject
	lastSize fyne.Size
}

func (r *renderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 240)
}

func (r *renderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	if r.lastSize != size {
		r.lastSize = size
		r.chart.BaseWidget.Refresh()
	}
}

// plot is the drawing area inside the axis margins.
type plot struct {
	x, y, w, h float32
	yMin, yMax float64
	xMin, xMax time.Time
}

func (p plot) pos(t time.Time, v float64) fyne.Position {
	span := p.xMax.Sub(p.xMin).Seconds()
	fx := float32(0)
	if span > 0 {
		fx = float32(t.Sub(p.xMin).Seconds() / span)
	}
	fy := float32((v - p.yMin) / (p.yMax - p.yMin))
	return fyne.NewPos(p.x+fx*p.w, p.y+p.h-fy*p.h)
}

func (r *renderer) Refresh() {
	points := r.chart.Points()
	yMin, yMax, xMin, xMax := r.chart.Range()
	goodMax, normalMax := r.chart.Thresholds()

	size := r.chart.Size()
	r.objects = []fyne.CanvasObject{r.bg}
	if size.Width == 0 || size.Height == 0 {
		return
	}

	const (
		marginLeft   = 60
		marginRight  = 20
		marginTop    = 20
		marginBottom = 40
	)
	p := plot{
		x: marginLeft, y: marginTop,
		w:    size.Width - marginLeft - marginRight,
		h:    size.Height - marginTop - marginBottom,
		yMin: yMin, yMax: yMax, xMin: xMin, xMax: xMax,
	}

	r.drawBands(p, goodMax, normalMax)
	r.drawGrid(p)
	r.drawLine(p, points)
	if n := len(points); n > 0 {
		r.drawCurrent(p, points[n-1])
	}
}

// drawBands shades the Good, Normal and Critical ranges.
func (r *renderer) drawBands(p plot, goodMax, normalMax float64) {
	bands := []struct {
		cat      ammonia.Category
		low, top float64
	}{
		{ammonia.Good, p.yMin, goodMax},
		{ammonia.Normal, goodMax, normalMax},
		{ammonia.Critical, normalMax, p.yMax},
	}
	for _, b := range bands {
		low, top := clamp(b.low, p.yMin, p.yMax), clamp(b.top, p.yMin, p.yMax)
		if top <= low {
			continue
		}
		rect := canvas.NewRectangle(bandColors[b.cat])
		tl := p.pos(p.xMin, top)
		br := p.pos(p.xMax, low)
		rect.Move(tl)
		rect.Resize(fyne.NewSize(br.X-tl.X, br.Y-tl.Y))
		r.objects = append(r.objects, rect)
	}
}

func (r *renderer) drawGrid(p plot) {
	const hLines, vLines = 6, 8
	for i := range hLines + 1 {
		v := p.yMax - float64(i)*(p.yMax-p.yMin)/hLines
		pos := p.pos(p.xMin, v)
		line := canvas.NewLine(gridColor)
		line.Position1 = pos
		line.Position2 = fyne.NewPos(p.x+p.w, pos.Y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		text := canvas.NewText(formatPPM(v), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(p.x-5, pos.Y-6))
		r.objects = append(r.objects, text)
	}

	span := p.xMax.Sub(p.xMin)
	for i := range vLines + 1 {
		t := p.xMin.Add(time.Duration(i) * span / vLines)
		pos := p.pos(t, p.yMin)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(pos.X, p.y)
		line.Position2 = pos
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		text := canvas.NewText(t.Local().Format("15:04"), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(pos.X-20, pos.Y+5))
		r.objects = append(r.objects, text)
	}
}

// drawLine connects the readings. Segments recorded while calibrating are
// grey since their value is stale.
func (r *renderer) drawLine(p plot, points []Point) {
	for i := 1; i < len(points); i++ {
		c := color.Color(lineColor)
		if points[i].Calibrating {
			c = calibratingGray
		}
		line := canvas.NewLine(c)
		line.Position1 = p.pos(points[i-1].Timestamp, points[i-1].PPM)
		line.Position2 = p.pos(points[i].Timestamp, points[i].PPM)
		line.StrokeWidth = 1.5
		r.objects = append(r.objects, line)
	}
}

func (r *renderer) drawCurrent(p plot, last Point) {
	text := canvas.NewText(fmt.Sprintf("%s  %s", formatPPM(last.PPM), last.Category), lineColor)
	text.TextSize = 12
	text.Move(fyne.NewPos(p.x+10, p.y+10))
	r.objects = append(r.objects, text)
}

func (r *renderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *renderer) Destroy() {}

func formatPPM(v float64) string {
	return fmt.Sprintf("%.2f ppm", v)
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
