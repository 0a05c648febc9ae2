package oled

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/itohio/restroom/pkg/display"
)

var (
	panelColor = color.RGBA{R: 5, G: 5, B: 10, A: 255}
	pixelColor = color.RGBA{R: 120, G: 200, B: 255, A: 255}
)

// glyphHeight is the height in panel pixels of a size 1 character.
const glyphHeight = 8

type renderer struct {
	screen     *Screen
	background *canvas.Rectangle
	objects    []fyne.CanvasObject
	lastSize   fyne.Size
}

func newRenderer(s *Screen) *renderer {
	bg := canvas.NewRectangle(panelColor)
	return &renderer{
		screen:     s,
		background: bg,
		objects:    []fyne.CanvasObject{bg},
	}
}

// MinSize keeps the panel at twice its native resolution.
func (r *renderer) MinSize() fyne.Size {
	return fyne.NewSize(display.Width*2, display.Height*2)
}

func (r *renderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	if r.lastSize != size {
		r.lastSize = size
		r.screen.BaseWidget.Refresh()
	}
}

// scale returns the pixel size that fits the panel into size, keeping the
// aspect ratio.
func scale(size fyne.Size) float32 {
	sx := size.Width / display.Width
	sy := size.Height / display.Height
	if sy < sx {
		return sy
	}
	return sx
}

func (r *renderer) Refresh() {
	ops := r.screen.Frame()
	size := r.screen.Size()
	r.objects = []fyne.CanvasObject{r.background}
	if size.Width == 0 || size.Height == 0 {
		canvas.Refresh(r.background)
		return
	}

	px := scale(size)
	for _, op := range ops {
		x := float32(op.X) * px
		y := float32(op.Y) * px
		if op.IsLine() {
			line := canvas.NewLine(pixelColor)
			line.Position1 = fyne.NewPos(x, y)
			line.Position2 = fyne.NewPos(x+float32(op.W)*px, y)
			line.StrokeWidth = px
			r.objects = append(r.objects, line)
			continue
		}
		text := canvas.NewText(op.Text, pixelColor)
		text.TextSize = float32(op.Size) * glyphHeight * px
		text.TextStyle = fyne.TextStyle{Monospace: true}
		text.Move(fyne.NewPos(x, y))
		r.objects = append(r.objects, text)
	}
	canvas.Refresh(r.background)
}

func (r *renderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *renderer) Destroy() {}
