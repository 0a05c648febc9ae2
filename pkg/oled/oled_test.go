package oled

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/restroom/pkg/display"
)

func newTestScreen() (*Screen, *int) {
	s := New()
	refreshes := 0
	s.refresh = func() { refreshes++ }
	return s, &refreshes
}

func TestScreen_FlushSwapsBuffers(t *testing.T) {
	s, refreshes := newTestScreen()

	s.Text(0, 0, 1, "hello")
	s.HLine(0, 10, 128)
	assert.Empty(t, s.Frame(), "nothing visible before flush")

	require.NoError(t, s.Flush())
	assert.Equal(t, 1, *refreshes)
	assert.Equal(t, []Op{
		{X: 0, Y: 0, Size: 1, Text: "hello"},
		{X: 0, Y: 10, W: 128},
	}, s.Frame())

	s.Clear()
	assert.Len(t, s.Frame(), 2, "clear only touches the back buffer")
	require.NoError(t, s.Flush())
	assert.Empty(t, s.Frame())
}

func TestScreen_IgnoresEmptyLines(t *testing.T) {
	s, _ := newTestScreen()
	s.HLine(0, 0, 0)
	s.Text(1, 2, 0, "x")
	require.NoError(t, s.Flush())
	assert.Equal(t, []Op{{X: 1, Y: 2, Size: 1, Text: "x"}}, s.Frame())
}

func TestScreen_DrivesDisplay(t *testing.T) {
	s, _ := newTestScreen()
	d := display.New(s, display.LabelsFor("en"))

	require.NoError(t, d.Begin())
	frame := s.Frame()
	require.Len(t, frame, 1)
	assert.Equal(t, "Starting...", frame[0].Text)
	assert.Equal(t, uint8(2), frame[0].Size)

	require.NoError(t, d.Running("10.0.0.2", "wc-1"))
	frame = s.Frame()
	require.Len(t, frame, 5)
	assert.True(t, frame[2].IsLine())
	assert.Equal(t, "RUNNING", frame[4].Text)
}

func TestRenderer_ObjectsFollowFrame(t *testing.T) {
	test.NewTempApp(t)

	s, _ := newTestScreen()
	s.Text(0, 0, 1, "ID: wc-1")
	s.HLine(0, 22, 128)
	require.NoError(t, s.Flush())

	s.Resize(fyne.NewSize(256, 128))
	r := test.WidgetRenderer(s)
	r.Refresh()
	assert.Len(t, r.Objects(), 3, "background, text and line")
	assert.Equal(t, fyne.NewSize(256, 128), r.MinSize())
}

func TestScale(t *testing.T) {
	assert.Equal(t, float32(2), scale(fyne.NewSize(256, 128)))
	assert.Equal(t, float32(1), scale(fyne.NewSize(512, 64)))
}
