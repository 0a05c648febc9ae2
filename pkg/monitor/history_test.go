package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/itohio/restroom/pkg/presence"
)

func TestHistory_Bounded(t *testing.T) {
	h := NewHistory(3)
	base := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		h.Add(Snapshot{Timestamp: base.Add(time.Duration(i) * time.Second)})
	}

	assert.Equal(t, 3, h.Len())
	pts := h.Points(0)
	assert.Equal(t, base.Add(2*time.Second), pts[0].Timestamp)
	assert.Equal(t, base.Add(4*time.Second), pts[2].Timestamp)
}

func TestHistory_Points(t *testing.T) {
	h := NewHistory(100)
	for i := 0; i < 100; i++ {
		h.Add(Snapshot{Ammonia: AmmoniaState{PPM: float32(i)}})
	}

	pts := h.Points(10)
	assert.Len(t, pts, 10)
	assert.Equal(t, float32(0), pts[0].Ammonia.PPM)
	assert.Equal(t, float32(90), pts[9].Ammonia.PPM)
}

func TestDownsample(t *testing.T) {
	tests := []struct {
		name      string
		src       []int
		maxPoints int
		want      []int
	}{
		{name: "fewer than max", src: []int{1, 2, 3}, maxPoints: 5, want: []int{1, 2, 3}},
		{name: "exactly max", src: []int{1, 2, 3}, maxPoints: 3, want: []int{1, 2, 3}},
		{name: "decimate by two", src: []int{0, 1, 2, 3, 4, 5, 6, 7}, maxPoints: 4, want: []int{0, 2, 4, 6}},
		{name: "empty", src: nil, maxPoints: 4, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Downsample(nil, tt.src, tt.maxPoints))
		})
	}
}

func TestDownsample_ReusesDst(t *testing.T) {
	dst := make([]int, 0, 8)
	got := Downsample(dst, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 5)
	assert.Equal(t, []int{0, 2, 4, 6, 8}, got)
	assert.Equal(t, 8, cap(got))
}

func TestSnapshot_Clone(t *testing.T) {
	s := Snapshot{
		Soap:   []presence.SoapReading{{Unit: 1}},
		Tissue: []presence.TissueReading{{Unit: 1, Available: true}},
	}
	c := s.Clone()
	c.Soap[0].Unit = 9
	c.Tissue[0].Available = false
	assert.Equal(t, 1, s.Soap[0].Unit)
	assert.True(t, s.Tissue[0].Available)
}
