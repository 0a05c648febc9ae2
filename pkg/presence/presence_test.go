package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeRanger struct {
	cm  int32
	err error
}

func (r fakeRanger) Distance() (int32, error) { return r.cm, r.err }

type fakePin bool

func (p fakePin) Get() bool { return bool(p) }

func TestSoap(t *testing.T) {
	tests := []struct {
		name  string
		unit  int
		r     fakeRanger
		want  Level
		isErr bool
	}{
		{name: "unit 1 full", unit: 1, r: fakeRanger{cm: 4}, want: LevelAvailable},
		{name: "unit 1 empty", unit: 1, r: fakeRanger{cm: 25}, want: LevelEmpty},
		{name: "unit 2 at threshold", unit: 2, r: fakeRanger{cm: 10}, want: LevelAvailable},
		{name: "unit 2 just above threshold", unit: 2, r: fakeRanger{cm: 11}, want: LevelEmpty},
		{name: "unit 3 full", unit: 3, r: fakeRanger{cm: 0}, want: LevelAvailable},
		{name: "unit 3 empty", unit: 3, r: fakeRanger{cm: 120}, want: LevelEmpty},
		{name: "timeout is unknown", unit: 3, r: fakeRanger{err: ErrEchoTimeout}, want: LevelUnknown, isErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSoap(tt.unit, tt.r, 0)
			got := s.Read()
			assert.Equal(t, tt.unit, got.Unit)
			assert.Equal(t, tt.want, got.Level)
			if tt.isErr {
				assert.Contains(t, got.Err, "echo timeout")
				assert.Zero(t, got.DistanceCM)
			} else {
				assert.Empty(t, got.Err)
				assert.Equal(t, tt.r.cm, got.DistanceCM)
			}
		})
	}
}

func TestSoap_CustomThreshold(t *testing.T) {
	s := NewSoap(1, fakeRanger{cm: 15}, 20)
	assert.Equal(t, LevelAvailable, s.Read().Level)
}

func TestTissue(t *testing.T) {
	for _, unit := range []int{1, 2} {
		assert.True(t, NewTissue(unit, fakePin(true)).Read().Available)
		got := NewTissue(unit, fakePin(false)).Read()
		assert.False(t, got.Available)
		assert.Equal(t, unit, got.Unit)
	}
}

func TestWater(t *testing.T) {
	assert.False(t, NewWater(fakePin(true)).Read().Detected)
	assert.True(t, NewWater(fakePin(false)).Read().Detected)
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "available", LevelAvailable.String())
	assert.Equal(t, "empty", LevelEmpty.String())
	assert.Equal(t, "unknown", LevelUnknown.String())
}
