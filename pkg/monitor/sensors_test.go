package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/restroom/pkg/ammonia"
	"github.com/itohio/restroom/pkg/config"
	"github.com/itohio/restroom/pkg/presence"
)

type fakeInputs struct{}

func (fakeInputs) Gas() ammonia.ADC           { return constADC(2000) }
func (fakeInputs) LED() ammonia.Indicator     { return nil }
func (fakeInputs) Soap(i int) presence.Ranger { return constRanger(int32(3 + 10*i)) }
func (fakeInputs) Tissue(i int) presence.Pin  { return constPin(i == 0) }
func (fakeInputs) Water() presence.Pin        { return constPin(true) }

func TestNewSensors(t *testing.T) {
	cfg := config.Default()
	clock := &fakeClock{now: time.Unix(0, 0)}
	s := NewSensors(cfg, fakeInputs{}, clock)

	require.NotNil(t, s.Ammonia)
	require.Len(t, s.Soap, 3)
	require.Len(t, s.Tissue, 2)

	soap := s.Soap[1].Read()
	assert.Equal(t, 2, soap.Unit)
	assert.Equal(t, int32(13), soap.DistanceCM)
	assert.Equal(t, presence.LevelEmpty, soap.Level)
	assert.Equal(t, presence.LevelAvailable, s.Soap[0].Read().Level)

	assert.True(t, s.Tissue[0].Read().Available)
	assert.False(t, s.Tissue[1].Read().Available)
	assert.Equal(t, 2, s.Tissue[1].Read().Unit)
	assert.False(t, s.Water.Read().Detected, "HIGH means dry")
}
