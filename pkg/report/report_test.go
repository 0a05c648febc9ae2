package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/itohio/restroom/pkg/ammonia"
	"github.com/itohio/restroom/pkg/presence"
)

func sampleInput() Input {
	return Input{
		Soap: []presence.SoapReading{
			{Unit: 1, DistanceCM: 4, Level: presence.LevelAvailable},
			{Unit: 2, DistanceCM: 17, Level: presence.LevelEmpty},
			{Unit: 3, Level: presence.LevelUnknown, Err: "soap 3: presence: echo timeout"},
		},
		Tissue: []presence.TissueReading{
			{Unit: 1, Available: true},
			{Unit: 2, Available: false},
		},
		Water: presence.WaterReading{Detected: true},
		Ammonia: Ammonia{
			Reading: ammonia.Reading{PPM: 0.456, Score: 0.102, Category: ammonia.Good},
			Window:  5 * time.Minute,
		},
	}
}

func TestBlocks_English(t *testing.T) {
	r := New("en")
	in := sampleInput()

	assert.Equal(t, "--- Soap Availability ---\n"+
		"Soap 1 | Distance: 4 cm | Status: OK\n"+
		"Soap 2 | Distance: 17 cm | Status: Empty\n"+
		"Soap 3 | Distance: - | Status: No echo", r.Soap(in.Soap))

	assert.Equal(t, "--- Tissue Availability ---\n"+
		"Status 1: Tissue available.\n"+
		"Status 2: Tissue empty!", r.Tissue(in.Tissue))

	assert.Equal(t, "--- Standing Water ---\nStatus: Standing water detected.", r.Water(in.Water))
	assert.Equal(t, "--- Standing Water ---\nStatus: Floor dry.", r.Water(presence.WaterReading{}))

	assert.Equal(t, "--- Gas Detection (NH3) ---\n"+
		"-> NH3: 0.46 ppm (5-min Avg)\n"+
		"-> Odor score: 1/3\n"+
		"-> Interpretation: Good", r.Ammonia(in.Ammonia))
}

func TestBlocks_Indonesian(t *testing.T) {
	r := New("id")
	in := sampleInput()

	assert.Equal(t, "--- Ketersediaan Tisu ---\n"+
		"Status 1: Tisu Tersedia.\n"+
		"Status 2: Tisu Habis!", r.Tissue(in.Tissue))
	assert.Contains(t, r.Soap(in.Soap), "Sabun 2 | Jarak: 17 cm | Status: Habis")
	assert.Equal(t, "--- Deteksi Genangan Air ---\nStatus: Lantai kering.", r.Water(presence.WaterReading{}))

	in.Ammonia.Reading = ammonia.Reading{PPM: 2, Category: ammonia.Critical}
	assert.Equal(t, "--- Deteksi Gas (NH₃) ---\n"+
		"→ NH₃: 2.00 ppm (5-min Avg)\n"+
		"→ Skor bau: 3/3\n"+
		"→ Interpretasi: Kritis", r.Ammonia(in.Ammonia))
}

func TestAmmonia_Calibrating(t *testing.T) {
	a := Ammonia{Reading: ammonia.Reading{Category: ammonia.Good}, Window: 5 * time.Minute, Calibrating: true}
	assert.True(t, strings.HasSuffix(New("en").Ammonia(a), "-> Sensor calibrating, readings paused."))
}

func TestAll(t *testing.T) {
	r := New("xx")
	in := sampleInput()
	all := r.All(in)

	blocks := strings.Split(all, "\n\n")
	assert.Len(t, blocks, 4)
	assert.Equal(t, r.Soap(in.Soap), blocks[0])
	assert.Equal(t, r.Ammonia(in.Ammonia), blocks[3])
}
