// Package report builds the plain text status blocks sent to chat, MQTT and
// the console.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/itohio/restroom/pkg/ammonia"
	"github.com/itohio/restroom/pkg/presence"
)

// Labels is the fixed vocabulary of one locale.
type Labels struct {
	SoapTitle      string
	Soap           string
	Distance       string
	Status         string
	SoapAvailable  string
	SoapEmpty      string
	SoapUnknown    string
	TissueTitle    string
	TissueOK       string
	TissueEmpty    string
	WaterTitle     string
	WaterDetected  string
	WaterDry       string
	AmmoniaTitle   string
	Bullet         string
	NH3            string
	AvgFormat      string
	OdorScore      string
	Interpretation string
	Calibrating    string
	Categories     map[ammonia.Category]string
}

var locales = map[string]Labels{
	"en": {
		SoapTitle:      "--- Soap Availability ---",
		Soap:           "Soap",
		Distance:       "Distance",
		Status:         "Status",
		SoapAvailable:  "OK",
		SoapEmpty:      "Empty",
		SoapUnknown:    "No echo",
		TissueTitle:    "--- Tissue Availability ---",
		TissueOK:       "Tissue available.",
		TissueEmpty:    "Tissue empty!",
		WaterTitle:     "--- Standing Water ---",
		WaterDetected:  "Standing water detected.",
		WaterDry:       "Floor dry.",
		AmmoniaTitle:   "--- Gas Detection (NH3) ---",
		Bullet:         "->",
		NH3:            "NH3",
		AvgFormat:      "(%d-min Avg)",
		OdorScore:      "Odor score",
		Interpretation: "Interpretation",
		Calibrating:    "Sensor calibrating, readings paused.",
		Categories: map[ammonia.Category]string{
			ammonia.Good:     "Good",
			ammonia.Normal:   "Normal",
			ammonia.Critical: "Critical",
		},
	},
	"id": {
		SoapTitle:      "--- Ketersediaan Sabun ---",
		Soap:           "Sabun",
		Distance:       "Jarak",
		Status:         "Status",
		SoapAvailable:  "Aman",
		SoapEmpty:      "Habis",
		SoapUnknown:    "Tidak terbaca",
		TissueTitle:    "--- Ketersediaan Tisu ---",
		TissueOK:       "Tisu Tersedia.",
		TissueEmpty:    "Tisu Habis!",
		WaterTitle:     "--- Deteksi Genangan Air ---",
		WaterDetected:  "Genangan air terdeteksi.",
		WaterDry:       "Lantai kering.",
		AmmoniaTitle:   "--- Deteksi Gas (NH₃) ---",
		Bullet:         "→",
		NH3:            "NH₃",
		AvgFormat:      "(%d-min Avg)",
		OdorScore:      "Skor bau",
		Interpretation: "Interpretasi",
		Calibrating:    "Sensor sedang kalibrasi.",
		Categories: map[ammonia.Category]string{
			ammonia.Good:     "Bagus",
			ammonia.Normal:   "Normal",
			ammonia.Critical: "Kritis",
		},
	},
}

// Locales returns the supported locale codes.
func Locales() []string { return []string{"en", "id"} }

// Ammonia is the odor state rendered by the ammonia block.
type Ammonia struct {
	Reading     ammonia.Reading
	Window      time.Duration
	Calibrating bool
}

// Input holds everything a full report needs.
type Input struct {
	Soap    []presence.SoapReading
	Tissue  []presence.TissueReading
	Water   presence.WaterReading
	Ammonia Ammonia
}

// Reporter renders text blocks in one locale.
type Reporter struct {
	l Labels
}

// New creates a reporter for locale; unknown locales fall back to English.
func New(locale string) *Reporter {
	l, ok := locales[strings.ToLower(locale)]
	if !ok {
		l = locales["en"]
	}
	return &Reporter{l: l}
}

// Soap renders one line per soap unit.
func (r *Reporter) Soap(readings []presence.SoapReading) string {
	var b strings.Builder
	b.WriteString(r.l.SoapTitle)
	for _, s := range readings {
		status := r.l.SoapUnknown
		distance := "-"
		switch s.Level {
		case presence.LevelAvailable:
			status = r.l.SoapAvailable
		case presence.LevelEmpty:
			status = r.l.SoapEmpty
		}
		if s.Level != presence.LevelUnknown {
			distance = fmt.Sprintf("%d cm", s.DistanceCM)
		}
		fmt.Fprintf(&b, "\n%s %d | %s: %s | %s: %s", r.l.Soap, s.Unit, r.l.Distance, distance, r.l.Status, status)
	}
	return b.String()
}

// Tissue renders one line per tissue holder.
func (r *Reporter) Tissue(readings []presence.TissueReading) string {
	var b strings.Builder
	b.WriteString(r.l.TissueTitle)
	for _, t := range readings {
		msg := r.l.TissueEmpty
		if t.Available {
			msg = r.l.TissueOK
		}
		fmt.Fprintf(&b, "\n%s %d: %s", r.l.Status, t.Unit, msg)
	}
	return b.String()
}

// Water renders the floor sensor state.
func (r *Reporter) Water(w presence.WaterReading) string {
	msg := r.l.WaterDry
	if w.Detected {
		msg = r.l.WaterDetected
	}
	return fmt.Sprintf("%s\n%s: %s", r.l.WaterTitle, r.l.Status, msg)
}

// Ammonia renders the averaged concentration, score and interpretation.
func (r *Reporter) Ammonia(a Ammonia) string {
	var b strings.Builder
	b.WriteString(r.l.AmmoniaTitle)
	avg := fmt.Sprintf(r.l.AvgFormat, int(a.Window/time.Minute))
	fmt.Fprintf(&b, "\n%s %s: %.2f ppm %s", r.l.Bullet, r.l.NH3, a.Reading.PPM, avg)
	fmt.Fprintf(&b, "\n%s %s: %d/3", r.l.Bullet, r.l.OdorScore, int(a.Reading.Category))
	fmt.Fprintf(&b, "\n%s %s: %s", r.l.Bullet, r.l.Interpretation, r.l.Categories[a.Reading.Category])
	if a.Calibrating {
		fmt.Fprintf(&b, "\n%s %s", r.l.Bullet, r.l.Calibrating)
	}
	return b.String()
}

// All joins the four blocks separated by blank lines.
func (r *Reporter) All(in Input) string {
	return strings.Join([]string{
		r.Soap(in.Soap),
		r.Tissue(in.Tissue),
		r.Water(in.Water),
		r.Ammonia(in.Ammonia),
	}, "\n\n")
}
