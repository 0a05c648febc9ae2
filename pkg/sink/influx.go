package sink

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/itohio/restroom/pkg/config"
	"github.com/itohio/restroom/pkg/monitor"
)

// Measurement is the InfluxDB measurement name of snapshot points.
const Measurement = "restroom"

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Influx writes one point per snapshot with numeric fields only.
type Influx struct {
	client influxdb2.Client
	writer pointWriter
}

var _ Sink = (*Influx)(nil)

// NewInflux creates a blocking writer for cfg.Bucket.
func NewInflux(cfg config.InfluxConfig) (*Influx, error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx config incomplete")
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

func (i *Influx) Name() string { return "influx" }

func (i *Influx) Publish(ctx context.Context, s monitor.Snapshot) error {
	if err := i.writer.WritePoint(ctx, snapshotPoint(s)); err != nil {
		return fmt.Errorf("failed to write point: %w", err)
	}
	return nil
}

func (i *Influx) Close() error {
	if i.client != nil {
		i.client.Close()
	}
	return nil
}

// snapshotPoint flattens s into a single point. Soap units without an echo
// are left out of the distance fields.
func snapshotPoint(s monitor.Snapshot) *write.Point {
	fields := map[string]interface{}{
		"nh3_ppm":      float64(s.Ammonia.PPM),
		"odor_score":   float64(s.Ammonia.Score),
		"odor_level":   int64(s.Ammonia.Category),
		"calibrating":  s.Ammonia.Calibrating,
		"baseline_r0":  float64(s.Ammonia.Baseline.R0),
		"water":        s.Water.Detected,
		"soap_empty":   int64(len(s.SoapEmpty())),
		"tissue_empty": int64(len(s.TissueEmpty())),
	}
	for _, r := range s.Soap {
		if r.Err == "" {
			fields[fmt.Sprintf("soap%d_cm", r.Unit)] = int64(r.DistanceCM)
		}
	}
	for _, r := range s.Tissue {
		fields[fmt.Sprintf("tissue%d", r.Unit)] = r.Available
	}
	tags := map[string]string{"device": s.Device}
	return influxdb2.NewPoint(Measurement, tags, fields, s.Timestamp)
}
