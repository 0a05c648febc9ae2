package sink

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/restroom/pkg/ammonia"
	"github.com/itohio/restroom/pkg/monitor"
	"github.com/itohio/restroom/pkg/presence"
)

func testSnapshot() monitor.Snapshot {
	return monitor.Snapshot{
		Device:    "wc-1",
		Timestamp: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
		Soap: []presence.SoapReading{
			{Unit: 1, DistanceCM: 4, Level: presence.LevelAvailable},
			{Unit: 2, DistanceCM: 14, Level: presence.LevelEmpty},
			{Unit: 3, Err: "soap 3: presence: echo timeout"},
		},
		Tissue: []presence.TissueReading{{Unit: 1, Available: true}, {Unit: 2}},
		Water:  presence.WaterReading{Detected: true},
		Ammonia: monitor.AmmoniaState{
			PPM:      1.5,
			Score:    2.1785,
			Category: ammonia.Normal,
			Baseline: ammonia.Baseline{R0: 4900, Valid: true},
		},
		Report: "--- Soap Availability ---",
	}
}

type recordingSink struct {
	name string
	err  error

	mu     sync.Mutex
	got    []monitor.Snapshot
	closed bool
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, snap monitor.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, snap)
	return s.err
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func TestFanout(t *testing.T) {
	ok := &recordingSink{name: "ok"}
	failing := &recordingSink{name: "failing", err: errors.New("broker down")}
	f := NewFanout(time.Second, failing, ok)

	for i := 0; i < 3; i++ {
		f.Enqueue(testSnapshot())
	}
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	assert.Len(t, ok.got, 3, "a failing sink must not starve the others")
	assert.Len(t, failing.got, 3)
	assert.True(t, ok.closed)
	assert.True(t, failing.closed)

	// Enqueue after close is dropped silently.
	f.Enqueue(testSnapshot())
	assert.Len(t, ok.got, 3)
}

type fakeKafkaWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeKafkaWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafka_Publish(t *testing.T) {
	w := &fakeKafkaWriter{}
	k := &Kafka{writer: w, topic: "restroom.snapshots"}

	snap := testSnapshot()
	require.NoError(t, k.Publish(context.Background(), snap))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "wc-1", string(msg.Key))
	assert.Equal(t, snap.Timestamp, msg.Time)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "wc-1", decoded["device"])
	amm := decoded["ammonia"].(map[string]any)
	assert.Equal(t, "normal", amm["category"])
	soap := decoded["soap"].([]any)
	assert.Equal(t, "empty", soap[1].(map[string]any)["level"])

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

func TestSnapshotPoint(t *testing.T) {
	p := snapshotPoint(testSnapshot())

	assert.Equal(t, Measurement, p.Name())
	require.Len(t, p.TagList(), 1)
	assert.Equal(t, "device", p.TagList()[0].Key)
	assert.Equal(t, "wc-1", p.TagList()[0].Value)

	fields := map[string]any{}
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	assert.InDelta(t, 1.5, fields["nh3_ppm"], 1e-6)
	assert.Equal(t, int64(2), fields["odor_level"])
	assert.Equal(t, int64(4), fields["soap1_cm"])
	assert.Equal(t, int64(14), fields["soap2_cm"])
	assert.NotContains(t, fields, "soap3_cm")
	assert.Equal(t, int64(1), fields["soap_empty"])
	assert.Equal(t, int64(1), fields["tissue_empty"])
	assert.Equal(t, true, fields["water"])
	assert.Equal(t, false, fields["tissue2"])
}
