package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/restroom/pkg/ammonia"
	"github.com/itohio/restroom/pkg/monitor"
	"github.com/itohio/restroom/pkg/presence"
)

func TestObserve(t *testing.T) {
	m := New()
	snap := monitor.Snapshot{
		Device: "wc-1",
		Soap: []presence.SoapReading{
			{Unit: 1, DistanceCM: 4, Level: presence.LevelAvailable},
			{Unit: 2, DistanceCM: 22, Level: presence.LevelEmpty},
		},
		Tissue: []presence.TissueReading{{Unit: 1, Available: true}},
		Water:  presence.WaterReading{Detected: true},
		Ammonia: monitor.AmmoniaState{
			PPM:      0.75,
			Category: ammonia.Normal,
			Baseline: ammonia.Baseline{R0: 4800, Valid: true},
		},
	}
	m.Observe(snap)
	m.Observe(snap)

	assert.Equal(t, 0.75, testutil.ToFloat64(m.nh3PPM.WithLabelValues("wc-1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.odorLevel.WithLabelValues("wc-1")))
	assert.Equal(t, 4800.0, testutil.ToFloat64(m.baseline.WithLabelValues("wc-1")))
	assert.Equal(t, 22.0, testutil.ToFloat64(m.soapDistance.WithLabelValues("wc-1", "2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.soapEmpty.WithLabelValues("wc-1", "2")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.soapEmpty.WithLabelValues("wc-1", "1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.water.WithLabelValues("wc-1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.snapshots.WithLabelValues("wc-1")))

	// A unit losing its echo drops the stale distance series.
	snap.Soap[1] = presence.SoapReading{Unit: 2, Err: "timeout"}
	m.Observe(snap)
	assert.Equal(t, 1, testutil.CollectAndCount(m.soapDistance))
}

func TestHandler(t *testing.T) {
	m := New()
	m.SetCircuitBreakerState("telegram", 2)

	wrapped := m.WrapHandler("/metrics", m.Handler())
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `cb_state{target="telegram"} 2`))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/metrics", "200")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Observe(monitor.Snapshot{})
	m.SetCircuitBreakerState("x", 1)
}
