// Package metrics exports monitor state as Prometheus gauges.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itohio/restroom/pkg/monitor"
	"github.com/itohio/restroom/pkg/presence"
)

type Metrics struct {
	registry *prometheus.Registry

	nh3PPM       *prometheus.GaugeVec
	odorScore    *prometheus.GaugeVec
	odorLevel    *prometheus.GaugeVec
	calibrating  *prometheus.GaugeVec
	baseline     *prometheus.GaugeVec
	soapDistance *prometheus.GaugeVec
	soapEmpty    *prometheus.GaugeVec
	tissue       *prometheus.GaugeVec
	water        *prometheus.GaugeVec
	snapshots    *prometheus.CounterVec

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	cbState           *prometheus.GaugeVec
}

// New creates metrics on a private registry that also carries the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		nh3PPM: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "restroom_nh3_ppm",
			Help: "Averaged ammonia concentration.",
		}, []string{"device"}),
		odorScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "restroom_odor_score",
			Help: "Raw odor regression score.",
		}, []string{"device"}),
		odorLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "restroom_odor_level",
			Help: "Odor category (1 good, 2 normal, 3 critical).",
		}, []string{"device"}),
		calibrating: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "restroom_gas_calibrating",
			Help: "1 while the gas sensor baseline is being calibrated.",
		}, []string{"device"}),
		baseline: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "restroom_gas_baseline_ohms",
			Help: "Clean air sensor resistance R0, 0 when invalid.",
		}, []string{"device"}),
		soapDistance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "restroom_soap_distance_cm",
			Help: "Distance from the ranger to the soap surface.",
		}, []string{"device", "unit"}),
		soapEmpty: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "restroom_soap_empty",
			Help: "1 when the soap unit is empty.",
		}, []string{"device", "unit"}),
		tissue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "restroom_tissue_available",
			Help: "1 when the tissue holder is loaded.",
		}, []string{"device", "unit"}),
		water: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "restroom_water_detected",
			Help: "1 when standing water is detected.",
		}, []string{"device"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "restroom_snapshots_total",
			Help: "Total snapshots taken.",
		}, []string{"device"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		cbState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cb_state",
			Help: "Circuit breaker state gauge (0 closed, 1 half, 2 open).",
		}, []string{"target"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.nh3PPM,
		m.odorScore,
		m.odorLevel,
		m.calibrating,
		m.baseline,
		m.soapDistance,
		m.soapEmpty,
		m.tissue,
		m.water,
		m.snapshots,
		m.httpRequestsTotal,
		m.httpDuration,
		m.cbState,
	)

	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Observe updates every gauge from s. It has the signature of a
// monitor.Station update callback.
func (m *Metrics) Observe(s monitor.Snapshot) {
	if m == nil {
		return
	}
	d := s.Device
	m.snapshots.WithLabelValues(d).Inc()
	m.nh3PPM.WithLabelValues(d).Set(float64(s.Ammonia.PPM))
	m.odorScore.WithLabelValues(d).Set(float64(s.Ammonia.Score))
	m.odorLevel.WithLabelValues(d).Set(float64(s.Ammonia.Category))
	m.calibrating.WithLabelValues(d).Set(b2f(s.Ammonia.Calibrating))
	r0 := 0.0
	if s.Ammonia.Baseline.Valid {
		r0 = float64(s.Ammonia.Baseline.R0)
	}
	m.baseline.WithLabelValues(d).Set(r0)

	for _, r := range s.Soap {
		unit := strconv.Itoa(r.Unit)
		if r.Err == "" {
			m.soapDistance.WithLabelValues(d, unit).Set(float64(r.DistanceCM))
		} else {
			m.soapDistance.DeleteLabelValues(d, unit)
		}
		m.soapEmpty.WithLabelValues(d, unit).Set(b2f(r.Level == presence.LevelEmpty))
	}
	for _, r := range s.Tissue {
		m.tissue.WithLabelValues(d, strconv.Itoa(r.Unit)).Set(b2f(r.Available))
	}
	m.water.WithLabelValues(d).Set(b2f(s.Water.Detected))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		duration := time.Since(start).Seconds()
		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(duration)
		}
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SetCircuitBreakerState(target string, state float64) {
	if m == nil {
		return
	}
	m.cbState.WithLabelValues(target).Set(state)
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
