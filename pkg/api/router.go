// Package api serves the monitor state over HTTP.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/itohio/restroom/pkg/metrics"
	"github.com/itohio/restroom/pkg/monitor"
)

// Source is the part of monitor.Station the API reads from.
type Source interface {
	Last() (monitor.Snapshot, bool)
	Report() string
	RequestCalibration() bool
	History() *monitor.History
}

var _ Source = (*monitor.Station)(nil)

const maxHistoryPoints = 1000

type handlers struct {
	src Source
}

// NewRouter registers the API routes. m may be nil, which disables /metrics.
func NewRouter(src Source, m *metrics.Metrics) *mux.Router {
	h := &handlers{src: src}
	r := mux.NewRouter()

	route := func(path string, fn http.HandlerFunc, method string) {
		var handler http.Handler = fn
		if m != nil {
			handler = m.WrapHandler(path, handler)
		}
		r.Handle(path, handler).Methods(method)
	}

	route("/healthz", h.health, http.MethodGet)
	route("/api/v1/snapshot", h.snapshot, http.MethodGet)
	route("/api/v1/report", h.report, http.MethodGet)
	route("/api/v1/history", h.history, http.MethodGet)
	route("/api/v1/calibrate", h.calibrate, http.MethodPost)
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	return r
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) snapshot(w http.ResponseWriter, _ *http.Request) {
	snap, ok := h.src.Last()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handlers) report(w http.ResponseWriter, _ *http.Request) {
	text := h.src.Report()
	if text == "" {
		writeError(w, http.StatusServiceUnavailable, "no report yet")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	points := 0
	if v := r.URL.Query().Get("points"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "points must be a non-negative integer")
			return
		}
		points = n
	}
	if points == 0 || points > maxHistoryPoints {
		points = maxHistoryPoints
	}
	writeJSON(w, http.StatusOK, h.src.History().Points(points))
}

func (h *handlers) calibrate(w http.ResponseWriter, _ *http.Request) {
	if !h.src.RequestCalibration() {
		writeError(w, http.StatusConflict, "calibration already requested")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "calibration requested"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
