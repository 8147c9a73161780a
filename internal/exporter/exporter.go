// Package exporter publishes the latest score report as Prometheus metrics
// and over a small HTTP API while watch mode is running.
package exporter

import (
	"sync"
	"time"

	"codeberg.org/mutker/hwscore/internal/errors"
	"codeberg.org/mutker/hwscore/internal/scoring"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hwscore"

// Latest is the most recent observation served on /score
type Latest struct {
	Reference  string         `json:"reference"`
	ObservedAt time.Time      `json:"observed_at"`
	Report     scoring.Report `json:"report"`
}

type Exporter struct {
	registry *prometheus.Registry

	overall  *prometheus.GaugeVec
	gpu      *prometheus.GaugeVec
	cpu      *prometheus.GaugeVec
	warnings *prometheus.GaugeVec
	runs     *prometheus.CounterVec

	mu     sync.RWMutex
	latest *Latest
}

// New registers the score collectors on a private registry
func New() (*Exporter, error) {
	errFactory := errors.New()
	labels := []string{"reference"}

	e := &Exporter{
		registry: prometheus.NewRegistry(),
		overall: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overall_score",
			Help:      "Overall score relative to the reference, 100 is parity.",
		}, labels),
		gpu: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gpu_score",
			Help:      "GPU score relative to the reference, 100 is parity.",
		}, labels),
		cpu: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_score",
			Help:      "CPU score relative to the reference, 100 is parity.",
		}, labels),
		warnings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "warnings",
			Help:      "Number of compatibility warnings in the latest report.",
		}, labels),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Scoring runs observed since start.",
		}, labels),
	}

	collectors := []prometheus.Collector{e.overall, e.gpu, e.cpu, e.warnings, e.runs}
	for _, c := range collectors {
		if err := e.registry.Register(c); err != nil {
			return nil, errFactory.Wrap(ErrRegisterFailed, err)
		}
	}

	return e, nil
}

// Observe records a report computed against the named reference
func (e *Exporter) Observe(reference string, r scoring.Report) {
	e.overall.WithLabelValues(reference).Set(r.OverallScore)
	e.gpu.WithLabelValues(reference).Set(r.GPUScore)
	e.cpu.WithLabelValues(reference).Set(r.CPUScore)
	e.warnings.WithLabelValues(reference).Set(float64(len(r.Warnings)))
	e.runs.WithLabelValues(reference).Inc()

	e.mu.Lock()
	e.latest = &Latest{
		Reference:  reference,
		ObservedAt: time.Now().UTC(),
		Report:     r.Clone(),
	}
	e.mu.Unlock()
}

// Latest returns the last observation, or false before the first one
func (e *Exporter) Latest() (Latest, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.latest == nil {
		return Latest{}, false
	}

	l := *e.latest
	l.Report = l.Report.Clone()

	return l, true
}

// Registry exposes the private registry to the HTTP handler and tests
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}
