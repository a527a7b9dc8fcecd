package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "radiation_live"

// Metrics holds the collectors for one process on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	fetches      *prometheus.CounterVec
	measurements *prometheus.CounterVec
	placemarks   prometheus.Gauge
	lastSuccess  prometheus.Gauge
	runDur       prometheus.Summary
}

func New() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}
	m.fetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_requests_total",
		Help:      "Measurement API requests by region and outcome",
	}, []string{"region", "status"})
	m.measurements = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "measurements_total",
		Help:      "Measurement records received by region",
	}, []string{"region"})
	m.placemarks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "placemarks",
		Help:      "Placemarks in the last written document",
	})
	m.lastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last run that wrote a document",
	})
	m.runDur = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Time spent on a full fetch and render cycle",
	})
	m.Registry.MustRegister(m.fetches, m.measurements, m.placemarks, m.lastSuccess, m.runDur)
	return m
}

func (m *Metrics) ObserveFetch(region string, records int, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.fetches.WithLabelValues(region, status).Inc()
	m.measurements.WithLabelValues(region).Add(float64(records))
}

func (m *Metrics) ObserveRun(d time.Duration, placemarks int, written bool) {
	m.runDur.Observe(d.Seconds())
	if written {
		m.placemarks.Set(float64(placemarks))
		m.lastSuccess.Set(float64(time.Now().Unix()))
	}
}

// WriteTextfile writes the registry in text exposition format for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Dump returns a human-readable snapshot of counters and gauges (for logging).
func (m *Metrics) Dump() string {
	mfs, err := m.Registry.Gather()
	if err != nil {
		return ""
	}
	var out []string
	for _, mf := range mfs {
		for _, mt := range mf.GetMetric() {
			var v float64
			switch {
			case mt.GetCounter() != nil:
				v = mt.GetCounter().GetValue()
			case mt.GetGauge() != nil:
				v = mt.GetGauge().GetValue()
			default:
				continue
			}
			lbls := make([]string, 0, len(mt.GetLabel()))
			for _, lp := range mt.GetLabel() {
				lbls = append(lbls, lp.GetName()+"="+lp.GetValue())
			}
			out = append(out, fmt.Sprintf("%s{%s} %g", mf.GetName(), strings.Join(lbls, ","), v))
		}
	}
	sort.Strings(out)
	return strings.Join(out, "\n")
}
