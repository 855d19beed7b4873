package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evanofslack/zone-update/provider"
)

const namespace = "zone_update"

// Metrics is safe to use as a nil pointer, every method is then a no-op.
type Metrics struct {
	registry       *prometheus.Registry
	syncRuns       *prometheus.CounterVec // total syncs
	syncDuration   prometheus.Histogram   // time to sync
	dnsOperations  *prometheus.CounterVec // planned record changes
	dnsRequests    *prometheus.CounterVec // dns provider requests
	sourceRecords  prometheus.Gauge       // desired records
	sourceRequests *prometheus.CounterVec // remote inventory requests
	badgerRequests *prometheus.CounterVec // badgerdb requests
	jobs           *prometheus.CounterVec // async jobs, admitted or rejected
}

func (m *Metrics) IncSyncRun(success bool) {
	if m == nil {
		return
	}
	m.syncRuns.WithLabelValues(boolToResult(success)).Inc()
}

func (m *Metrics) SetSyncDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.syncDuration.Observe(duration.Seconds())
}

func (m *Metrics) IncDNSOperation(operation, zone, recordType string) {
	if m == nil {
		return
	}
	if !isValidOperation(operation) || !isValidRecordType(recordType) || zone == "" {
		return
	}
	m.dnsOperations.WithLabelValues(operation, zone, recordType).Inc()
}

func (m *Metrics) IncDNSRequest(operation, zone string, success bool) {
	if m == nil {
		return
	}
	if !isValidOperation(operation) || zone == "" {
		return
	}
	m.dnsRequests.WithLabelValues(operation, zone, boolToResult(success)).Inc()
}

func (m *Metrics) SetSourceRecords(count int) {
	if m == nil {
		return
	}
	m.sourceRecords.Set(float64(count))
}

func (m *Metrics) IncSourceRequest(success bool, code int) {
	if m == nil {
		return
	}
	m.sourceRequests.WithLabelValues(boolToResult(success), strconv.Itoa(code)).Inc()
}

func (m *Metrics) IncBadgerRequest(operation string, success bool) {
	if m == nil {
		return
	}
	if !isValidOperation(operation) {
		return
	}
	m.badgerRequests.WithLabelValues(operation, boolToResult(success)).Inc()
}

func (m *Metrics) IncJob(admitted bool) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(boolToResult(admitted)).Inc()
}

func boolToResult(b bool) string {
	if b {
		return "success"
	}
	return "failure"
}

func isValidOperation(op string) bool {
	switch op {
	case "create", "read", "update", "delete", "skip":
		return true
	}
	return false
}

func isValidRecordType(rt string) bool {
	t, err := provider.ParseRecordType(rt)
	return err == nil && t.Known()
}

func counter(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
}

func New(register bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		syncRuns: counter("sync_runs_total", "Total number of synchronization runs", "status"),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of synchronization runs in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		dnsOperations: counter("dns_operations_total", "Total record changes planned by the sync engine", "operation", "zone", "type"),
		dnsRequests:   counter("dns_requests_total", "Total DNS provider requests", "operation", "zone", "status"),
		sourceRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_records_current",
			Help:      "Current desired records",
		}),
		sourceRequests: counter("source_requests_total", "Total remote inventory requests", "status", "code"),
		badgerRequests: counter("badgerdb_requests_total", "Total badgerdb requests", "operation", "status"),
		jobs:           counter("async_jobs_total", "Total provider calls offered to the async bridge", "status"),
	}

	if register {
		m.registry.MustRegister(
			m.syncRuns,
			m.syncDuration,
			m.dnsOperations,
			m.dnsRequests,
			m.sourceRecords,
			m.sourceRequests,
			m.badgerRequests,
			m.jobs,
		)
	}
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
