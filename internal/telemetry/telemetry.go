// Package telemetry records pipeline activity as prometheus metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives pipeline events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	FileOpened(blocks, bad int, mapped int64)
	ChunkProcessed()
	QueryCompleted(outcome Outcome, took time.Duration)
	Leftover(axis Axis, samples int)
}

// Outcome of a query.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeEmpty Outcome = "empty"
	OutcomeError Outcome = "error"
)

// Axis of a cube.
type Axis string

const (
	AxisTime      Axis = "time"
	AxisFrequency Axis = "frequency"
)

// Nop discards every event.
type Nop struct{}

func (Nop) FileOpened(int, int, int64)            {}
func (Nop) ChunkProcessed()                       {}
func (Nop) QueryCompleted(Outcome, time.Duration) {}
func (Nop) Leftover(Axis, int)                    {}

const namespace = "spectra"

// Metrics is a Recorder backed by prometheus collectors.
type Metrics struct {
	files    prometheus.Counter
	blocks   *prometheus.CounterVec
	mapped   prometheus.Counter
	chunks   prometheus.Counter
	queries  *prometheus.CounterVec
	duration prometheus.Histogram
	leftover *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		files: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_opened_total",
			Help:      "Number of block files opened.",
		}),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_total",
			Help:      "Number of blocks read, by validity.",
		}, []string{"state"}),
		mapped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mapped_bytes_total",
			Help:      "Number of bytes memory mapped.",
		}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_processed_total",
			Help:      "Number of cube chunks evaluated.",
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Number of queries, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Time spent materializing a query.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		leftover: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leftover_samples_total",
			Help:      "Number of samples dropped by averaging, by axis.",
		}, []string{"axis"}),
	}

	for _, c := range []prometheus.Collector{m.files, m.blocks, m.mapped, m.chunks, m.queries, m.duration, m.leftover} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) FileOpened(blocks, bad int, mapped int64) {
	m.files.Inc()
	m.blocks.WithLabelValues("good").Add(float64(blocks - bad))
	m.blocks.WithLabelValues("bad").Add(float64(bad))
	m.mapped.Add(float64(mapped))
}

func (m *Metrics) ChunkProcessed() {
	m.chunks.Inc()
}

func (m *Metrics) QueryCompleted(outcome Outcome, took time.Duration) {
	m.queries.WithLabelValues(string(outcome)).Inc()
	m.duration.Observe(took.Seconds())
}

func (m *Metrics) Leftover(axis Axis, samples int) {
	m.leftover.WithLabelValues(string(axis)).Add(float64(samples))
}

// WriteTextfile writes the metrics gathered by g in the node exporter
// textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
