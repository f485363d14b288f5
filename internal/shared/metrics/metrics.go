package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
)

var durationBuckets = []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000}

var (
	mu  sync.Mutex
	ops = map[string]*opMetrics{}
)

type opMetrics struct {
	started   uint64
	completed uint64
	failed    uint64
	duration  *histogram
}

func forOp(op string) *opMetrics {
	m, ok := ops[op]
	if !ok {
		m = &opMetrics{duration: newHistogram(durationBuckets)}
		ops[op] = m
	}
	return m
}

// IncGenerationStarted increments the started counter for a gateway operation.
func IncGenerationStarted(op string) {
	mu.Lock()
	forOp(op).started++
	mu.Unlock()
}

// IncGenerationCompleted increments the completed counter for a gateway operation.
func IncGenerationCompleted(op string) {
	mu.Lock()
	forOp(op).completed++
	mu.Unlock()
}

// IncGenerationFailed increments the failed counter for a gateway operation.
func IncGenerationFailed(op string) {
	mu.Lock()
	forOp(op).failed++
	mu.Unlock()
}

// ObserveGenerationDurationMs records a provider round-trip in milliseconds.
func ObserveGenerationDurationMs(op string, value float64) {
	if value < 0 {
		value = 0
	}
	mu.Lock()
	h := forOp(op).duration
	mu.Unlock()
	h.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	mu.Lock()
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	type row struct {
		op                         string
		started, completed, failed uint64
		snap                       histogramSnapshot
	}
	rows := make([]row, 0, len(names))
	for _, name := range names {
		m := ops[name]
		rows = append(rows, row{op: name, started: m.started, completed: m.completed, failed: m.failed, snap: m.duration.Snapshot()})
	}
	mu.Unlock()

	var buf bytes.Buffer
	writeHeader(&buf, "generation_started_total", "Total generation calls started", "counter")
	for _, r := range rows {
		fmt.Fprintf(&buf, "generation_started_total{op=%q} %d\n", r.op, r.started)
	}
	writeHeader(&buf, "generation_completed_total", "Total generation calls completed", "counter")
	for _, r := range rows {
		fmt.Fprintf(&buf, "generation_completed_total{op=%q} %d\n", r.op, r.completed)
	}
	writeHeader(&buf, "generation_failed_total", "Total generation calls failed", "counter")
	for _, r := range rows {
		fmt.Fprintf(&buf, "generation_failed_total{op=%q} %d\n", r.op, r.failed)
	}
	writeHeader(&buf, "generation_duration_ms", "Generation duration in milliseconds", "histogram")
	for _, r := range rows {
		writeHistogram(&buf, "generation_duration_ms", r.op, r.snap)
	}
	return buf.String()
}

func reset() {
	mu.Lock()
	ops = map[string]*opMetrics{}
	mu.Unlock()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeHeader(buf *bytes.Buffer, name, help, kind string) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s %s\n", name, kind)
}

// Bucket counts are already cumulative: Observe increments every bucket whose
// bound is >= the value.
func writeHistogram(buf *bytes.Buffer, name, op string, snap histogramSnapshot) {
	for i, bound := range snap.buckets {
		fmt.Fprintf(buf, "%s_bucket{op=%q,le=\"%s\"} %d\n", name, op, formatFloat(bound), snap.counts[i])
	}
	fmt.Fprintf(buf, "%s_bucket{op=%q,le=\"+Inf\"} %d\n", name, op, snap.count)
	fmt.Fprintf(buf, "%s_sum{op=%q} %s\n", name, op, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count{op=%q} %d\n", name, op, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
