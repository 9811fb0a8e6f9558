// Package metrics is a small Prometheus-compatible metrics collector. It
// writes the text exposition format without pulling in client_golang.
package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates counters, gauges and histograms.
type Collector struct {
	counters   sync.Map // key -> *Counter
	gauges     sync.Map // key -> *Gauge
	histograms sync.Map // key -> *Histogram
	startTime  time.Time
}

// New creates an empty collector.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// Uptime returns how long the collector has been running.
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name   string
	help   string
	labels string
	value  atomic.Int64
}

func (c *Counter) Inc()         { c.value.Add(1) }
func (c *Counter) Value() int64 { return c.value.Load() }

// Gauge is a value that can go up and down.
type Gauge struct {
	name   string
	help   string
	labels string
	value  atomic.Int64
}

func (g *Gauge) Set(v int64)  { g.value.Store(v) }
func (g *Gauge) Inc()         { g.value.Add(1) }
func (g *Gauge) Dec()         { g.value.Add(-1) }
func (g *Gauge) Value() int64 { return g.value.Load() }

// Histogram tracks the distribution of observed values.
type Histogram struct {
	name    string
	help    string
	labels  string
	mu      sync.Mutex
	count   int64
	sum     float64
	buckets []histBucket
}

type histBucket struct {
	le    float64
	count int64
}

// Observe records v.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += v
	for i := range h.buckets {
		if v <= h.buckets[i].le {
			h.buckets[i].count++
		}
	}
}

// Count returns the number of observations.
func (h *Histogram) Count() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func metricKey(name, labels string) string { return name + "{" + labels + "}" }

// Counter returns or creates the counter name{labels}.
func (c *Collector) Counter(name, help, labels string) *Counter {
	key := metricKey(name, labels)
	if v, ok := c.counters.Load(key); ok {
		return v.(*Counter)
	}
	actual, _ := c.counters.LoadOrStore(key, &Counter{name: name, help: help, labels: labels})
	return actual.(*Counter)
}

// Gauge returns or creates the gauge name{labels}.
func (c *Collector) Gauge(name, help, labels string) *Gauge {
	key := metricKey(name, labels)
	if v, ok := c.gauges.Load(key); ok {
		return v.(*Gauge)
	}
	actual, _ := c.gauges.LoadOrStore(key, &Gauge{name: name, help: help, labels: labels})
	return actual.(*Gauge)
}

// Histogram returns or creates the histogram name{labels}.
func (c *Collector) Histogram(name, help, labels string, buckets []float64) *Histogram {
	key := metricKey(name, labels)
	if v, ok := c.histograms.Load(key); ok {
		return v.(*Histogram)
	}
	bs := append([]float64(nil), buckets...)
	sort.Float64s(bs)
	hb := make([]histBucket, len(bs))
	for i, b := range bs {
		hb[i] = histBucket{le: b}
	}
	actual, _ := c.histograms.LoadOrStore(key, &Histogram{name: name, help: help, labels: labels, buckets: hb})
	return actual.(*Histogram)
}

// sortedKeys returns the keys of m in lexical order so the exposition is stable.
func sortedKeys(m *sync.Map) []string {
	var keys []string
	m.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}

// WriteText renders every metric in Prometheus text format.
func (c *Collector) WriteText(sb *strings.Builder) {
	fmt.Fprintf(sb, "# HELP chatwidget_uptime_seconds Time since start in seconds\n")
	fmt.Fprintf(sb, "# TYPE chatwidget_uptime_seconds gauge\n")
	fmt.Fprintf(sb, "chatwidget_uptime_seconds %d\n\n", int64(c.Uptime().Seconds()))

	helpWritten := make(map[string]bool)
	for _, key := range sortedKeys(&c.counters) {
		v, _ := c.counters.Load(key)
		ctr := v.(*Counter)
		if !helpWritten[ctr.name] {
			fmt.Fprintf(sb, "# HELP %s %s\n", ctr.name, ctr.help)
			fmt.Fprintf(sb, "# TYPE %s counter\n", ctr.name)
			helpWritten[ctr.name] = true
		}
		writeSample(sb, ctr.name, ctr.labels, ctr.Value())
	}

	helpWritten = make(map[string]bool)
	for _, key := range sortedKeys(&c.gauges) {
		v, _ := c.gauges.Load(key)
		g := v.(*Gauge)
		if !helpWritten[g.name] {
			fmt.Fprintf(sb, "# HELP %s %s\n", g.name, g.help)
			fmt.Fprintf(sb, "# TYPE %s gauge\n", g.name)
			helpWritten[g.name] = true
		}
		writeSample(sb, g.name, g.labels, g.Value())
	}

	for _, key := range sortedKeys(&c.histograms) {
		v, _ := c.histograms.Load(key)
		h := v.(*Histogram)
		h.mu.Lock()
		fmt.Fprintf(sb, "# HELP %s %s\n", h.name, h.help)
		fmt.Fprintf(sb, "# TYPE %s histogram\n", h.name)
		prefix := h.name + "_bucket{"
		if h.labels != "" {
			prefix += h.labels + ","
		}
		for _, b := range h.buckets {
			le := fmt.Sprintf("%g", b.le)
			if math.IsInf(b.le, 1) {
				le = "+Inf"
			}
			fmt.Fprintf(sb, "%sle=\"%s\"} %d\n", prefix, le, b.count)
		}
		fmt.Fprintf(sb, "%sle=\"+Inf\"} %d\n", prefix, h.count)
		writeSample(sb, h.name+"_count", h.labels, h.count)
		if h.labels != "" {
			fmt.Fprintf(sb, "%s_sum{%s} %f\n", h.name, h.labels, h.sum)
		} else {
			fmt.Fprintf(sb, "%s_sum %f\n", h.name, h.sum)
		}
		h.mu.Unlock()
	}
}

func writeSample(sb *strings.Builder, name, labels string, v int64) {
	if labels != "" {
		fmt.Fprintf(sb, "%s{%s} %d\n", name, labels, v)
		return
	}
	fmt.Fprintf(sb, "%s %d\n", name, v)
}

// Handler serves the collector in Prometheus text format.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		var sb strings.Builder
		c.WriteText(&sb)
		fmt.Fprint(w, sb.String())
	}
}
