package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Sample is a point-in-time value for a counter or gauge series.
type Sample struct {
	Name      string            `json:"name"`
	Kind      string            `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	Help      string            `json:"description,omitempty"`
	UpdatedAt time.Time         `json:"last_update"`
}

// Timing aggregates duration measurements for one series.
type Timing struct {
	Count   int64   `json:"count"`
	TotalMs float64 `json:"sum_ms"`
	MinMs   float64 `json:"min_ms"`
	MaxMs   float64 `json:"max_ms"`
	AvgMs   float64 `json:"avg_ms"`
}

// Registry collects in-process metrics. Series are keyed by name plus a
// stable rendering of their labels.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*Sample
	gauges   map[string]*Sample
	timings  map[string]*Timing
	started  time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		counters: map[string]*Sample{},
		gauges:   map[string]*Sample{},
		timings:  map[string]*Timing{},
		started:  time.Now(),
	}
}

var std = NewRegistry()

// IncrementCounter adds one to a counter series.
func (r *Registry) IncrementCounter(name string, labels map[string]string, help string) {
	r.AddToCounter(name, 1, labels, help)
}

// AddToCounter adds value to a counter series, creating it on first use.
func (r *Registry) AddToCounter(name string, value float64, labels map[string]string, help string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := seriesKey(name, labels)
	s, ok := r.counters[key]
	if !ok {
		s = &Sample{Name: name, Kind: "counter", Labels: cloneLabels(labels), Help: help}
		r.counters[key] = s
	}
	s.Value += value
	s.UpdatedAt = time.Now()
}

// RecordTimer folds one duration into a timing series.
func (r *Registry) RecordTimer(name string, d time.Duration, labels map[string]string) {
	ms := float64(d.Nanoseconds()) / 1e6

	r.mu.Lock()
	defer r.mu.Unlock()

	key := seriesKey(name, labels)
	t, ok := r.timings[key]
	if !ok {
		r.timings[key] = &Timing{Count: 1, TotalMs: ms, MinMs: ms, MaxMs: ms, AvgMs: ms}
		return
	}
	t.Count++
	t.TotalMs += ms
	if ms < t.MinMs {
		t.MinMs = ms
	}
	if ms > t.MaxMs {
		t.MaxMs = ms
	}
	t.AvgMs = t.TotalMs / float64(t.Count)
}

// SetGauge overwrites a gauge series with the given value.
func (r *Registry) SetGauge(name string, value float64, labels map[string]string, help string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gauges[seriesKey(name, labels)] = &Sample{
		Name:      name,
		Kind:      "gauge",
		Value:     value,
		Labels:    cloneLabels(labels),
		Help:      help,
		UpdatedAt: time.Now(),
	}
}

// GetAllMetrics snapshots every series plus registry uptime.
func (r *Registry) GetAllMetrics() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counters := make(map[string]*Sample, len(r.counters))
	for k, v := range r.counters {
		counters[k] = v
	}
	gauges := make(map[string]*Sample, len(r.gauges))
	for k, v := range r.gauges {
		gauges[k] = v
	}
	timings := make(map[string]*Timing, len(r.timings))
	for k, v := range r.timings {
		timings[k] = v
	}

	return map[string]interface{}{
		"counters":  counters,
		"gauges":    gauges,
		"timers":    timings,
		"uptime_ms": time.Since(r.started).Milliseconds(),
		"timestamp": time.Now().Unix(),
	}
}

// seriesKey renders labels in sorted order so the same label set always maps
// to the same series.
func seriesKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	for _, k := range keys {
		b.WriteByte('_')
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(labels[k])
	}
	return b.String()
}

func cloneLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

// Package-level helpers record against a shared default registry.

func IncrementCounter(name string, labels map[string]string, help string) {
	std.IncrementCounter(name, labels, help)
}

func AddToCounter(name string, value float64, labels map[string]string, help string) {
	std.AddToCounter(name, value, labels, help)
}

func RecordTimer(name string, d time.Duration, labels map[string]string) {
	std.RecordTimer(name, d, labels)
}

func SetGauge(name string, value float64, labels map[string]string, help string) {
	std.SetGauge(name, value, labels, help)
}

func GetAllMetrics() map[string]interface{} {
	return std.GetAllMetrics()
}
