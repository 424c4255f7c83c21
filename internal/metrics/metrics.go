package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every wavbeep metric. It is private so a textfile dump
// contains only conversion metrics, not the Go runtime collectors.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// Counters
var (
	ConversionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "wavbeep_conversions_total",
		Help: "Total conversions by outcome",
	}, []string{"outcome"})
	WindowsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "wavbeep_windows_analyzed_total",
		Help: "Total analysis windows processed",
	})
	EventsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "wavbeep_tone_events_total",
		Help: "Total tone events produced after run-length encoding",
	})
	RenderFailuresTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "wavbeep_render_failures_total",
		Help: "Renderer failures by renderer",
	}, []string{"renderer"})
)

// Gauges
var (
	AnalyzedSeconds = factory.NewGauge(prometheus.GaugeOpts{
		Name: "wavbeep_last_analyzed_seconds",
		Help: "Audio seconds analyzed by the last conversion",
	})
)

// Histograms
var (
	ConversionLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "wavbeep_conversion_duration_ms",
		Help:    "Analysis, quantization and encoding time in milliseconds",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
)

// ObserveConversion records one successful conversion.
func ObserveConversion(windows, events int, analyzedSeconds float64, elapsed time.Duration) {
	ConversionsTotal.WithLabelValues("ok").Inc()
	WindowsTotal.Add(float64(windows))
	EventsTotal.Add(float64(events))
	AnalyzedSeconds.Set(analyzedSeconds)
	ConversionLatency.Observe(float64(elapsed) / float64(time.Millisecond))
}

// ObserveFailure records a conversion that returned no sequence.
func ObserveFailure() {
	ConversionsTotal.WithLabelValues("error").Inc()
}

// ObserveRenderFailure records a failed renderer.
func ObserveRenderFailure(renderer string) {
	RenderFailuresTotal.WithLabelValues(renderer).Inc()
}

// WriteTextfile dumps the registry in the node exporter textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
