package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/weather-forecast-service/internal/models"
	"github.com/kjstillabower/weather-forecast-service/internal/traffic"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Recovered handler panics (served as 500).
	PanicsRecoveredTotal prometheus.Counter

	// Forecast batches generated.
	ForecastsGeneratedTotal prometheus.Counter

	// Forecast records by summary label. Watch for: a skewed distribution (broken source).
	ForecastRecordsTotal *prometheus.CounterVec

	// Distribution of generated temperatures.
	ForecastTemperature prometheus.Histogram

	trafficGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	PanicsRecoveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "panicsRecoveredTotal",
			Help: "Total number of handler panics recovered and served as 500",
		},
	)
	ForecastsGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forecastsGeneratedTotal",
			Help: "Total number of forecast batches generated",
		},
	)
	ForecastRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastRecordsTotal",
			Help: "Generated forecast records by summary label",
		},
		[]string{"summary"},
	)
	ForecastTemperature = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecastTemperatureCelsius",
			Help:    "Generated forecast temperatures in degrees Celsius",
			Buckets: prometheus.LinearBuckets(-20, 15, 5),
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		RateLimitDeniedTotal, PanicsRecoveredTotal,
		ForecastsGeneratedTotal, ForecastRecordsTotal, ForecastTemperature,
	)
}

// RegisterTrafficGauges registers load and rejects gauges for the rate-limited path.
// Call from main after config load with cfg.OverloadWindow. Uses same window as health.
func RegisterTrafficGauges(window time.Duration) {
	trafficGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests hitting rate-limited path in sliding window; load/capacity planning",
				},
				func() float64 { return float64(traffic.RequestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window; are we rejecting requests",
				},
				func() float64 { return float64(traffic.DenialCount(window)) },
			),
		)
	})
}

// RecordForecast records one generated batch.
func RecordForecast(batch []models.WeatherForecast) {
	ForecastsGeneratedTotal.Inc()
	for _, rec := range batch {
		ForecastRecordsTotal.WithLabelValues(rec.Summary).Inc()
		ForecastTemperature.Observe(float64(rec.TemperatureC))
	}
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
