package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	DiariesCreatedTotal      metric.Int64Counter
	StampsRecordedTotal      metric.Int64Counter
	BadgesEarnedTotal        metric.Int64Counter
	LikeTogglesTotal         metric.Int64Counter
	LikeRollbacksTotal       metric.Int64Counter
	UpstreamRequestsTotal    metric.Int64Counter
	UpstreamDurationSeconds  metric.Float64Histogram
	UpstreamFallbacksTotal   metric.Int64Counter
	LLMFallbacksTotal        metric.Int64Counter
	DbQueryErrorsTotal       metric.Int64Counter
	DbTransactionSeconds     metric.Float64Histogram
	RateLimitedRequestsTotal metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

func int64Counter(meter metric.Meter, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

func float64Histogram(meter metric.Meter, name, desc string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return h
}

// InitAppMetrics initializes the instruments once, from the global MeterProvider.
// Call it after the provider is installed so the instruments are exported.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("harunekki")
		appMetrics = &AppMetrics{
			DiariesCreatedTotal:      int64Counter(meter, "diaries_created_total", "Total number of diaries created", "{diary}"),
			StampsRecordedTotal:      int64Counter(meter, "stamps_recorded_total", "Total number of visit stamps recorded", "{stamp}"),
			BadgesEarnedTotal:        int64Counter(meter, "badges_earned_total", "Total number of completed diaries", "{badge}"),
			LikeTogglesTotal:         int64Counter(meter, "like_toggles_total", "Total number of like toggles", "{toggle}"),
			LikeRollbacksTotal:       int64Counter(meter, "like_rollbacks_total", "Optimistic like views restored after a failed write", "{rollback}"),
			UpstreamRequestsTotal:    int64Counter(meter, "upstream_requests_total", "Requests sent to third-party APIs", "{request}"),
			UpstreamDurationSeconds:  float64Histogram(meter, "upstream_request_duration_seconds", "Duration of third-party API requests in seconds"),
			UpstreamFallbacksTotal:   int64Counter(meter, "upstream_fallbacks_total", "Tourism responses served from the local copy", "{fallback}"),
			LLMFallbacksTotal:        int64Counter(meter, "llm_fallbacks_total", "Descriptions served from the fallback template", "{fallback}"),
			DbQueryErrorsTotal:       int64Counter(meter, "db_query_errors_total", "Total number of database query errors", "{error}"),
			DbTransactionSeconds:     float64Histogram(meter, "db_transaction_duration_seconds", "Duration of database transactions in seconds"),
			RateLimitedRequestsTotal: int64Counter(meter, "rate_limited_requests_total", "Requests rejected by the rate limiter", "{request}"),
		}
		log.Println("Application metrics instruments initialized.")
	})
}

// Get returns the instruments, initializing them against the current provider if needed.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
