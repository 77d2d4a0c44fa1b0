package track

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// Meter name for statement metrics instrumentation
	poolMeterName = "go-dbpool/pool"

	// Metric names following OpenTelemetry semantic conventions
	metricStmtExecutes = "db.client.statement.executes"
	metricStmtDuration = "db.client.statement.duration"
	metricFetchedRows  = "db.client.statement.fetched_rows"

	// Pool-level gauges registered via RegisterPoolMetrics
	metricPoolExecutes    = "db.pool.executes"
	metricPoolErrors      = "db.pool.errors"
	metricPoolConnections = "db.pool.connections"

	metricDbOperation = "db.operation.name"
	metricDbSystem    = "db.system"
)

var (
	// Singleton meter initialization
	poolMeter   metric.Meter
	meterOnce   sync.Once
	meterInitMu sync.Mutex

	// Metric instruments
	stmtExecutesCounter   metric.Int64Counter
	stmtDurationHistogram metric.Float64Histogram
	fetchedRowsHistogram  metric.Int64Histogram
)

// logMetricError logs a metric initialization or registration error to stderr.
// This is a best-effort operation - metrics failures should not break the pool.
func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize metric %s: %v\n", metricName, err)
	}
}

// noOpCleanup returns a no-op cleanup function for use when metric registration fails.
func noOpCleanup() func() {
	return func() {}
}

// initPoolMeter initializes the OpenTelemetry meter and metric instruments.
// This function is called lazily and only once using sync.Once to ensure
// thread-safe initialization.
func initPoolMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	if poolMeter != nil {
		return
	}

	poolMeter = otel.Meter(poolMeterName)

	var err error
	stmtExecutesCounter, err = poolMeter.Int64Counter(
		metricStmtExecutes,
		metric.WithDescription("Total number of statement executions routed through the pool"),
	)
	logMetricError(metricStmtExecutes, err)

	stmtDurationHistogram, err = poolMeter.Float64Histogram(
		metricStmtDuration,
		metric.WithDescription("Duration of statement operations in milliseconds"),
		metric.WithUnit("ms"),
	)
	logMetricError(metricStmtDuration, err)

	fetchedRowsHistogram, err = poolMeter.Int64Histogram(
		metricFetchedRows,
		metric.WithDescription("Rows fetched per result set, reported when the result set closes"),
	)
	logMetricError(metricFetchedRows, err)
}

// getPoolMeter returns the initialized pool meter, initializing it if necessary.
func getPoolMeter() metric.Meter {
	meterOnce.Do(initPoolMeter)
	return poolMeter
}

// recordStatementMetrics records OpenTelemetry metrics for a statement operation.
// This function is called by TrackOperation to emit metrics alongside traces and logs.
// It is non-blocking and handles errors gracefully - metric recording failures
// will not impact statement execution.
func recordStatementMetrics(ctx context.Context, tc *Context, query string, duration time.Duration, rowsAffected int64, err error) {
	meter := getPoolMeter()
	if meter == nil {
		return
	}

	operation := extractDBOperation(query)
	vendor := normalizeDBVendor(tc.Vendor)

	attrs := []attribute.KeyValue{
		attribute.String(metricDbSystem, vendor),
		attribute.String(metricDbOperation, operation),
	}

	if stmtExecutesCounter != nil {
		counterAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
		counterAttrs = append(counterAttrs, attrs...)
		counterAttrs = append(counterAttrs, attribute.Bool("error", err != nil))
		stmtExecutesCounter.Add(ctx, 1, metric.WithAttributes(counterAttrs...))
	}

	if stmtDurationHistogram != nil {
		durationMs := float64(duration.Nanoseconds()) / 1e6
		stmtDurationHistogram.Record(ctx, durationMs, metric.WithAttributes(attrs...))
	}

	_ = rowsAffected // reserved for a per-operation rows counter
}

// RecordFetchedRows reports the number of rows a result set yielded before it
// closed. Called by the tracking layer during result-set close.
func RecordFetchedRows(ctx context.Context, vendor string, rows int) {
	meter := getPoolMeter()
	if meter == nil || fetchedRowsHistogram == nil || rows < 0 {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	fetchedRowsHistogram.Record(ctx, int64(rows), metric.WithAttributes(
		attribute.String(metricDbSystem, normalizeDBVendor(vendor)),
	))
}

// createGauge creates an observable gauge and logs errors without failing.
// Returns the created gauge or nil if creation failed.
func createGauge(meter metric.Meter, name, description string) metric.Int64ObservableGauge {
	gauge, err := meter.Int64ObservableGauge(name, metric.WithDescription(description))
	logMetricError(name, err)
	return gauge
}

// collectInstruments collects non-nil observable instruments into a slice.
func collectInstruments(gauges ...metric.Int64ObservableGauge) []metric.Observable {
	var instruments []metric.Observable
	for _, g := range gauges {
		if g != nil {
			instruments = append(instruments, g)
		}
	}
	return instruments
}

// asInt64 safely converts the numeric values a Stats() map may carry to int64.
func asInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint32:
		return int64(val), true
	case float64:
		return int64(val), true
	default:
		return 0, false
	}
}

// poolMetricsRegistration encapsulates pool metrics gauge state and observation logic.
type poolMetricsRegistration struct {
	pool interface {
		Stats() map[string]any
	}
	executesGauge metric.Int64ObservableGauge
	errorsGauge   metric.Int64ObservableGauge
	connsGauge    metric.Int64ObservableGauge
	attrs         []attribute.KeyValue
}

// observePoolStats reads pool statistics and updates gauges.
// This method is called automatically during metrics collection.
func (r *poolMetricsRegistration) observePoolStats(_ context.Context, observer metric.Observer) error {
	stats := r.pool.Stats()

	if r.executesGauge != nil {
		if v, ok := asInt64(stats["execute_count"]); ok {
			observer.ObserveInt64(r.executesGauge, v, metric.WithAttributes(r.attrs...))
		}
	}
	if r.errorsGauge != nil {
		if v, ok := asInt64(stats["error_count"]); ok {
			observer.ObserveInt64(r.errorsGauge, v, metric.WithAttributes(r.attrs...))
		}
	}
	if r.connsGauge != nil {
		if v, ok := asInt64(stats["connection_count"]); ok {
			observer.ObserveInt64(r.connsGauge, v, metric.WithAttributes(r.attrs...))
		}
	}

	return nil
}

// RegisterPoolMetrics registers ObservableGauges over the pool's usage
// counters. It should be called once per pool during initialization.
//
// The gauges report the pool-wide execute count, normalized error count and
// live connection count from Stats(). Registration uses graceful degradation:
// if any gauge fails to register, the remaining gauges still report.
// Returns a cleanup function that unregisters the callback.
func RegisterPoolMetrics(pool interface {
	Stats() map[string]any
}, vendor string) func() {
	meter := getPoolMeter()
	if meter == nil {
		return noOpCleanup()
	}

	reg := &poolMetricsRegistration{
		pool: pool,
		attrs: []attribute.KeyValue{
			attribute.String(metricDbSystem, normalizeDBVendor(vendor)),
		},
	}

	reg.executesGauge = createGauge(meter, metricPoolExecutes, "Pool-wide statement execute count")
	reg.errorsGauge = createGauge(meter, metricPoolErrors, "Pool-wide normalized driver error count")
	reg.connsGauge = createGauge(meter, metricPoolConnections, "Number of live pooled connections")

	instruments := collectInstruments(reg.executesGauge, reg.errorsGauge, reg.connsGauge)
	if len(instruments) == 0 {
		return noOpCleanup()
	}

	registration, err := meter.RegisterCallback(reg.observePoolStats, instruments...)
	if err != nil {
		logMetricError("pool_metrics_callback", err)
		return noOpCleanup()
	}

	return func() {
		if err := registration.Unregister(); err != nil {
			logMetricError("pool_metrics_unregister", err)
		}
	}
}
