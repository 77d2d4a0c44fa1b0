package track

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/go-dbpool/logger"
)

const (
	// Default operation type for unidentified queries
	defaultOperation = "query"

	// Database vendor normalization constants
	dbVendorPostgreSQL = "postgresql"
	dbVendorOracle     = "oracle"
	dbVendorMySQL      = "mysql"
	dbVendorSQLite     = "sqlite"

	// OpenTelemetry instrumentation constants
	dbTracerName      = "go-dbpool/pool" // Tracer name for statement operations
	maxDBQueryAttrLen = 2000             // Maximum length for db.query.text attribute
)

// TrackOperation records metrics and emits a log event for a completed
// statement operation.
//
// TrackOperation is a no-op if tc or its Logger is nil. It records the
// operation's duration to request-scoped counters, clamps the query string to
// the configured maximum length, and emits an OpenTelemetry span and metrics.
// If err is non-nil the error is logged; if there is no error and the
// duration exceeds the configured slow-query threshold a warning is emitted,
// otherwise a debug message is emitted.
//
// The rowsAffected parameter represents the number of rows affected by write
// operations. For read operations, pass 0.
func TrackOperation(ctx context.Context, tc *Context, query string, start time.Time, rowsAffected int64, err error) {
	// Guard against nil tracking context or logger with no-op default
	if tc == nil || tc.Logger == nil {
		return
	}

	elapsed := time.Since(start)

	// Increment statement operation counter for request tracking
	if ctx != nil {
		logger.IncrementDBCounter(ctx)
		logger.AddDBElapsed(ctx, elapsed.Nanoseconds())
	}

	if ctx != nil {
		createStatementSpan(ctx, tc, query, start, err)
		recordStatementMetrics(ctx, tc, query, elapsed, rowsAffected, err)
	}

	// Truncate query string to safe max length to avoid unbounded payloads
	truncatedQuery := query
	if tc.Settings.MaxQueryLength() > 0 && len(query) > tc.Settings.MaxQueryLength() {
		truncatedQuery = TruncateString(query, tc.Settings.MaxQueryLength())
	}

	logEvent := tc.Logger.WithContext(ctx).WithFields(map[string]any{
		"vendor":      tc.Vendor,
		"duration_ms": elapsed.Milliseconds(),
		"duration_ns": elapsed.Nanoseconds(),
		"query":       truncatedQuery,
	})

	if err != nil {
		logEvent.Error().Err(err).Msg("Statement operation error")
	} else if elapsed > tc.Settings.SlowQueryThreshold() {
		logEvent.Warn().Msgf("Slow statement operation detected (%s)", elapsed)
	} else {
		logEvent.Debug().Msg("Statement operation executed")
	}
}

// TruncateString truncates value to at most maxLen runes, adding "..." when
// space allows to indicate truncation.
//
// If maxLen <= 0 the original value is returned unchanged. If the string's
// rune count is less than or equal to maxLen the original value is returned.
// When maxLen <= 3 the function returns the first maxLen runes without an
// ellipsis. Multi-byte characters are handled safely by operating on runes.
func TruncateString(value string, maxLen int) string {
	if maxLen <= 0 {
		return value
	}
	r := []rune(value)
	if len(r) <= maxLen {
		return value
	}
	// Handle multi-byte characters correctly
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// SanitizeBatch returns a sanitized copy of the recorded batch SQL suitable
// for logging. Each entry is truncated to maxLen runes using TruncateString.
// If batch is empty it returns nil. The returned slice has the same length
// and element order as the input.
func SanitizeBatch(batch []string, maxLen int) []string {
	if len(batch) == 0 {
		return nil
	}
	sanitized := make([]string, len(batch))
	for i, sql := range batch {
		sanitized[i] = TruncateString(sql, maxLen)
	}
	return sanitized
}

// createStatementSpan creates an OpenTelemetry span for a statement operation.
// It adds standard database semantic attributes and records errors.
// The span uses the exact operation start time for accurate distributed tracing.
func createStatementSpan(ctx context.Context, tc *Context, query string, start time.Time, err error) {
	tracer := otel.Tracer(dbTracerName)

	operation := extractDBOperation(query)
	spanName := fmt.Sprintf("db.%s", operation)

	_, span := tracer.Start(ctx, spanName,
		trace.WithTimestamp(start),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	// Truncate query for safety (span attributes should be reasonable size)
	truncatedQuery := query
	if len(query) > maxDBQueryAttrLen {
		truncatedQuery = TruncateString(query, maxDBQueryAttrLen)
	}

	attrs := []attribute.KeyValue{
		attribute.String("db.system", normalizeDBVendor(tc.Vendor)),
		semconv.DBQueryText(truncatedQuery),
	}

	if operation != defaultOperation {
		attrs = append(attrs, semconv.DBOperationName(operation))
	}

	span.SetAttributes(attrs...)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

// extractDBOperation extracts the operation type from a SQL query.
// Returns lowercase operation name (select, insert, update, delete, etc.)
func extractDBOperation(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return defaultOperation
	}

	// Handle operation labels added by the tracking layer
	if strings.HasPrefix(query, "BATCH") {
		return "batch"
	}

	parts := strings.Fields(query)
	if len(parts) == 0 {
		return defaultOperation
	}

	operation := strings.ToLower(parts[0])
	switch operation {
	case "select", "insert", "update", "delete", "create", "drop", "alter", "truncate":
		return operation
	default:
		return defaultOperation
	}
}

// normalizeDBVendor normalizes the database vendor name to match OTel semantic conventions.
func normalizeDBVendor(vendor string) string {
	vendor = strings.ToLower(vendor)
	switch vendor {
	case "postgres", dbVendorPostgreSQL:
		return dbVendorPostgreSQL
	case dbVendorOracle:
		return dbVendorOracle
	case dbVendorMySQL:
		return dbVendorMySQL
	case dbVendorSQLite, "sqlite3":
		return dbVendorSQLite
	default:
		return vendor
	}
}
