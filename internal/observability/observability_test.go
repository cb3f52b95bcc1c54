package observability

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestLogger_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "dev")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	log.DebugContext(ctx, "hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "hello", rec["msg"])
	require.Equal(t, "dev", rec["env"])
	require.Equal(t, traceID.String(), rec["trace_id"])
	require.Equal(t, spanID.String(), rec["span_id"])
}

func TestLogger_InfoLevelOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "prod")

	log.Debug("hidden")
	require.Zero(t, buf.Len())

	log.Info("shown")
	require.Contains(t, buf.String(), "shown")
	require.NotContains(t, buf.String(), "trace_id")
}

func TestObserveDB(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewProm(reg)

	require.NoError(t, p.ObserveDB("events.list", func() error { return nil }))

	boom := &pgconn.PgError{Code: "23505"}
	err := p.ObserveDB("events.create", func() error { return fmt.Errorf("insert: %w", boom) })
	require.ErrorIs(t, err, boom)

	require.Equal(t, 1.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("events.create", "unique_violation")))
}

func TestObserveCascade(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.ObserveCascade("delete_event", map[string]int64{"events": 1, "registrations": 3, "attendees": 0})

	require.Equal(t, 3.0, testutil.ToFloat64(p.CascadeRowsDeleted.WithLabelValues("delete_event", "registrations")))
	require.Equal(t, 0.0, testutil.ToFloat64(p.CascadeRowsDeleted.WithLabelValues("delete_event", "attendees")))
}

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&pgconn.PgError{Code: "40P01"}, "deadlock"},
		{&pgconn.PgError{Code: "22001"}, "pg_22001"},
		{sql.ErrNoRows, "not_found"},
		{fmt.Errorf("query: %w", context.DeadlineExceeded), "timeout"},
		{context.Canceled, "query_canceled"},
		{errors.New("connection refused"), "connection"},
		{errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, classifyDBErr(tt.err), tt.err.Error())
	}
}
