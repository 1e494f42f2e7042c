package logger

import (
	"context"
	"testing"

	obsctx "github.com/smallbiznis/invoicegen/internal/observability/context"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observeGlobal swaps the global logger for an observer until the test ends.
func observeGlobal(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	t.Cleanup(zap.ReplaceGlobals(zap.New(core)))
	return logs
}

func TestFromContext(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	span := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	cases := []struct {
		name string
		ctx  context.Context
		want map[string]any
	}{
		{
			name: "span ids",
			ctx:  trace.ContextWithSpanContext(context.Background(), span),
			want: map[string]any{"trace_id": traceID.String(), "span_id": spanID.String()},
		},
		{
			name: "request and user",
			ctx:  obsctx.WithUserID(obsctx.WithRequestID(context.Background(), "req-1"), "user-1"),
			want: map[string]any{"request_id": "req-1", "user_id": "user-1"},
		},
		{
			name: "bare context",
			ctx:  context.Background(),
			want: map[string]any{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logs := observeGlobal(t)
			FromContext(tc.ctx).Info("payment recorded")

			entries := logs.All()
			if len(entries) != 1 {
				t.Fatalf("expected 1 log entry, got %d", len(entries))
			}
			fields := entries[0].ContextMap()
			if len(fields) != len(tc.want) {
				t.Fatalf("expected fields %v, got %v", tc.want, fields)
			}
			for k, v := range tc.want {
				if fields[k] != v {
					t.Fatalf("field %s: expected %v, got %v", k, v, fields[k])
				}
			}
		})
	}
}
