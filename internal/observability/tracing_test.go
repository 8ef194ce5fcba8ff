package observability

import (
	"context"
	"errors"
	"testing"
)

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config")
	}
	if cfg.ServiceName != "renderwatch" {
		t.Fatalf("expected service name 'renderwatch', got %s", cfg.ServiceName)
	}
	if cfg.SampleRate != 1.0 {
		t.Fatalf("expected sample rate 1.0, got %f", cfg.SampleRate)
	}
}

func TestInitTracing_NoEndpoint(t *testing.T) {
	ctx := context.Background()
	tp, err := InitTracing(ctx, &TracingConfig{
		ServiceName: "test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp == nil {
		t.Fatal("expected non-nil tracer provider")
	}
	if tp.Tracer() == nil {
		t.Fatal("expected non-nil tracer")
	}
	// Should be no-op, shutdown should succeed
	if err := tp.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestInitTracing_NilConfig(t *testing.T) {
	ctx := context.Background()
	tp, err := InitTracing(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp == nil {
		t.Fatal("expected non-nil tracer provider")
	}
}

func TestStartLoadSpan(t *testing.T) {
	ctx := context.Background()
	ctx, span := StartLoadSpan(ctx, "/runs/nightly")
	if span == nil {
		t.Fatal("expected non-nil span")
	}
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	RecordLoadResult(span, 12, 96)
	span.End()
}

func TestStartReportSpan(t *testing.T) {
	ctx, span := StartReportSpan(context.Background(), "/runs/nightly")
	if span == nil {
		t.Fatal("expected non-nil span")
	}
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	RecordReportResult(span, 96, 80, 10, 6)
	span.End()
}

func TestStartCompareSpan(t *testing.T) {
	_, span := StartCompareSpan(context.Background(), "chair.hip", "beauty", 3)
	if span == nil {
		t.Fatal("expected non-nil span")
	}
	RecordCompareResult(span, "SOFT", 2)
	span.End()
}

func TestRecordError(t *testing.T) {
	_, span := StartReportSpan(context.Background(), "/runs/nightly")
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	span.End()
}
