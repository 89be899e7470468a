package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracingStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.Writer = &buf

	shutdown, err := InitTracing(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	t.Cleanup(func() {
		_, _ = InitTracing(context.Background(), TracingConfig{}, nil)
	})

	_, span := otel.Tracer("test").Start(context.Background(), "assessment.orbit")
	span.End()
	ShutdownWithTimeout(context.Background(), shutdown, nil)

	if !strings.Contains(buf.String(), "assessment.orbit") {
		t.Fatalf("exported spans missing name: %s", buf.String())
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.Exporter = "zipkin"
	if _, err := InitTracing(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unsupported exporter")
	}
}

func TestTracingConfigApplyEnv(t *testing.T) {
	t.Setenv("RISK_TRACING_ENABLED", "TRUE")
	t.Setenv("RISK_TRACING_EXPORTER", "OTLP")
	t.Setenv("RISK_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("RISK_TRACING_SAMPLE_RATIO", "2")

	cfg := DefaultTracingConfig().ApplyEnv()
	if !cfg.Enabled || cfg.Exporter != "otlp" || cfg.Endpoint != "collector:4317" {
		t.Fatalf("ApplyEnv = %+v", cfg)
	}
	if cfg.SampleRatio != 1.0 {
		t.Fatalf("out-of-range ratio should be ignored, got %v", cfg.SampleRatio)
	}
}
