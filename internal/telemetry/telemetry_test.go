package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew_Disabled(t *testing.T) {
	tel := New(Config{}, nil)
	if tel.IsEnabled() {
		t.Fatal("telemetry should be disabled")
	}
	ctx, span := tel.Tracer().Start(context.Background(), "noop")
	span.End()
	if TraceIDFromContext(ctx) != "" {
		t.Error("noop span should not carry a trace id")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestNew_RecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tel := New(Config{Enabled: true, SampleRate: 1}, nil, WithSpanProcessor(rec))
	defer tel.Shutdown(context.Background())

	ctx, span := tel.Tracer().Start(context.Background(), "parse")
	if TraceIDFromContext(ctx) == "" {
		t.Error("expected a trace id")
	}
	RecordError(ctx, errors.New("boom"))
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 || ended[0].Name() != "parse" {
		t.Fatalf("ended spans = %v", ended)
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", ended[0].Status().Code)
	}
}

func TestLogrusHook(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tel := New(Config{Enabled: true}, nil, WithSpanProcessor(rec))
	defer tel.Shutdown(context.Background())

	logger, hook := test.NewNullLogger()
	logger.AddHook(NewLogrusHook())

	ctx, span := tel.Tracer().Start(context.Background(), "filter")
	logger.WithContext(ctx).Info("filtered")
	span.End()

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("no log entry")
	}
	if entry.Data["trace_id"] != TraceIDFromContext(ctx) {
		t.Errorf("trace_id = %v", entry.Data["trace_id"])
	}
	if entry.Data["trace_sampled"] != true {
		t.Errorf("trace_sampled = %v", entry.Data["trace_sampled"])
	}

	logger.Info("no context")
	if _, ok := hook.LastEntry().Data["trace_id"]; ok {
		t.Error("entry without context should not get trace_id")
	}
}

func TestLogSpanProcessor(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	tel := New(Config{Enabled: true}, logger)
	defer tel.Shutdown(context.Background())

	_, span := tel.Tracer().Start(context.Background(), "load")
	span.End()

	entry := hook.LastEntry()
	if entry == nil || entry.Message != "span finished" {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.Data["span"] != "load" {
		t.Errorf("span field = %v", entry.Data["span"])
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("warn", "json", &buf)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Errorf("unexpected output %q", buf.String())
	}

	if _, err := NewLogger("loud", "text", &buf); err == nil {
		t.Error("expected error for bad level")
	}
	if _, err := NewLogger("info", "xml", &buf); err == nil {
		t.Error("expected error for bad format")
	}
}

func TestLoggerWithTraceContext(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tel := New(Config{Enabled: true}, nil, WithSpanProcessor(rec))
	defer tel.Shutdown(context.Background())

	logger, hook := test.NewNullLogger()

	LoggerWithTraceContext(context.Background(), logger).Info("plain")
	if _, ok := hook.LastEntry().Data["trace_id"]; ok {
		t.Error("context without span should not add trace_id")
	}

	ctx, span := tel.Tracer().Start(context.Background(), "analyze")
	LoggerWithTraceContext(ctx, logger).Info("traced")
	span.End()

	entry := hook.LastEntry()
	if entry.Data["trace_id"] != TraceIDFromContext(ctx) {
		t.Errorf("trace_id = %v", entry.Data["trace_id"])
	}
	if entry.Data["span_id"] != span.SpanContext().SpanID().String() {
		t.Errorf("span_id = %v", entry.Data["span_id"])
	}
}
