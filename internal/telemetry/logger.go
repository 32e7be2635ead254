package telemetry

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// LogrusHook 把条目上下文中的 trace_id / span_id 写入日志字段。
type LogrusHook struct{}

// NewLogrusHook 创建 LogrusHook
//
//	logger := logrus.New()
//	logger.AddHook(telemetry.NewLogrusHook())
func NewLogrusHook() *LogrusHook {
	return &LogrusHook{}
}

// Levels 在所有级别触发
func (h *LogrusHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire 在条目带有有效 Span 时追加追踪字段。
func (h *LogrusHook) Fire(entry *logrus.Entry) error {
	if entry.Context == nil {
		return nil
	}
	sc := trace.SpanFromContext(entry.Context).SpanContext()
	if !sc.IsValid() {
		return nil
	}
	entry.Data["trace_id"] = sc.TraceID().String()
	entry.Data["span_id"] = sc.SpanID().String()
	if sc.IsSampled() {
		entry.Data["trace_sampled"] = true
	}
	return nil
}

// LoggerWithTraceContext 返回带追踪字段的日志条目，ctx 中没有有效 Span 时不带。
func LoggerWithTraceContext(ctx context.Context, logger *logrus.Logger) *logrus.Entry {
	return EntryWithTraceContext(ctx, logrus.NewEntry(logger))
}

// EntryWithTraceContext 向现有条目追加追踪字段。
func EntryWithTraceContext(ctx context.Context, entry *logrus.Entry) *logrus.Entry {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return entry
	}
	return entry.WithFields(logrus.Fields{
		"trace_id":      sc.TraceID().String(),
		"span_id":       sc.SpanID().String(),
		"trace_sampled": sc.IsSampled(),
	})
}

// NewLogger 按级别和格式（text/json）创建 logger，并挂上 LogrusHook。
func NewLogger(level, format string, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	logger.AddHook(NewLogrusHook())
	return logger, nil
}

// LogSpanProcessor 把结束的 Span 以 debug 级别写入日志。
type LogSpanProcessor struct {
	logger *logrus.Logger
}

// NewLogSpanProcessor 创建 LogSpanProcessor
func NewLogSpanProcessor(logger *logrus.Logger) *LogSpanProcessor {
	return &LogSpanProcessor{logger: logger}
}

func (p *LogSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd 输出 Span 名称、耗时和属性
func (p *LogSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	if !p.logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	fields := logrus.Fields{
		"span":     s.Name(),
		"trace_id": s.SpanContext().TraceID().String(),
		"span_id":  s.SpanContext().SpanID().String(),
		"elapsed":  s.EndTime().Sub(s.StartTime()).String(),
		"status":   s.Status().Code.String(),
	}
	for _, kv := range s.Attributes() {
		fields[string(kv.Key)] = kv.Value.Emit()
	}
	p.logger.WithFields(fields).Debug("span finished")
}

func (p *LogSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p *LogSpanProcessor) ForceFlush(context.Context) error { return nil }
