// Package telemetry 提供 OpenTelemetry 追踪的封装。
// tracescope 是单机 CLI，不依赖外部采集后端：结束的 Span 交给日志输出，
// 便于用 --log-level debug 查看一次分析中各阶段（读取、解析、过滤、导出）的耗时。
package telemetry

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config 定义遥测配置
type Config struct {
	// Enabled 为 false 时使用空操作追踪器
	Enabled bool `yaml:"enabled"`
	// ServiceName 追踪数据的服务标识
	ServiceName string `yaml:"service_name"`
	// SampleRate 采样率，取值 0.0 到 1.0
	SampleRate float64 `yaml:"sample_rate"`
	// Environment 运行环境
	Environment string `yaml:"environment"`
}

// Telemetry 持有追踪提供者和追踪器。
type Telemetry struct {
	config         Config
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
}

// Option 调整 TracerProvider 的构建
type Option func(*options)

type options struct {
	processors []sdktrace.SpanProcessor
}

// WithSpanProcessor 追加一个 SpanProcessor（测试中常配合 tracetest.SpanRecorder 使用）。
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) { o.processors = append(o.processors, sp) }
}

// New 根据配置创建 Telemetry。
// logger 不为 nil 时，结束的 Span 以 debug 级别写入日志。
func New(cfg Config, logger *logrus.Logger, opts ...Option) *Telemetry {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "tracescope"
	}
	if !cfg.Enabled {
		return &Telemetry{config: cfg, tracer: noop.NewTracerProvider().Tracer(cfg.ServiceName)}
	}
	if cfg.SampleRate <= 0 || cfg.SampleRate > 1 {
		cfg.SampleRate = 1.0
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var sampler sdktrace.Sampler
	if cfg.SampleRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	res := resource.NewWithAttributes(semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		attribute.String("environment", cfg.Environment),
	)

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	}
	if logger != nil {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(NewLogSpanProcessor(logger)))
	}
	for _, sp := range o.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)

	return &Telemetry{
		config:         cfg,
		tracerProvider: tp,
		tracer:         tp.Tracer(cfg.ServiceName),
	}
}

// Tracer 返回用于创建 Span 的追踪器
func (t *Telemetry) Tracer() trace.Tracer {
	return t.tracer
}

// IsEnabled 返回追踪是否启用
func (t *Telemetry) IsEnabled() bool {
	return t.config.Enabled
}

// Shutdown 刷新并关闭追踪提供者，未启用时直接返回。
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.tracerProvider == nil {
		return nil
	}
	return t.tracerProvider.Shutdown(ctx)
}

// TraceIDFromContext 从上下文中提取 Trace ID，无效时返回空字符串。
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// RecordError 在当前 Span 上记录错误并把状态置为 Error。
func RecordError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
