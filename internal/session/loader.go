package session

import (
	"context"
	"time"

	"github.com/oriys/tracescope/internal/filter"
	"github.com/oriys/tracescope/internal/metrics"
	"github.com/oriys/tracescope/internal/source"
	"github.com/oriys/tracescope/internal/telemetry"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Loader 在会话操作外层加上读取、日志、追踪和指标。
type Loader struct {
	logger  *logrus.Logger
	tracer  trace.Tracer
	metrics *metrics.Metrics
}

// NewLoader 创建 Loader
func NewLoader(logger *logrus.Logger, tracer trace.Tracer, m *metrics.Metrics) *Loader {
	return &Loader{logger: logger, tracer: tracer, metrics: m}
}

// LoadSource 读取 path（"-" 为标准输入）并创建会话。
// 读取失败返回包装了 domain.ErrSourceUnavailable 的错误。
func (l *Loader) LoadSource(ctx context.Context, path string) (*Session, error) {
	ctx, span := l.tracer.Start(ctx, "session.load", trace.WithAttributes(attribute.String("source", path)))
	defer span.End()
	log := telemetry.EntryWithTraceContext(ctx, l.logger.WithField("source", path))

	start := time.Now()
	doc, err := source.Read(ctx, path)
	if err != nil {
		telemetry.RecordError(ctx, err)
		log.WithError(err).Error("Failed to read log source")
		return nil, err
	}

	_, parseSpan := l.tracer.Start(ctx, "session.parse")
	s := Load(doc.Text)
	parseSpan.SetAttributes(
		attribute.Int("records", len(s.Records)),
		attribute.Int("skipped", len(s.Skipped)),
	)
	parseSpan.End()
	s.Source = path

	log = log.WithField("session_id", s.ID.String())
	for _, sk := range s.Skipped {
		log.WithFields(logrus.Fields{
			"index":  sk.Index,
			"offset": sk.Offset,
		}).Warnf("Skipped log block: %s", sk.Reason)
	}
	if s.InvalidDurations > 0 {
		log.WithField("count", s.InvalidDurations).Warn("Records with undecodable duration counted as 0s")
	}
	if l.metrics != nil {
		l.metrics.RecordLoad(string(doc.Encoding), doc.Bytes, len(s.Records), len(s.Skipped), s.InvalidDurations, time.Since(start).Seconds())
		for _, r := range s.Records {
			l.metrics.ObserveRecord(r.Function, r.DurationSeconds)
		}
	}

	log.WithFields(logrus.Fields{
		"encoding":  doc.Encoding,
		"records":   len(s.Records),
		"skipped":   len(s.Skipped),
		"functions": s.Stats.Len(),
	}).Info("Log loaded")
	return s, nil
}

// Filter 过滤会话，并对失效的条件输出 warn 日志。
func (l *Loader) Filter(ctx context.Context, s *Session, spec filter.Spec) *Session {
	ctx, span := l.tracer.Start(ctx, "session.filter")
	defer span.End()

	next := s.Filter(spec)
	span.SetAttributes(attribute.Int("kept", len(next.Filtered)))

	log := telemetry.EntryWithTraceContext(ctx, l.logger.WithField("session_id", s.ID.String()))
	for _, c := range next.Criteria {
		if l.metrics != nil {
			l.metrics.RecordCriterion(c.Name, string(c.Status))
		}
		if c.Status == filter.StatusDisabled {
			log.WithField("criterion", c.Name).Warnf("Filter criterion ignored: %s", c.Reason)
		}
	}
	if l.metrics != nil {
		l.metrics.FilteredRecords.Set(float64(len(next.Filtered)))
	}
	log.WithFields(logrus.Fields{
		"total": len(next.Records),
		"kept":  len(next.Filtered),
	}).Debug("Filter applied")
	return next
}

// Analyze 在追踪 Span 内运行 Analyze。
func (l *Loader) Analyze(ctx context.Context, s *Session, opts Options) Result {
	ctx, span := l.tracer.Start(ctx, "session.analyze", trace.WithAttributes(attribute.Int("records", len(s.Filtered))))
	defer span.End()

	res := Analyze(s, opts)
	telemetry.LoggerWithTraceContext(ctx, l.logger).WithFields(logrus.Fields{
		"session_id": res.SessionID,
		"records":    res.Records,
		"trend":      res.Trend,
	}).Debug("Analysis complete")
	return res
}
