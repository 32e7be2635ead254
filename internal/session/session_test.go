package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oriys/tracescope/internal/domain"
	"github.com/oriys/tracescope/internal/filter"
	"github.com/oriys/tracescope/internal/metrics"
	"github.com/oriys/tracescope/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func block(ts, fn, dur, details string) string {
	return fmt.Sprintf("[%s] Function: %s\n"+
		"Start Time (datetime): %s\n"+
		"End Time (datetime): %s\n"+
		"Duration (datetime): %s\n"+
		"Operation Details: %s\n%s\n",
		ts, fn, ts, ts, dur, details, strings.Repeat("-", 80))
}

func sampleLog() string {
	return block("2024-03-01 10:00:00.000000", "create_tables", "00:00:01.000", "users") +
		block("2024-03-01 10:00:05.000000", "create_base_data", "00:00:03.000", "seed") +
		block("2024-03-01 10:01:00.000000", "create_tables", "00:00:02.000", "orders") +
		block("2024-03-01 10:01:30.000000", "  ", "00:00:09.000", "blank") +
		block("2024-03-01 10:02:00.000000", "create_base_data", "bogus", "more")
}

func TestLoad(t *testing.T) {
	s := Load(sampleLog())
	if len(s.Records) != 4 {
		t.Fatalf("got %d records, want 4", len(s.Records))
	}
	if len(s.Skipped) != 1 || s.InvalidDurations != 1 {
		t.Errorf("Skipped = %v InvalidDurations = %d", s.Skipped, s.InvalidDurations)
	}
	if got := s.Functions(); len(got) != 2 || got[0] != "create_tables" {
		t.Errorf("Functions = %v", got)
	}
	if len(s.Filtered) != len(s.Records) || s.FilteredStats.Len() != 2 {
		t.Error("initial filter view should contain every record")
	}
	if s.ID.String() == "" || s.ID == Load(sampleLog()).ID {
		t.Error("sessions should get distinct ids")
	}
}

// TestFilter_Immutable 验证 Filter 返回新会话且原会话不变。
func TestFilter_Immutable(t *testing.T) {
	s := Load(sampleLog())
	f := s.Filter(filter.Spec{Function: "create_tables"})

	if len(f.Filtered) != 2 || f.FilteredStats.Len() != 1 {
		t.Errorf("filtered = %d stats = %d", len(f.Filtered), f.FilteredStats.Len())
	}
	if len(s.Filtered) != 4 || s.Spec.Function != "" {
		t.Error("original session was mutated")
	}
	if f.ID != s.ID {
		t.Error("filtered session should keep the id")
	}

	// 再次过滤基于全部记录
	g := f.Filter(filter.Spec{Function: "create_base_data"})
	if len(g.Filtered) != 2 {
		t.Errorf("refilter kept %d, want 2", len(g.Filtered))
	}
	stats, ok := g.FilteredStats.Get("create_base_data")
	if !ok || stats.Total != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestFilter_DisabledCriterion(t *testing.T) {
	s := Load(sampleLog()).Filter(filter.Spec{MinDuration: "abc", MaxDuration: "5"})
	if len(s.Filtered) != 4 {
		t.Errorf("disabled criterion should keep all records, got %d", len(s.Filtered))
	}
	d := s.Disabled()
	if len(d) != 1 || d[0].Name != filter.CriterionDuration {
		t.Errorf("Disabled = %+v", d)
	}
}

func TestQuick(t *testing.T) {
	s := Load(sampleLog()).Filter(filter.Spec{Function: "create_tables"})
	q := s.Quick()
	if q.Total != 4 || q.Filtered != 2 || !q.FilteredAverage.Valid || q.FilteredAverage.Float64 != 1.5 {
		t.Errorf("Quick = %+v", q)
	}
	empty := s.Filter(filter.Spec{Search: "nothing-matches"}).Quick()
	if empty.Filtered != 0 || empty.FilteredAverage.Valid {
		t.Errorf("empty Quick = %+v", empty)
	}
}

func TestAnalyze(t *testing.T) {
	s := Load(sampleLog())
	res := Analyze(s, Options{})

	if res.Records != 4 || res.Metrics.Count != 4 || res.Metrics.Total != 6 {
		t.Errorf("metrics = %+v", res.Metrics)
	}
	if res.MovingAverage.Window != 4 || len(res.Cumulative) != 4 || res.Cumulative[3] != 6 {
		t.Errorf("series: window=%d cumulative=%v", res.MovingAverage.Window, res.Cumulative)
	}
	if res.Timeline == nil || res.Timeline.SpanSeconds != 120 {
		t.Errorf("timeline = %+v", res.Timeline)
	}
	if len(res.Correlation.Functions) != 2 {
		t.Errorf("correlation functions = %v", res.Correlation.Functions)
	}
	if row, ok := res.Heatmap.Row("create_tables"); !ok || row[10] != 3 {
		t.Errorf("heatmap row = %v", row)
	}
	if res.SessionID != s.ID.String() {
		t.Errorf("SessionID = %s", res.SessionID)
	}

	empty := Analyze(s.Filter(filter.Spec{Function: "missing"}), Options{})
	if empty.Records != 0 || empty.Timeline != nil || empty.Histogram != nil {
		t.Errorf("empty analysis = %+v", empty)
	}
}

func newLoader(t *testing.T) (*Loader, *test.Hook, *tracetest.SpanRecorder, *metrics.Metrics) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	rec := tracetest.NewSpanRecorder()
	tel := telemetry.New(telemetry.Config{Enabled: true}, nil, telemetry.WithSpanProcessor(rec))
	t.Cleanup(func() { tel.Shutdown(context.Background()) })
	m := metrics.NewMetrics("tracescope")
	return NewLoader(logger, tel.Tracer(), m), hook, rec, m
}

func TestLoader_LoadSource(t *testing.T) {
	l, hook, rec, m := newLoader(t)
	path := filepath.Join(t.TempDir(), "run.log")
	if err := os.WriteFile(path, []byte(sampleLog()), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := l.LoadSource(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadSource: %v", err)
	}
	if s.Source != path || len(s.Records) != 4 {
		t.Errorf("session source=%s records=%d", s.Source, len(s.Records))
	}

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "Skipped log block") {
			warned = true
			if e.Data["session_id"] != s.ID.String() {
				t.Errorf("warn entry missing session_id: %v", e.Data)
			}
		}
	}
	if !warned {
		t.Error("expected a warning for the skipped block")
	}
	if last := hook.LastEntry(); last.Message != "Log loaded" || last.Data["records"] != 4 {
		t.Errorf("last entry = %q %v", last.Message, last.Data)
	}

	names := map[string]bool{}
	for _, sp := range rec.Ended() {
		names[sp.Name()] = true
	}
	if !names["session.load"] || !names["session.parse"] {
		t.Errorf("spans = %v", names)
	}
	if got := testutil.ToFloat64(m.RecordsTotal.WithLabelValues("parsed")); got != 4 {
		t.Errorf("parsed metric = %v", got)
	}
}

func TestLoader_LoadSourceMissing(t *testing.T) {
	l, hook, _, _ := newLoader(t)
	_, err := l.LoadSource(context.Background(), filepath.Join(t.TempDir(), "nope.log"))
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
	if hook.LastEntry().Level != logrus.ErrorLevel {
		t.Errorf("expected error log, got %v", hook.LastEntry().Level)
	}
}

func TestLoader_Filter(t *testing.T) {
	l, hook, _, m := newLoader(t)
	s := Load(sampleLog())
	next := l.Filter(context.Background(), s, filter.Spec{OperationType: "teleport"})

	if len(next.Filtered) != 4 {
		t.Errorf("kept %d, want 4", len(next.Filtered))
	}
	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["criterion"] == filter.CriterionOperationType {
			warned = true
		}
	}
	if !warned {
		t.Error("expected warning for unknown operation type")
	}
	if got := testutil.ToFloat64(m.FilterCriteria.WithLabelValues(filter.CriterionOperationType, "disabled")); got != 1 {
		t.Errorf("disabled metric = %v", got)
	}
	if got := testutil.ToFloat64(m.FilteredRecords); got != 4 {
		t.Errorf("filtered gauge = %v", got)
	}
}

// TestLoader_Analyze 验证分析日志带上了 session.analyze Span 的追踪字段。
func TestLoader_Analyze(t *testing.T) {
	l, hook, rec, _ := newLoader(t)
	s := Load(sampleLog())
	res := l.Analyze(context.Background(), s, Options{})
	if res.Records != 4 {
		t.Fatalf("records = %d, want 4", res.Records)
	}

	ended := rec.Ended()
	if len(ended) != 1 || ended[0].Name() != "session.analyze" {
		t.Fatalf("spans = %v", ended)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Message != "Analysis complete" {
		t.Fatalf("last entry = %v", entry)
	}
	if entry.Data["trace_id"] != ended[0].SpanContext().TraceID().String() {
		t.Errorf("trace_id = %v", entry.Data["trace_id"])
	}
	if entry.Data["session_id"] != s.ID.String() || entry.Data["records"] != 4 {
		t.Errorf("fields = %v", entry.Data)
	}
}
