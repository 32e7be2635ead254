package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordLoad(t *testing.T) {
	m := NewMetrics("tracescope")
	m.RecordLoad("gzip", 2048, 5, 1, 2, 0.3)
	m.RecordLoad("plain", 100, 3, 0, 0, 0.1)

	if got := testutil.ToFloat64(m.RecordsTotal.WithLabelValues("parsed")); got != 8 {
		t.Errorf("parsed = %v, want 8", got)
	}
	if got := testutil.ToFloat64(m.RecordsTotal.WithLabelValues("skipped")); got != 1 {
		t.Errorf("skipped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.InvalidDurations); got != 2 {
		t.Errorf("invalid = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SourceBytes); got != 100 {
		t.Errorf("source bytes = %v, want 100", got)
	}
	if got := testutil.CollectAndCount(m.LoadDuration); got != 2 {
		t.Errorf("load duration series = %d, want 2", got)
	}
}

// TestNewMetrics_Independent 验证多次创建不会因重复注册而 panic。
func TestNewMetrics_Independent(t *testing.T) {
	a := NewMetrics("tracescope")
	b := NewMetrics("tracescope")
	a.RecordCriterion("function", "active")
	if got := testutil.ToFloat64(b.FilterCriteria.WithLabelValues("function", "active")); got != 0 {
		t.Errorf("registries share state: %v", got)
	}
}

func TestRecordOutput(t *testing.T) {
	m := NewMetrics("tracescope")
	m.RecordOutput("xlsx", nil)
	m.RecordOutput("xlsx", errors.New("disk full"))
	m.RecordOutput("timeline", nil)

	if got := testutil.ToFloat64(m.OutputsTotal.WithLabelValues("xlsx", "error")); got != 1 {
		t.Errorf("xlsx error = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.OutputsTotal); got != 3 {
		t.Errorf("output series = %d, want 3", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics("tracescope")
	m.ObserveRecord("load", 1.5)
	m.FilteredRecords.Set(4)

	path := filepath.Join(t.TempDir(), "tracescope.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`tracescope_record_duration_seconds_count{function="load"} 1`,
		"tracescope_filtered_records 4",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q:\n%s", want, data)
		}
	}
}
