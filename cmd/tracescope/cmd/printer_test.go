package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/oriys/tracescope/internal/analytics"
	"github.com/oriys/tracescope/internal/domain"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a long detail", 10, "this is..."},
		{"建表操作详情很长很长", 8, "建表操作详..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestColorTrend_NoTerminal(t *testing.T) {
	p := NewPrinter(&bytes.Buffer{})
	if p.color {
		t.Fatal("buffer should not enable colour")
	}
	if got := p.colorTrend(analytics.TrendWorsening); got != analytics.TrendWorsening {
		t.Errorf("colorTrend = %q", got)
	}
}

func TestPrintStats_Table(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{format: "table", writer: &buf}
	err := p.PrintStats([]domain.FunctionStats{
		{Function: "create_tables", Count: 2, Min: 0.5, Max: 1.5, Average: 1, StdDev: 0.5, Total: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "FUNCTION") || !strings.Contains(lines[1], "0.500") {
		t.Errorf("unexpected table:\n%s", buf.String())
	}
}

func TestPrintAnalysis_UndefinedValues(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{format: "table", writer: &buf}
	m := analytics.CorrelationMatrix{
		Functions: []string{"a", "b"},
		Values: [][]domain.NullFloat{
			{domain.Float(1), {}},
			{{}, domain.Float(1)},
		},
	}
	p.printCorrelation(m, analytics.StrongCorrelations(m, 0))
	if !strings.Contains(buf.String(), "-") || !strings.Contains(buf.String(), "1.000") || !strings.Contains(buf.String(), "none") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
