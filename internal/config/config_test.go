package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracescope.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Analytics.MovingAverageWindow != 10 || cfg.Analytics.CorrelationThreshold != 0.7 || cfg.Analytics.HistogramBins != 20 {
		t.Errorf("analytics = %+v", cfg.Analytics)
	}
	if cfg.Export.Path != "log_analysis_export.xlsx" || cfg.Chart.Path != "chart.png" {
		t.Errorf("paths = %q %q", cfg.Export.Path, cfg.Chart.Path)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
analytics:
  moving_average_window: 5
  correlation_threshold: 3
filter:
  function: create_tables
  min_duration: "0.5"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Analytics.MovingAverageWindow != 5 {
		t.Errorf("window = %d", cfg.Analytics.MovingAverageWindow)
	}
	// 超出范围回退为默认值
	if cfg.Analytics.CorrelationThreshold != 0.7 {
		t.Errorf("threshold = %v", cfg.Analytics.CorrelationThreshold)
	}
	if cfg.Filter.Function != "create_tables" || cfg.Filter.MinDuration != "0.5" {
		t.Errorf("filter = %+v", cfg.Filter)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "logging: [unterminated")); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

// TestLoad_EnvOverrides 验证环境变量覆盖，_FILE 优先于直接值。
func TestLoad_EnvOverrides(t *testing.T) {
	secret := filepath.Join(t.TempDir(), "level")
	if err := os.WriteFile(secret, []byte("error\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TRACESCOPE_LOG_LEVEL", "warn")
	t.Setenv("TRACESCOPE_LOG_LEVEL_FILE", secret)
	t.Setenv("TRACESCOPE_METRICS_FILE", "/tmp/tracescope.prom")
	t.Setenv("TRACESCOPE_TELEMETRY_SAMPLE_RATE", "0.25")

	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("level = %q, want error", cfg.Logging.Level)
	}
	if cfg.Metrics.File != "/tmp/tracescope.prom" {
		t.Errorf("metrics file = %q", cfg.Metrics.File)
	}
	if cfg.Telemetry.SampleRate != 0.25 {
		t.Errorf("sample rate = %v", cfg.Telemetry.SampleRate)
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("TRACESCOPE_METRICS_FILE", "out.prom")
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.Logging.Level != "info" || cfg.Metrics.File != "out.prom" {
		t.Errorf("cfg = %+v", cfg)
	}

	cfg, err = LoadOrDefault(writeConfig(t, "export:\n  path: run.xlsx\n"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if cfg.Export.Path != "run.xlsx" {
		t.Errorf("export path = %q", cfg.Export.Path)
	}
}
