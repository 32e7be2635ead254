// Package config 提供 tracescope 的配置管理功能。
// 配置从 YAML 文件加载，未设置的项填充默认值，部分项可通过环境变量覆盖。
package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 是主配置结构体
type Config struct {
	// Logging 日志级别和格式
	Logging LoggingConfig `yaml:"logging"`
	// Metrics Prometheus textfile 输出
	Metrics MetricsConfig `yaml:"metrics"`
	// Telemetry 追踪配置
	Telemetry TelemetryConfig `yaml:"telemetry"`
	// Analytics 分析参数
	Analytics AnalyticsConfig `yaml:"analytics"`
	// Export 表格导出
	Export ExportConfig `yaml:"export"`
	// Chart 图表输出
	Chart ChartConfig `yaml:"chart"`
	// Filter 默认过滤条件，命令行参数优先
	Filter FilterConfig `yaml:"filter"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	// Level 日志级别：debug, info, warn, error
	// 默认值：info
	Level string `yaml:"level"`
	// Format 日志格式：text 或 json
	// 默认值：text
	Format string `yaml:"format"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Namespace 指标名前缀
	// 默认值：tracescope
	Namespace string `yaml:"namespace"`
	// File 非空时在命令结束后写出 Prometheus textfile
	File string `yaml:"file"`
}

// TelemetryConfig 追踪配置
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
	Environment string  `yaml:"environment"`
}

// AnalyticsConfig 分析参数
type AnalyticsConfig struct {
	// MovingAverageWindow 移动平均的最大窗口
	// 默认值：10
	MovingAverageWindow int `yaml:"moving_average_window"`
	// CorrelationThreshold 强相关阈值
	// 默认值：0.7
	CorrelationThreshold float64 `yaml:"correlation_threshold"`
	// HistogramBins 耗时分布分箱数
	// 默认值：20
	HistogramBins int `yaml:"histogram_bins"`
}

// ExportConfig 导出配置
type ExportConfig struct {
	// Path 默认导出文件
	// 默认值：log_analysis_export.xlsx
	Path string `yaml:"path"`
}

// ChartConfig 图表配置
type ChartConfig struct {
	// Width / Height 图片像素尺寸
	// 默认值：1024 x 512
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// Path 默认输出文件
	// 默认值：chart.png
	Path string `yaml:"path"`
}

// FilterConfig 默认过滤条件，字段含义与命令行参数相同
type FilterConfig struct {
	Function    string `yaml:"function"`
	MinDuration string `yaml:"min_duration"`
	MaxDuration string `yaml:"max_duration"`
	StartTime   string `yaml:"start_time"`
	EndTime     string `yaml:"end_time"`
	Operation   string `yaml:"operation"`
	Search      string `yaml:"search"`
	// Preset JSON 预设文件路径
	Preset string `yaml:"preset"`
}

// Default 返回填充了默认值的配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load 从指定路径加载配置文件，然后应用默认值和环境变量覆盖。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadOrDefault 在 path 为空时返回默认配置（仍应用环境变量覆盖），否则等同于 Load。
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	return Load(path)
}

// applyEnvOverrides 应用环境变量覆盖。
// 支持直接设置（如 TRACESCOPE_LOG_LEVEL）和 _FILE 后缀指定文件（如 TRACESCOPE_LOG_LEVEL_FILE），
// _FILE 方式优先。
func (c *Config) applyEnvOverrides() {
	if v := readEnvOrFileAny(
		[]string{"TRACESCOPE_LOG_LEVEL"},
		[]string{"TRACESCOPE_LOG_LEVEL_FILE"},
	); v != "" {
		c.Logging.Level = v
	}
	if v := readEnvOrFileAny(
		[]string{"TRACESCOPE_METRICS_FILE"},
		[]string{"TRACESCOPE_METRICS_FILE_FILE"},
	); v != "" {
		c.Metrics.File = v
	}
	if v := readEnvOrFileAny(
		[]string{"TRACESCOPE_TELEMETRY_SAMPLE_RATE"},
		[]string{"TRACESCOPE_TELEMETRY_SAMPLE_RATE_FILE"},
	); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			c.Telemetry.SampleRate = rate
		}
	}
}

// readEnvOrFileAny 优先从 fileKeys 指向的文件读取，其次读 envKeys，都未设置返回空字符串。
func readEnvOrFileAny(envKeys []string, fileKeys []string) string {
	for _, fileKey := range fileKeys {
		if filePath := strings.TrimSpace(os.Getenv(fileKey)); filePath != "" {
			if b, err := os.ReadFile(filePath); err == nil {
				return strings.TrimSpace(string(b))
			}
		}
	}

	for _, envKey := range envKeys {
		if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
			return v
		}
	}

	return ""
}

// applyDefaults 为未设置的配置项填充默认值。
func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "tracescope"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "tracescope"
	}
	// 采样率超出范围时按全采样处理
	if c.Telemetry.SampleRate <= 0 || c.Telemetry.SampleRate > 1 {
		c.Telemetry.SampleRate = 1.0
	}
	if c.Analytics.MovingAverageWindow <= 0 {
		c.Analytics.MovingAverageWindow = 10
	}
	if c.Analytics.CorrelationThreshold <= 0 || c.Analytics.CorrelationThreshold > 1 {
		c.Analytics.CorrelationThreshold = 0.7
	}
	if c.Analytics.HistogramBins <= 0 {
		c.Analytics.HistogramBins = 20
	}
	if c.Export.Path == "" {
		c.Export.Path = "log_analysis_export.xlsx"
	}
	if c.Chart.Width <= 0 {
		c.Chart.Width = 1024
	}
	if c.Chart.Height <= 0 {
		c.Chart.Height = 512
	}
	if c.Chart.Path == "" {
		c.Chart.Path = "chart.png"
	}
}
