// Package metrics 提供 Prometheus 指标采集与导出的统一封装。
// 该包集中定义分析管线的关键指标（解析、过滤、导出），各模块共用一套标签。
// CLI 是短生命周期进程，指标注册在私有 Registry 上，运行结束后可写成 textfile 交给 node_exporter 采集。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 封装分析管线的指标集合。
//
// 指标分类:
//   - 解析指标: 记录数量、跳过块、无效耗时
//   - 耗时指标: 每个函数记录耗时的分布
//   - 过滤指标: 各过滤条件的生效状态
//   - 输出指标: 导出与图表的成功、失败次数
type Metrics struct {
	registry *prometheus.Registry

	// ========== 解析相关指标 ==========

	// RecordsTotal 解析得到的记录数
	// 标签: result (parsed/skipped)
	RecordsTotal *prometheus.CounterVec

	// InvalidDurations 耗时字段无法解析、按 0 处理的记录数
	InvalidDurations prometheus.Counter

	// LoadDuration 读取并解析一份日志的耗时（单位：秒）
	// 标签: encoding (plain/gzip/zstd)
	LoadDuration *prometheus.HistogramVec

	// SourceBytes 最近一次读取的日志文本大小（解压后）
	SourceBytes prometheus.Gauge

	// ========== 耗时相关指标 ==========

	// RecordDuration 日志中记录的函数耗时直方图（单位：秒）
	// 标签: function
	// 桶边界: 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60, 300 s
	RecordDuration *prometheus.HistogramVec

	// ========== 过滤相关指标 ==========

	// FilterCriteria 过滤条件按状态计数
	// 标签: criterion, status (omitted/active/disabled)
	FilterCriteria *prometheus.CounterVec

	// FilteredRecords 最近一次过滤后保留的记录数
	FilteredRecords prometheus.Gauge

	// ========== 输出相关指标 ==========

	// OutputsTotal 导出和图表生成次数
	// 标签: kind (xlsx/timeline/cumulative/...), status (success/error)
	OutputsTotal *prometheus.CounterVec
}

// NewMetrics 在一个新的私有 Registry 上创建并注册指标。
// namespace 作为所有指标名前缀。
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RecordsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_total",
				Help:      "Total number of log blocks seen by the parser",
			},
			[]string{"result"},
		),
		InvalidDurations: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invalid_durations_total",
				Help:      "Records whose duration could not be decoded",
			},
		),
		LoadDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "load_duration_seconds",
				Help:      "Time spent reading and parsing a log",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"encoding"},
		),
		SourceBytes: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "source_bytes",
				Help:      "Size of the last decoded log text in bytes",
			},
		),
		RecordDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "record_duration_seconds",
				Help:      "Durations reported by log records",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60, 300},
			},
			[]string{"function"},
		),
		FilterCriteria: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "filter_criteria_total",
				Help:      "Filter criteria by resulting status",
			},
			[]string{"criterion", "status"},
		),
		FilteredRecords: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "filtered_records",
				Help:      "Records kept by the last filter",
			},
		),
		OutputsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outputs_total",
				Help:      "Exports and charts produced",
			},
			[]string{"kind", "status"},
		),
	}
}

// Registry 返回承载全部指标的 Registry。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordLoad 记录一次日志加载的结果。
func (m *Metrics) RecordLoad(encoding string, bytes int64, parsed, skipped, invalid int, seconds float64) {
	m.RecordsTotal.WithLabelValues("parsed").Add(float64(parsed))
	m.RecordsTotal.WithLabelValues("skipped").Add(float64(skipped))
	m.InvalidDurations.Add(float64(invalid))
	m.SourceBytes.Set(float64(bytes))
	m.LoadDuration.WithLabelValues(encoding).Observe(seconds)
}

// ObserveRecord 记录一条日志记录的耗时。
func (m *Metrics) ObserveRecord(function string, seconds float64) {
	m.RecordDuration.WithLabelValues(function).Observe(seconds)
}

// RecordCriterion 记录一个过滤条件的状态。
func (m *Metrics) RecordCriterion(criterion, status string) {
	m.FilterCriteria.WithLabelValues(criterion, status).Inc()
}

// RecordOutput 记录一次导出或图表生成。
func (m *Metrics) RecordOutput(kind string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.OutputsTotal.WithLabelValues(kind, status).Inc()
}

// WriteTextfile 把当前指标写成 Prometheus 文本格式文件。
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
