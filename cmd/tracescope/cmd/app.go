package cmd

import (
	"context"
	"fmt"

	"github.com/oriys/tracescope/internal/config"
	"github.com/oriys/tracescope/internal/filter"
	"github.com/oriys/tracescope/internal/metrics"
	"github.com/oriys/tracescope/internal/session"
	"github.com/oriys/tracescope/internal/telemetry"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app 是一次命令执行所需的运行时组件
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	tel     *telemetry.Telemetry
	metrics *metrics.Metrics
	loader  *session.Loader
}

// newApp 加载配置并创建 logger、追踪和指标。
// 命令行上显式给出的 --log-level / --log-format / --metrics-file 覆盖配置文件和环境变量。
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadOrDefault(viper.ConfigFileUsed())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = viper.GetString("logging.level")
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Logging.Format = viper.GetString("logging.format")
	}
	if cmd.Flags().Changed("metrics-file") {
		cfg.Metrics.File = viper.GetString("metrics.file")
	}

	logger, err := telemetry.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	tel := telemetry.New(telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		SampleRate:  cfg.Telemetry.SampleRate,
		Environment: cfg.Telemetry.Environment,
	}, logger)
	m := metrics.NewMetrics(cfg.Metrics.Namespace)

	return &app{
		cfg:     cfg,
		logger:  logger,
		tel:     tel,
		metrics: m,
		loader:  session.NewLoader(logger, tel.Tracer(), m),
	}, nil
}

// close 写出指标文件并关闭追踪
func (a *app) close(ctx context.Context) {
	if a.cfg.Metrics.File != "" {
		if err := a.metrics.WriteTextfile(a.cfg.Metrics.File); err != nil {
			a.logger.WithError(err).Warn("Failed to write metrics file")
		} else {
			a.logger.WithField("path", a.cfg.Metrics.File).Debug("Metrics written")
		}
	}
	if err := a.tel.Shutdown(ctx); err != nil {
		a.logger.WithError(err).Warn("Failed to shut down telemetry")
	}
}

func (a *app) analyticsOptions() session.Options {
	return session.Options{
		Window:               a.cfg.Analytics.MovingAverageWindow,
		CorrelationThreshold: a.cfg.Analytics.CorrelationThreshold,
		Bins:                 a.cfg.Analytics.HistogramBins,
	}
}

// filterOptions 是各分析命令共用的过滤参数
type filterOptions struct {
	function    string
	minDuration string
	maxDuration string
	startTime   string
	endTime     string
	operation   string
	search      string
	preset      string
}

// addFilterFlags 在命令上注册过滤参数
func addFilterFlags(cmd *cobra.Command, o *filterOptions) {
	f := cmd.Flags()
	f.StringVar(&o.function, "function", "", "只保留该函数（all 表示全部）")
	f.StringVar(&o.minDuration, "min-duration", "", "最小耗时（秒）")
	f.StringVar(&o.maxDuration, "max-duration", "", "最大耗时（秒）")
	f.StringVar(&o.startTime, "start-time", "", "开始时刻下限（HH:MM:SS）")
	f.StringVar(&o.endTime, "end-time", "", "开始时刻上限（HH:MM:SS）")
	f.StringVar(&o.operation, "operation", "", fmt.Sprintf("操作类型（%s）", joinTypes()))
	f.StringVar(&o.search, "search", "", "在函数名和详情中搜索（不区分大小写）")
	f.StringVar(&o.preset, "preset", "", "JSON 过滤预设文件")
}

func joinTypes() string {
	s := filter.AllSentinel
	for _, t := range filter.OperationTypes() {
		s += ", " + t
	}
	return s
}

// spec 合并过滤条件，优先级：命令行 > 预设文件 > 配置文件
func (o *filterOptions) spec(cfg config.FilterConfig) (filter.Spec, error) {
	base := filter.Spec{
		Function:      cfg.Function,
		MinDuration:   cfg.MinDuration,
		MaxDuration:   cfg.MaxDuration,
		StartTime:     cfg.StartTime,
		EndTime:       cfg.EndTime,
		OperationType: cfg.Operation,
		Search:        cfg.Search,
	}

	presetPath := o.preset
	if presetPath == "" {
		presetPath = cfg.Preset
	}
	if presetPath != "" {
		preset, err := filter.ReadPreset(presetPath)
		if err != nil {
			return filter.Spec{}, err
		}
		base = filter.Merge(base, preset)
	}

	return filter.Merge(base, filter.Spec{
		Function:      o.function,
		MinDuration:   o.minDuration,
		MaxDuration:   o.maxDuration,
		StartTime:     o.startTime,
		EndTime:       o.endTime,
		OperationType: o.operation,
		Search:        o.search,
	}), nil
}

// commandContext 返回命令的上下文，直接调用 Execute 时为 Background
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// withSession 加载并过滤日志，然后调用 fn
func withSession(cmd *cobra.Command, path string, o *filterOptions, fn func(context.Context, *app, *session.Session) error) error {
	ctx := commandContext(cmd)
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	spec, err := o.spec(a.cfg.Filter)
	if err != nil {
		return err
	}
	s, err := a.loader.LoadSource(ctx, path)
	if err != nil {
		return err
	}
	return fn(ctx, a, a.loader.Filter(ctx, s, spec))
}
