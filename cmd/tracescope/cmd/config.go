// Package cmd 提供 tracescope 命令行工具的所有子命令实现。
// 本文件实现 config 命令及其子命令，用于管理 CLI 配置。
//
// 配置文件默认存储在 ~/.tracescope.yaml。
package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/oriys/tracescope/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configCmd 是配置管理的父命令
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage the tracescope CLI configuration.

The configuration file is stored at ~/.tracescope.yaml by default.`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View current configuration",
	RunE:  runConfigView,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Examples:
  tracescope config set output json
  tracescope config set analytics.moving_average_window 20
  tracescope config set filter.operation table-creation`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long: `Create a new configuration file with default values.

Examples:
  tracescope config init
  tracescope config init --config ./tracescope.yaml`,
	RunE: runConfigInit,
}

var configInitForce bool

// keyKind 是配置项的值类型
type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindBool
)

// validKeys 是 config set 支持的配置项
var validKeys = map[string]keyKind{
	"output":                          kindString,
	"logging.level":                   kindString,
	"logging.format":                  kindString,
	"metrics.namespace":               kindString,
	"metrics.file":                    kindString,
	"telemetry.enabled":               kindBool,
	"telemetry.sample_rate":           kindFloat,
	"analytics.moving_average_window": kindInt,
	"analytics.correlation_threshold": kindFloat,
	"analytics.histogram_bins":        kindInt,
	"export.path":                     kindString,
	"chart.width":                     kindInt,
	"chart.height":                    kindInt,
	"chart.path":                      kindString,
	"filter.function":                 kindString,
	"filter.min_duration":             kindString,
	"filter.max_duration":             kindString,
	"filter.start_time":               kindString,
	"filter.end_time":                 kindString,
	"filter.operation":                kindString,
	"filter.search":                   kindString,
	"filter.preset":                   kindString,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "覆盖已存在的配置文件")
}

func runConfigView(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	settings := viper.AllSettings()

	if viper.ConfigFileUsed() == "" {
		fmt.Fprintln(out, "No configuration file found.")
		fmt.Fprintln(out, "Run 'tracescope config init' to create a configuration file.")
		return nil
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Configuration file: %s\n\n", getConfigPath())
	fmt.Fprintln(out, string(data))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]

	kind, ok := validKeys[key]
	if !ok {
		keys := make([]string, 0, len(validKeys))
		for k := range validKeys {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown configuration key: %s (valid keys: %v)", key, keys)
	}

	value, err := parseValue(kind, raw)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	viper.Set(key, value)

	configPath := getConfigPath()
	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, value)
	return nil
}

func parseValue(kind keyKind, raw string) (interface{}, error) {
	switch kind {
	case kindInt:
		return strconv.Atoi(raw)
	case kindFloat:
		return strconv.ParseFloat(raw, 64)
	case kindBool:
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}

// runConfigInit 写出一份包含默认值的配置文件
func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil && !configInitForce {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
	}

	cfg := config.Default()
	doc := struct {
		Output        string `yaml:"output"`
		config.Config `yaml:",inline"`
	}{Output: "table", Config: *cfg}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created: %s\n", configPath)
	return nil
}
