package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/franz/storefront-insights/internal/analysis"
	"github.com/franz/storefront-insights/internal/report"
	"github.com/franz/storefront-insights/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Default input file names inside --data-dir
const (
	listingsFile     = "steam.csv"
	snapshotsFile    = "steamspy_data.csv"
	requirementsFile = "steam_requirements_data.csv"
	tagsFile         = "steamspy_tag_data.csv"
)

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (SFI_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt retrieves an int config value with proper precedence
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// GetConfigBool retrieves a bool config value
func GetConfigBool(key string) bool {
	return viper.GetBool(key)
}

// intSetting prefers a changed command flag over the config key
func intSetting(cmd *cobra.Command, flag, key string, defaultValue int) int {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		v, _ := cmd.Flags().GetInt(flag)
		return v
	}
	return GetConfigInt(key, defaultValue)
}

func stringSetting(cmd *cobra.Command, flag, key string, defaultValue string) string {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	return GetConfigString(key, defaultValue)
}

func boolSetting(cmd *cobra.Command, flag, key string) bool {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
		v, _ := cmd.Flags().GetBool(flag)
		return v
	}
	return GetConfigBool(key)
}

// inputPaths resolves the four input tables. The tag matrix is optional:
// when it was not set explicitly and the default file is missing, its
// path stays empty.
func inputPaths() (listings, snapshots, requirements, tags string) {
	dir := GetConfigString("data-dir", "data")
	listings = GetConfigString("listings", filepath.Join(dir, listingsFile))
	snapshots = GetConfigString("snapshots", filepath.Join(dir, snapshotsFile))
	requirements = GetConfigString("requirements", filepath.Join(dir, requirementsFile))

	tags = viper.GetString("tags")
	if tags == "" {
		candidate := filepath.Join(dir, tagsFile)
		if _, err := os.Stat(candidate); err == nil {
			tags = candidate
		}
	}
	return listings, snapshots, requirements, tags
}

// buildAnalysisConfig merges defaults, config file, environment and the
// flags of cmd. Flags are looked up by the names used across commands.
func buildAnalysisConfig(cmd *cobra.Command) *analysis.Config {
	cfg := analysis.DefaultConfig()
	cfg.ListingsPath, cfg.SnapshotsPath, cfg.RequirementsPath, cfg.TagsPath = inputPaths()

	cfg.Limit = intSetting(cmd, "limit", "limit", cfg.Limit)
	cfg.TitleLimit = intSetting(cmd, "title-limit", "title-limit", cfg.TitleLimit)
	cfg.Strict = boolSetting(cmd, "strict", "strict")
	cfg.ZeroReviews = stringSetting(cmd, "zero-reviews", "zero-reviews", cfg.ZeroReviews)

	cfg.TrendFrom = intSetting(cmd, "from", "trend-from", cfg.TrendFrom)
	cfg.TrendTo = intSetting(cmd, "to", "trend-to", cfg.TrendTo)
	cfg.TrendCount = intSetting(cmd, "count", "trend-count", cfg.TrendCount)
	cfg.DistributionTag = stringSetting(cmd, "tag", "distribution-tag", "")

	cfg.GPULimit = intSetting(cmd, "gpu-limit", "gpu-limit", cfg.GPULimit)
	cfg.ReportDir = stringSetting(cmd, "report-dir", "report-dir", "")

	if n := GetConfigInt("retry-attempts", 0); n > 0 {
		cfg.Retry.MaxAttempts = n
	}
	return cfg
}

// setupLogging applies --verbose and --quiet
func setupLogging() {
	util.SetColors(util.IsTerminal(os.Stderr.Fd()))
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))
}

// openEventLogger creates the JSONL event log under the events directory
func openEventLogger() (*report.EventLogger, error) {
	dir := GetConfigString("events-dir", filepath.Join("artifacts", "events"))
	logger, err := report.NewEventLogger(dir, report.ParseLevel(viper.GetString("event-level")))
	if err != nil {
		return nil, fmt.Errorf("failed to create event logger: %w", err)
	}
	util.DebugLog("Event log: %s", logger.Path())
	return logger, nil
}

// commandContext is cancelled on interrupt
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}
