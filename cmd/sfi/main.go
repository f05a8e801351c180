package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/franz/storefront-insights/internal/util"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "sfi",
		Short: "Storefront Insights - rank studios, tag trends and graphics cards from Steam data",
		Long: `sfi (Storefront Insights) analyses a Steam storefront export.
It merges the listing, SteamSpy and requirements tables, scores developers
and publishers, finds the tags whose share moved the most over a year
window and buckets the recommended graphics cards by owners.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/sfi.yaml)")
	rootCmd.PersistentFlags().String("db", "sfi.db", "results database file")
	rootCmd.PersistentFlags().String("data-dir", "data", "directory holding the input CSV files")
	rootCmd.PersistentFlags().String("listings", "", "listing table (default <data-dir>/steam.csv)")
	rootCmd.PersistentFlags().String("snapshots", "", "SteamSpy table (default <data-dir>/steamspy_data.csv)")
	rootCmd.PersistentFlags().String("requirements", "", "requirements table (default <data-dir>/steam_requirements_data.csv)")
	rootCmd.PersistentFlags().String("tags", "", "tag matrix (default <data-dir>/steamspy_tag_data.csv)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")
	rootCmd.PersistentFlags().String("event-level", "info", "minimum level written to the event log (debug, info, warning, error)")

	for _, name := range []string{"db", "data-dir", "listings", "snapshots", "requirements", "tags", "verbose", "quiet", "event-level"} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func initConfig() {
	// .env only seeds the environment; a missing file is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		util.WarnLog("Cannot read .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("sfi")
		viper.SetConfigType("yaml")
	}

	// SFI_TREND_FROM overrides trend-from
	viper.SetEnvPrefix("SFI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	err := rootCmd.Execute()
	util.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
