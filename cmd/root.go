package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tanq16/splitdl/internal/config"
	"github.com/tanq16/splitdl/internal/output"
	"github.com/tanq16/splitdl/internal/utils"
)

var (
	saveDir     string
	connections int
	timeout     time.Duration
	userAgent   string
	rateLimit   string
	configFile  string
	debug       bool
)

var SplitdlVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "splitdl [URL]",
	Short:   "splitdl downloads a file over parallel HTTP range requests",
	Version: SplitdlVersion,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			output.PrintError(err.Error())
			os.Exit(1)
		}
		utils.InitLogger(cfg.Debug)
		if !runDownload(cmd.Context(), cfg, args[0]) {
			os.Exit(1)
		}
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&saveDir, "output", "o", "", "Directory to save into (default: current directory)")
	rootCmd.Flags().IntVarP(&connections, "connections", "c", 0, fmt.Sprintf("Number of parallel connections, 1 to %d (default: %d)", utils.MaxWorkers(), utils.MaxWorkers()))
	rootCmd.Flags().StringVarP(&rateLimit, "limit", "l", "", "Cap the combined download rate (eg. 500KB, 4MB)")

	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 0, "Time to wait for response headers (eg. 5s, 10m) (default: 3m)")
	rootCmd.PersistentFlags().StringVarP(&userAgent, "user-agent", "a", "", fmt.Sprintf("User agent (default: %s)", utils.ToolUserAgent))
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newProbeCmd())
}

// loadConfig layers defaults, the config file, SPLITDL_ variables and flags.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		fileCfg, err := config.LoadFromFile(configFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = fileCfg
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}
	limit, err := utils.ParseBytes(rateLimit)
	if err != nil {
		return config.Config{}, fmt.Errorf("parse --limit: %w", err)
	}
	return cfg.Merge(config.Config{
		SaveDir:   saveDir,
		Workers:   connections,
		Timeout:   timeout,
		UserAgent: userAgent,
		RateLimit: limit,
		Debug:     debug,
	}), nil
}
