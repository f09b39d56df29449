package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/abiregistry/internal/control"
	"github.com/vietddude/abiregistry/internal/core/config"
	redisclient "github.com/vietddude/abiregistry/internal/infra/redis"
	"github.com/vietddude/abiregistry/internal/metrics"
)

const defaultConfigPath = "abiregistry.yaml"

var (
	cfgPath     string
	baseDir     string
	isDebug     bool
	metricsFile string
)

var rootCmd = &cobra.Command{
	Use:   "abiregistry",
	Short: "Consolidate contract ABIs and deployment addresses",
	Long: `abiregistry collects the ABIs and per-network deployment addresses written by
Foundry and Hardhat into one registry directory: <Name>.json and <Name>.address.json.`,
	Run: runConsolidate,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath, "config file")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "packages", "packages directory used when no config file exists")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write run metrics in prometheus text format to this file")
}

// loadConfig reads the config file. When the default config file is absent
// the built-in monorepo layout rooted at --base-dir is used instead.
func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	_ = godotenv.Load()

	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
			return config.Default(baseDir), nil
		}
	}
	return config.Load(cfgPath)
}

// mustLoadConfig loads configuration and installs the logger.
func mustLoadConfig(cmd *cobra.Command) *config.AppConfig {
	cfg, err := loadConfig(cmd)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
	return cfg
}

func runConsolidate(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(cmd)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := []control.Option{}
	if cfg.Mirror.Redis.Enabled() {
		mirror, err := redisclient.NewClient(cfg.Mirror.Redis)
		if err != nil {
			// The mirror is optional; the registry files are still written
			slog.Warn("Redis mirror unavailable", "error", err)
		} else {
			defer func() {
				_ = mirror.Close()
			}()
			opts = append(opts, control.WithPublisher(mirror))
		}
	}

	consolidator := control.NewConsolidator(control.Config{
		RegistryDir: cfg.RegistryDir(),
		Entities:    cfg.Entities(),
	}, opts...)

	result, err := consolidator.Run(ctx)
	if err != nil {
		slog.Error("Consolidation failed", "error", err)
		os.Exit(1)
	}

	if path := textfilePath(cfg); path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			slog.Warn("Failed to write metrics", "path", path, "error", err)
		}
	}

	for _, e := range result.Errors {
		slog.Warn("Artifact error", "entity", e.Entity, "path", e.Path, "reason", e.Reason)
	}
	slog.Info("Registry updated",
		"dir", cfg.RegistryDir(),
		"descriptors_written", result.DescriptorsWritten,
		"address_maps_written", result.AddressMapsWritten,
	)
}

func textfilePath(cfg *config.AppConfig) string {
	if metricsFile != "" {
		return metricsFile
	}
	if cfg.Metrics.Textfile != "" {
		return cfg.Path(cfg.Metrics.Textfile)
	}
	return ""
}
