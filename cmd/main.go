package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cachemgr/internal/cache"
	"cachemgr/internal/config"
	"cachemgr/internal/server"
	"cachemgr/internal/stress"
	"cachemgr/pkg/logger"
)

// newRootCmd builds the command tree. Every call returns fresh flag state.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cachemgr",
		Short:         "Concurrent fixed-capacity LRU cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
				return err
			}
			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().Int("capacity", 0, "Maximum number of entries (overrides config)")
	rootCmd.PersistentFlags().Bool("optimistic-get", false, "Probe under the read lock before promoting")
	rootCmd.PersistentFlags().String("hash", "", "Key hash: murmur3 or djb2 (overrides config)")
	rootCmd.PersistentFlags().StringP("log-level", "v", "", "Log level (overrides config)")

	rootCmd.AddCommand(newStressCmd(), newServeCmd())
	return rootCmd
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run concurrent readers and writers against one cache",
		RunE:  runStress,
	}
	cmd.Flags().Int("writers", 0, "Number of writer goroutines (overrides config)")
	cmd.Flags().Int("readers", 0, "Number of reader goroutines (overrides config)")
	cmd.Flags().Int("ops", 0, "Operations per worker (overrides config)")
	cmd.Flags().Int64("seed", 0, "Random seed, 0 picks one from the clock")
	return cmd
}

func runStress(cmd *cobra.Command, args []string) error {
	cfg := configFrom(cmd.Context())
	log := logger.Named("stress")

	c, err := newCache(cfg, nil)
	if err != nil {
		return err
	}

	report, err := stress.Run(cmd.Context(), c, stress.Config{
		Writers:      cfg.Stress.Writers,
		Readers:      cfg.Stress.Readers,
		OpsPerWorker: cfg.Stress.OpsPerWorker,
		KeySpace:     cfg.Stress.KeySpace,
		DeleteEvery:  cfg.Stress.DeleteEvery,
		Seed:         cfg.Stress.Seed,
	}, log)
	c.Destroy()
	if err != nil {
		return fmt.Errorf("stress run: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Test completed successfully: %d puts, %d deletes, %d hits, %d misses, final size %d in %s\n",
		report.Puts, report.Deletes, report.Hits, report.Misses, report.FinalSize, report.Elapsed)
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve one cache over HTTP",
		RunE:  runServe,
	}
	cmd.Flags().StringP("listen", "l", "", "Address to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := configFrom(cmd.Context())

	var (
		reg      prometheus.Registerer
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics {
		r := prometheus.NewRegistry()
		r.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		reg, gatherer = r, r
	}

	c, err := newCache(cfg, reg)
	if err != nil {
		return err
	}
	defer c.Destroy()

	srv := server.New(c, gatherer, logger.Named("server"))
	return srv.Run(cmd.Context(), cfg.Listen)
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = config.FromFile(path); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("capacity") {
		cfg.Capacity, _ = flags.GetInt("capacity")
	}
	if flags.Changed("optimistic-get") {
		cfg.OptimisticGet, _ = flags.GetBool("optimistic-get")
	}
	if flags.Changed("hash") {
		cfg.Hash, _ = flags.GetString("hash")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("writers") {
		cfg.Stress.Writers, _ = flags.GetInt("writers")
	}
	if flags.Changed("readers") {
		cfg.Stress.Readers, _ = flags.GetInt("readers")
	}
	if flags.Changed("ops") {
		cfg.Stress.OpsPerWorker, _ = flags.GetInt("ops")
	}
	if flags.Changed("seed") {
		cfg.Stress.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("listen") {
		cfg.Listen, _ = flags.GetString("listen")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newCache(cfg *config.Config, reg prometheus.Registerer) (*cache.Cache, error) {
	hash, err := cache.HashByName(cfg.Hash)
	if err != nil {
		return nil, err
	}

	opts := []cache.Option{
		cache.WithBuckets(cfg.Buckets),
		cache.WithHash(hash),
		cache.WithOptimisticGet(cfg.OptimisticGet),
		cache.WithLogger(logger.Named("cache")),
	}
	if reg != nil {
		opts = append(opts, cache.WithMetrics(reg, "main"))
	}
	return cache.New(cfg.Capacity, opts...)
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.L().Error("command failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}
