// Command mls-enhance enhances real-estate listing photos from the command
// line or as an MCP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/mls-photo-enhancer/internal/config"
	"github.com/ironsheep/mls-photo-enhancer/internal/enhance"
	"github.com/ironsheep/mls-photo-enhancer/internal/logging"
	"github.com/ironsheep/mls-photo-enhancer/internal/metering"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// app holds everything a subcommand needs, built once from configuration.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	enhancer *enhance.Enhancer
	meter    *metering.Meter
	closers  []func() error
}

var (
	configPath string
	logLevel   string
	current    *app
)

var rootCmd = &cobra.Command{
	Use:   "mls-enhance",
	Short: "Enhance listing photos with the safe or pro pipeline",
	Long: `mls-enhance brightens, balances and resizes real-estate listing photos.

Configuration is read from mls-enhance.yaml (or --config) and MLS_* environment
variables, e.g. MLS_ENHANCE_GAMMA=1.2 or MLS_METERING_STORE=redis.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		current = a
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./mls-enhance.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() error {
		_ = logger.Sync()
		return nil
	})
	if err := a.build(ctx); err != nil {
		_ = a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) build(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	var err error
	a.enhancer, err = enhance.New(cfg.Enhance, enhance.WithLogger(logger.Named("enhance")))
	if err != nil {
		return err
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defaultPlan, err := metering.LookupPlan(cfg.Metering.DefaultPlan)
	if err != nil {
		return err
	}
	a.meter = metering.NewMeter(store,
		metering.WithDefaultPlan(defaultPlan),
		metering.WithLogger(logger.Named("metering")),
	)

	logger.Debug("configuration loaded",
		zap.String("variant", string(cfg.Enhance.Variant)),
		zap.String("store", cfg.Metering.Store),
		zap.String("version", Version),
	)
	return nil
}

func (a *app) openStore(ctx context.Context) (metering.Store, error) {
	if a.cfg.Metering.Store != "redis" {
		return metering.NewMemoryStore(), nil
	}
	client, err := metering.NewRedisClient(ctx, a.cfg.Metering.Redis)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	a.logger.Info("using redis usage store", zap.Stringer("redis", a.cfg.Metering.Redis))
	return metering.NewRedisStore(client, a.cfg.Metering.Redis.KeyPrefix), nil
}

func (a *app) close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// run executes the command line and then releases the app, whether or not the
// command failed. Cobra skips post-run hooks after an error, so closing
// happens here.
func run(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if current != nil {
		if cerr := current.close(); err == nil {
			err = cerr
		}
		current = nil
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
