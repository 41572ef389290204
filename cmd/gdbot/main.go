package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/keshon/gdbot/internal/command"
	"github.com/keshon/gdbot/internal/commands/core"
	"github.com/keshon/gdbot/internal/commands/gd"
	"github.com/keshon/gdbot/internal/config"
	"github.com/keshon/gdbot/internal/dispatch"
	"github.com/keshon/gdbot/internal/docs"
	"github.com/keshon/gdbot/internal/i18n"
	"github.com/keshon/gdbot/internal/logging"
	"github.com/keshon/gdbot/internal/menu"
	"github.com/keshon/gdbot/internal/metrics"
	"github.com/keshon/gdbot/internal/opsserver"
	"github.com/keshon/gdbot/internal/permission"
	"github.com/keshon/gdbot/internal/platform"
	"github.com/keshon/gdbot/internal/platform/discord"
	"github.com/keshon/gdbot/internal/recovery"
	"github.com/keshon/gdbot/internal/storage"
	"github.com/keshon/gdbot/pkg/jobmgr"
	"github.com/keshon/gdbot/pkg/retrylimit"
)

const (
	appName      = "gdbot"
	drainTimeout = 10 * time.Second
)

func main() {
	var envFiles []string
	root := &cobra.Command{
		Use:           appName,
		Short:         "Discord bot with prefix commands, reaction menus and leaderboards",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			if cfg.DiscordToken == "" {
				return errors.New("DISCORD_TOKEN is required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before the environment (default .env)")
	root.AddCommand(&cobra.Command{
		Use:   "docs",
		Short: "Print the command reference as Markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			commands := command.NewRegistry()
			registerCommands(commands, core.Deps{DefaultPrefix: cfg.Prefix}, nil)
			return docs.Write(cmd.OutOrStdout(), commands, cfg.Prefix)
		},
	})

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func registerCommands(reg *command.Registry, deps core.Deps, menus *menu.Engine) {
	core.Register(reg, deps)
	reg.Register(gd.NewRankCommand(gd.Sample(), menus))
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting", zap.String("app", appName))

	store, err := storage.Open(cfg.StorageDriver, cfg.StoragePath, cfg.CacheTTL, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("close storage", zap.Error(err))
		}
	}()

	catalog, err := i18n.New(cfg.DefaultLocale)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client, err := discord.NewClient(discord.ClientOptions{
		Token:   cfg.DiscordToken,
		Limiter: retrylimit.NewAdaptiveLimiter(40, 5, 50, 1, 0.5),
		Retry:   retrylimit.DefaultConfig(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	bus := platform.NewBus(logger)
	defer bus.Close()
	metrics.BusDrops(reg, bus.Drops)

	chain := recovery.NewDefault(recovery.Options{
		OpsChannelID: cfg.OpsChannelID,
		Logger:       logger,
		Observer:     m.ErrorHandled,
	})

	checker := permission.NewChecker()
	permission.RegisterDefaults(checker, permission.Defaults{
		Owners:   cfg.OwnerIDs,
		Grants:   store,
		Platform: client,
	})

	menus := menu.NewEngine(menu.Options{
		Gateway:    client,
		Bus:        bus,
		Errors:     chain,
		Observer:   m,
		Logger:     logger,
		Timeout:    cfg.MenuTimeout,
		FlagPrefix: cfg.FlagPrefix,
	})

	commands := command.NewRegistry()
	registerCommands(commands, core.Deps{
		Store:         store,
		Menus:         menus,
		Catalog:       catalog,
		DefaultPrefix: cfg.Prefix,
		Latency:       client.Latency,
	}, menus)

	pipeline := dispatch.NewPipeline(dispatch.PipelineOptions{
		Errors:  chain,
		Checker: checker,
		History: store,
		Metrics: m,
	})

	jobs := jobmgr.NewManager(ctx, logger)
	router, err := dispatch.New(dispatch.Options{
		Gateway:       client,
		Bus:           bus,
		Commands:      commands,
		Pipeline:      pipeline,
		Settings:      store,
		Catalog:       catalog,
		Jobs:          jobs,
		DefaultPrefix: cfg.Prefix,
		FlagPrefix:    cfg.FlagPrefix,
		Observer:      m,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	started := time.Now()
	ops := opsserver.New(opsserver.Options{
		Addr:     cfg.OpsAddr,
		Gatherer: reg,
		Checks: map[string]opsserver.Check{
			"storage": func(ctx context.Context) error { return storage.Ping(ctx, store) },
		},
		Status: func() map[string]any {
			return map[string]any{
				"uptime":      time.Since(started).Round(time.Second).String(),
				"latency_ms":  client.Latency().Milliseconds(),
				"commands":    commands.Len(),
				"sessions":    menus.Registry().Len(),
				"subscribers": bus.Len(),
				"bus_drops":   bus.Drops(),
				"jobs":        jobs.List(),
			}
		},
		Logger: logger,
	})

	if err := client.Open(router.Handle); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ops.Run(gctx) })
	g.Go(func() error { return client.Run(gctx) })
	err = g.Wait()

	logger.Info("shutting down")
	closed := menus.CloseAll()
	jobs.StopAll()
	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if werr := jobs.Wait(drainCtx); werr != nil {
		logger.Warn("jobs still running at exit", zap.Strings("jobs", jobs.List()))
	}
	logger.Info("stopped", zap.Int("sessions_closed", closed))

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
