package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/cineconnect/cineconnect/cmd/cineconnect/cli"
	"github.com/cineconnect/cineconnect/internal/app"
	"github.com/cineconnect/cineconnect/internal/observability"
	"github.com/cineconnect/cineconnect/internal/pdf/layout"
	"github.com/cineconnect/cineconnect/internal/platform/cache"
	"github.com/cineconnect/cineconnect/internal/platform/db"
	"github.com/cineconnect/cineconnect/internal/reporting"
	"github.com/cineconnect/cineconnect/internal/salesreport"
	salesreporthttp "github.com/cineconnect/cineconnect/internal/salesreport/http"
	"github.com/cineconnect/cineconnect/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}
	switch cmd {
	case "serve":
		if err := serve(ctx, cfg, logger); err != nil {
			logger.Error("serve", slog.Any("error", err))
			os.Exit(1)
		}
	case "render":
		os.Exit(runRender(ctx, cfg, logger, args))
	case "jobs":
		os.Exit(runJobs(ctx, cfg, args))
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (expected serve, render or jobs)\n", cmd)
		os.Exit(2)
	}
}

func newGenerator(cfg *app.Config, logger *slog.Logger, observer salesreport.Observer) *salesreport.Generator {
	return salesreport.NewGenerator(salesreport.Options{
		Layout:     layout.DefaultConfig(),
		Formatter:  salesreport.NewFormatter(salesreport.ParseLocale(cfg.ReportLocale), cfg.ReportCurrency),
		Brand:      cfg.ReportBrand,
		Disclaimer: cfg.ReportDisclaimer,
		Logger:     logger,
		Observer:   observer,
	})
}

func serve(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	validate := validator.New()

	reportCache := reporting.NewCache(redisClient, cfg.ReportCacheTTL)
	if err := reportCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("report cache invalidation listener", slog.Any("error", err))
	}
	dataService := reporting.NewService(reporting.NewPGRepository(pool), reportCache, logger)

	asynqOpt := cache.AsynqOpt(cfg.RedisOptions())
	queue, err := jobs.NewClient(asynqOpt)
	if err != nil {
		return fmt.Errorf("init queue client: %w", err)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()
	runService := salesreport.NewService(salesreport.NewRepository(pool), queue, validate, logger)

	reportHandler := salesreporthttp.NewHandler(logger, newGenerator(cfg, logger, metrics), runService, salesreport.NewStore(cfg.ReportStorageDir), validate)
	reportHandler.WithData(dataService)

	inspector := asynq.NewInspector(asynqOpt)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		ReportHandler: reportHandler,
		JobHandler:    jobs.NewHandler(inspector, logger),
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runRender(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	var opts cli.RenderOptions
	fs.StringVar(&opts.Kind, "kind", cli.KindSales, "document kind: sales or receipt")
	fs.StringVar(&opts.Input, "in", "-", "input JSON file, - for stdin")
	fs.StringVar(&opts.Output, "out", "", "output PDF path")
	fs.StringVar(&opts.Period, "period", "", "report period label, defaults to metadata.period")
	fs.BoolVar(&opts.JSONOutput, "json", false, "print a JSON summary")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	return cli.NewRenderCLI(newGenerator(cfg, logger, nil)).RenderCommand(ctx, opts)
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) int {
	fs := flag.NewFlagSet("jobs", flag.ContinueOnError)
	inspect := fs.Bool("inspect", false, "print default queue statistics instead of enqueuing")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	helper := cli.NewJobsCLI(cache.AsynqOpt(cfg.RedisOptions()))
	defer func() { _ = helper.Close() }()

	if *inspect {
		stats, err := helper.InspectQueue()
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs: %v\n", err)
			return 1
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n", stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return 0
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintf(os.Stderr, "jobs: task name required (%s or %s)\n", jobs.TaskSalesReportGenerate, jobs.TaskReportCacheWarmup)
		return 2
	}
	info, err := helper.Trigger(ctx, rest[0], rest[1:]...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jobs: %v\n", err)
		return 1
	}
	fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	return 0
}
