package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cineconnect/cineconnect/internal/app"
	jobmetrics "github.com/cineconnect/cineconnect/internal/jobs"
	"github.com/cineconnect/cineconnect/internal/pdf/layout"
	"github.com/cineconnect/cineconnect/internal/platform/cache"
	"github.com/cineconnect/cineconnect/internal/platform/db"
	"github.com/cineconnect/cineconnect/internal/reporting"
	"github.com/cineconnect/cineconnect/internal/salesreport"
	"github.com/cineconnect/cineconnect/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)

	reportCache := reporting.NewCache(redisClient, cfg.ReportCacheTTL)
	if err := reportCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("report cache invalidation listener", slog.Any("error", err))
	}
	dataService := reporting.NewService(reporting.NewPGRepository(pool), reportCache, logger)
	runService := salesreport.NewService(salesreport.NewRepository(pool), nil, nil, logger)

	generator := salesreport.NewGenerator(salesreport.Options{
		Layout:     layout.DefaultConfig(),
		Formatter:  salesreport.NewFormatter(salesreport.ParseLocale(cfg.ReportLocale), cfg.ReportCurrency),
		Brand:      cfg.ReportBrand,
		Disclaimer: cfg.ReportDisclaimer,
		Logger:     logger,
	})
	reportJob := salesreport.NewJob(salesreport.JobConfig{
		Service:   runService,
		Source:    dataService,
		Generator: generator,
		Store:     salesreport.NewStore(cfg.ReportStorageDir),
		Metrics:   metrics,
		Logger:    logger,
	})
	warmupJob := jobs.NewReportWarmupJob(dataService, logger, metrics)

	warmupTask, err := jobs.NewCacheWarmupTask(jobs.DefaultWarmupPeriods...)
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cache.AsynqOpt(cfg.RedisOptions()),
		Concurrency: cfg.WorkerConcurrency,
		Logger:      logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSalesReportGenerate, Handler: reportJob.Handle},
			{Type: jobs.TaskReportCacheWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ReportWarmupCron, Task: warmupTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
