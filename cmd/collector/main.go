// Command collector runs one indicator collection pass over the A-share
// universe and writes per-board and combined tables.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ashcli/internal/config"
	"ashcli/internal/exporter"
	"ashcli/internal/failover"
	"ashcli/internal/infrastructure"
	"ashcli/internal/pipeline"
	"ashcli/internal/reconcile"
	"ashcli/internal/sources"
	transporthttp "ashcli/internal/transport/http"
	"ashcli/internal/universe"
	ws "ashcli/internal/websocket"
)

func main() {
	date := flag.String("date", "", "trading date YYYY-MM-DD, empty for latest")
	workers := flag.Int("workers", 0, "parallel fetch workers, 1 for serial (overrides config)")
	maxPerBoard := flag.Int("max-per-board", -1, "cap securities per board, 0 for no cap (overrides config)")
	codes := flag.String("codes", "", "comma-separated code list, skips universe listing")
	outDir := flag.String("out", "", "output directory (defaults to reports dir next to the executable)")
	format := flag.String("format", "csv", "output format: csv, xlsx or both")
	listen := flag.String("listen", "", "enable the status server on this address, e.g. :8080")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	applyFlags(cfg, *date, *workers, *maxPerBoard, *listen)

	paths, err := cfg.ResolvePaths()
	if err != nil {
		slog.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create directories", "error", err)
		os.Exit(1)
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging, paths.LogsDir)
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		logger.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}

	sink, err := buildSink(*outDir, *format, paths)
	if err != nil {
		logger.Error("Invalid output format", "format", *format)
		os.Exit(1)
	}

	list, err := buildSources(cfg, logger)
	if err != nil {
		logger.Error("Failed to build sources", "error", err)
		os.Exit(1)
	}

	resolver := failover.New(cfg.Collector.CallTimeout, logger)
	enum := universe.New(resolver, logger)
	pl := pipeline.New(enum, resolver, reconcile.Default(), sink, pipeline.Options{
		Date:         cfg.Collector.Date,
		Workers:      cfg.Collector.Workers,
		MaxPerBoard:  cfg.Collector.MaxPerBoard,
		RequestDelay: cfg.Collector.RequestDelay,
	}, logger)

	observers := pipeline.ObserverFunc(func(pipeline.Event) {})
	var metrics *infrastructure.CollectorMetrics
	if providers.MeterProvider != nil {
		metrics, err = infrastructure.CreateCollectorMetrics(providers.Meter)
		if err != nil {
			logger.Error("Failed to create metrics", "error", err)
			os.Exit(1)
		}
		metricsObserver := infrastructure.NewMetricsObserver(metrics)
		observers = func(e pipeline.Event) { metricsObserver.EntityDone(e) }
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureTraceID(ctx)

	var statusServer *transporthttp.StatusServer
	hub := ws.NewHub(logger)
	if cfg.Server.Listen != "" {
		hub.Start()
		defer hub.Stop()
		eventObserver := ws.NewEventObserver(hub, pl)
		inner := observers
		observers = func(e pipeline.Event) {
			inner(e)
			eventObserver.EntityDone(e)
		}

		statusServer = transporthttp.NewStatusServer(cfg.Server, pl, hub, providers.PrometheusHTTP, logger)
		go func() {
			if err := statusServer.Start(); err != nil {
				logger.Error("Status server failed", "error", err)
			}
		}()
	}
	pl.SetObserver(observers)

	if metrics != nil {
		metrics.RunsTotal.Add(ctx, 1)
	}

	var summary *pipeline.Summary
	if *codes != "" {
		summary, err = pl.CollectCodes(ctx, list, strings.Split(*codes, ","))
	} else {
		summary, err = pl.Run(ctx, list)
	}

	if statusServer != nil {
		if summary != nil {
			hub.Broadcast(ws.TypeSummary, summary)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		if shutdownErr := statusServer.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("Status server shutdown failed", "error", shutdownErr)
		}
		cancel()
	}
	if providers != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = providers.Shutdown(shutdownCtx)
		cancel()
	}

	if summary != nil {
		logger.Info("Run summary",
			slog.String("run_id", summary.RunID),
			slog.Int("total", summary.Total),
			slog.Int("succeeded", summary.Succeeded),
			slog.Int("placeholders", summary.Placeholders),
			slog.Any("outputs", summary.Outputs),
			slog.Duration("elapsed", summary.Elapsed))
	}
	if err != nil {
		logger.Error("Collection failed", "error", err)
		os.Exit(1)
	}
}

// applyFlags lets command line flags override the loaded configuration.
func applyFlags(cfg *config.Config, date string, workers, maxPerBoard int, listen string) {
	if date != "" {
		cfg.Collector.Date = date
	}
	if workers > 0 {
		cfg.Collector.Workers = workers
	}
	if maxPerBoard >= 0 {
		cfg.Collector.MaxPerBoard = maxPerBoard
	}
	if listen != "" {
		cfg.Server.Listen = listen
	}
}

// buildSink assembles the output sink for the requested format.
func buildSink(outDir, format string, paths *config.Paths) (pipeline.Sink, error) {
	dir := outDir
	if dir == "" {
		dir = paths.ReportsDir
	}
	switch format {
	case "csv":
		return exporter.NewCSVSink(dir), nil
	case "xlsx":
		return exporter.NewExcelSink(dir), nil
	case "both":
		return exporter.MultiSink{exporter.NewCSVSink(dir), exporter.NewExcelSink(dir)}, nil
	default:
		return nil, os.ErrInvalid
	}
}

// buildSources assembles the adapters in the configured priority order.
func buildSources(cfg *config.Config, logger *slog.Logger) (sources.PriorityList, error) {
	client := &http.Client{Timeout: cfg.Collector.CallTimeout}

	var list sources.PriorityList
	for _, name := range cfg.Collector.SourceOrder {
		switch name {
		case "eastmoney":
			list = append(list, sources.NewEastmoney(sources.EastmoneyConfig{
				PageSize:  cfg.Sources.PageSize,
				PageCap:   cfg.Sources.PageCap,
				PageDelay: cfg.Sources.PageDelay,
				UserAgent: cfg.Sources.UserAgent,
			}, client, logger))
		case "szse":
			list = append(list, sources.NewSZSE(sources.SZSEConfig{
				UserAgent: cfg.Sources.UserAgent,
			}, client, logger))
		case "sse":
			list = append(list, sources.NewSSE(sources.SSEConfig{
				PageSize:  cfg.Sources.PageSize,
				UserAgent: cfg.Sources.UserAgent,
			}, client, logger))
		case "ths":
			list = append(list, sources.NewTHS(sources.THSConfig{
				Headless: cfg.Sources.Headless,
			}, logger))
		default:
			return nil, os.ErrInvalid
		}
	}
	return list, nil
}
