package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"catreport/internal/cache"
	"catreport/internal/cli"
	apphttp "catreport/internal/http"
	"catreport/internal/log"
	"catreport/internal/report"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)

	ledger, err := cli.OpenBackend(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer ledger.Close()

	gen := report.NewGenerator(ledger.Ledger, report.OptionsFromConfig(cfg, logger))
	reports := cache.NewReports(gen, cfg.ReportCacheSize, cfg.ReportCacheTTL)

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(reports)
	cacheManager.StartCleanup(cfg.ReportCacheTTL)
	defer cacheManager.Stop()

	srv := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		Reports:        reports,
		Pinger:         ledger.Pinger(),
		BaseCurrency:   cfg.BaseCurrency,
		DateFormat:     cfg.DateFormat,
		TrustedProxies: cfg.TrustedProxies,
		Logger:         logger,
	})

	ctx := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting catreport server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
