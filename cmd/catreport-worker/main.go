package main

import (
	"context"
	"errors"
	"os"
	"time"

	"catreport/internal/amqp"
	"catreport/internal/cli"
	"catreport/internal/log"
	"catreport/internal/report"
	"catreport/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	logger.Info("Starting catreport-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ledger, err := cli.OpenBackend(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer ledger.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	gen := report.NewGenerator(ledger.Ledger, report.OptionsFromConfig(cfg, logger))
	reportWorker := worker.NewReportWorker(gen, cfg.ReportOutputDir, logger)

	ctx := cli.GracefulShutdown(logger, 30*time.Second, nil)
	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := amqpClient.ConsumeReportRequests(consumeCtx, reportWorker.HandleRequest); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
		cancel()
	}()
	logger.Info("Consuming report requests",
		"queue", cfg.AMQPQueue,
		log.FieldOutputPath, cfg.ReportOutputDir)

	<-consumeCtx.Done()
	logger.Info("Shutting down worker...")

	select {
	case <-done:
		logger.Info("Worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
