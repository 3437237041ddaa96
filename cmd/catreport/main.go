// Command catreport renders category reports to disk or queues them for
// catreport-worker.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"catreport/internal/amqp"
	"catreport/internal/cli"
	"catreport/internal/config"
	"catreport/internal/ledger/memory"
	"catreport/internal/log"
	"catreport/internal/report"
	"catreport/internal/services"
	"catreport/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	var (
		kind    = flag.String("kind", "categories", "report kind: categories, comes or goes")
		preset  = flag.String("preset", "current_month", "date range preset")
		format  = flag.String("format", "html", "extra output next to the page: html (chart PNG) or xlsx")
		outDir  = flag.String("out", cfg.ReportOutputDir, "output directory")
		all     = flag.Bool("all", false, "render every kind and preset")
		enqueue = flag.Bool("enqueue", false, "publish requests to AMQP instead of rendering")
		imp     = flag.String("import", "", "copy a YAML ledger file into the sqlite or postgres backend and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags]\n\nPresets:\n", os.Args[0])
		for _, def := range report.Definitions() {
			if def.Kind == report.Categories {
				fmt.Fprintf(flag.CommandLine.Output(), "  %-24s %s\n", def.Preset, def.Preset.Label())
			}
		}
		fmt.Fprintln(flag.CommandLine.Output())
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	fmtOut, err := amqp.ParseFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defs := report.Definitions()
	if !*all {
		def, err := report.ParseDefinition(*kind, *preset)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		defs = []report.Definition{def}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *imp != "" {
		if err := importLedger(ctx, cfg, *imp, logger); err != nil {
			logger.Error("Failed to import ledger", log.FieldError, err)
			os.Exit(1)
		}
		return
	}
	if *enqueue {
		if err := publish(ctx, cfg, defs, fmtOut, logger); err != nil {
			logger.Error("Failed to enqueue reports", log.FieldError, err)
			os.Exit(1)
		}
		return
	}
	if err := render(ctx, cfg, defs, fmtOut, *outDir, logger); err != nil {
		logger.Error("Failed to render reports", log.FieldError, err)
		os.Exit(1)
	}
}

func render(ctx context.Context, cfg *config.Config, defs []report.Definition, format amqp.Format, outDir string, logger *log.Logger) error {
	ledger, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer ledger.Close()

	start := time.Now()
	gen := report.NewGenerator(ledger.Ledger, report.OptionsFromConfig(cfg, logger))
	var written atomic.Int64
	err = gen.GenerateAll(ctx, defs, cfg.RenderConcurrency, func(out *report.Output) error {
		paths, err := worker.WriteOutput(outDir, out, format)
		if err != nil {
			return err
		}
		written.Add(int64(len(paths)))
		logger.Debug("Report written", log.FieldReportKind, out.Definition.Kind.Slug(),
			log.FieldPreset, out.Definition.Preset.String(), log.FieldOutputPath, paths)
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("Reports rendered",
		"reports", len(defs),
		"files", written.Load(),
		log.FieldOutputPath, outDir,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

func importLedger(ctx context.Context, cfg *config.Config, path string, logger *log.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	src, err := memory.Parse(data)
	if err != nil {
		return err
	}

	ledger, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer ledger.Close()
	sink, ok := ledger.Ledger.(services.Sink)
	if !ok {
		return fmt.Errorf("backend %s does not accept imports", ledger.Type)
	}
	_, err = services.NewImporter(sink, services.DefaultImporterConfig(), logger).Import(ctx, src)
	return err
}

func publish(ctx context.Context, cfg *config.Config, defs []report.Definition, format amqp.Format, logger *log.Logger) error {
	if cfg.AMQPURL == "" {
		return fmt.Errorf("AMQP_URL is not set")
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	for _, def := range defs {
		req := amqp.NewReportRequest(def, format)
		if err := client.PublishReportRequest(ctx, req); err != nil {
			return fmt.Errorf("publish %s: %w", def, err)
		}
		logger.Info("Report request queued", log.FieldMessageID, req.ID.String(),
			log.FieldReportKind, req.Kind, log.FieldPreset, req.Preset)
	}
	return nil
}
