// Package worker renders queued report requests to files.
package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"catreport/internal/amqp"
	"catreport/internal/log"
	"catreport/internal/report"
)

// Generator is the part of report.Generator the worker needs.
type Generator interface {
	Generate(ctx context.Context, def report.Definition) (*report.Output, error)
}

// ReportWorker writes <kind>-<preset>.html plus the chart or the
// spreadsheet into an output directory.
type ReportWorker struct {
	gen    Generator
	outDir string
	logger *log.Logger
}

func NewReportWorker(gen Generator, outDir string, logger *log.Logger) *ReportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ReportWorker{
		gen:    gen,
		outDir: outDir,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRequest processes a single report request from AMQP
func (w *ReportWorker) HandleRequest(ctx context.Context, req *amqp.ReportRequest) error {
	start := time.Now()
	def, err := req.Definition()
	if err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	w.logger.InfoContext(ctx, "Processing report request",
		log.FieldMessageID, req.ID.String(),
		log.FieldReportKind, req.Kind,
		log.FieldPreset, req.Preset,
		log.FieldFormat, string(req.Format))

	out, err := w.gen.Generate(ctx, def)
	if err != nil {
		return fmt.Errorf("generate %s: %w", def, err)
	}

	paths, err := WriteOutput(w.outDir, out, req.Format)
	if err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Report written",
		log.FieldMessageID, req.ID.String(),
		log.FieldOutputPath, paths,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// WriteOutput stores the HTML page, the chart PNG it links to when there is
// one, and the XLSX export for FormatXLSX. It returns the written paths.
func WriteOutput(dir string, out *report.Output, format amqp.Format) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	base := filepath.Join(dir, out.Definition.Slug())
	files := []struct {
		path string
		data []byte
	}{
		{base + ".html", out.HTML},
	}

	if out.Chart != nil {
		files = append(files, struct {
			path string
			data []byte
		}{filepath.Join(dir, out.ChartName), out.Chart})
	}
	if format == amqp.FormatXLSX {
		x, err := out.XLSX()
		if err != nil {
			return nil, fmt.Errorf("export xlsx: %w", err)
		}
		files = append(files, struct {
			path string
			data []byte
		}{base + ".xlsx", x})
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		if err := writeFileAtomic(f.path, f.data); err != nil {
			return paths, err
		}
		paths = append(paths, f.path)
	}
	return paths, nil
}

// writeFileAtomic writes through a temp file so readers never see a partial report.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
