package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/sapclean/internal/export"
	"github.com/JonMunkholm/sapclean/internal/logging"
	"github.com/JonMunkholm/sapclean/internal/report"
)

var (
	// ErrSourceNotFound is returned when the input file does not exist.
	ErrSourceNotFound = errors.New("source not found")

	// ErrCancelled is returned by interactive adapters when the user picks
	// nothing. Callers treat it as a clean no-op.
	ErrCancelled = errors.New("cancelled")

	// ErrExportFailed wraps failures to write the cleaned table.
	ErrExportFailed = errors.New("export failed")
)

// Run is one cleaning run: a single source turned into two tables.
type Run struct {
	ID       string         `json:"runId"`
	Source   string         `json:"source"`
	Result   *report.Result `json:"-"`
	Outcome  export.Outcome `json:"outcome"`
	Started  time.Time      `json:"started"`
	Duration time.Duration  `json:"-"`
}

// Context returns ctx tagged with the run id for logging.
func (r *Run) Context(ctx context.Context) context.Context {
	return logging.WithRunID(ctx, r.ID)
}

// Service runs the cleaning pipeline for every adapter.
type Service struct {
	opts     report.Options
	exporter *export.Exporter
}

// NewService validates opts and returns a Service. exporter may be nil for
// adapters that never write files.
func NewService(opts report.Options, exporter *export.Exporter) (*Service, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if exporter == nil {
		exporter = export.New(nil)
	}
	return &Service{opts: opts, exporter: exporter}, nil
}

// Options returns the pipeline options in use.
func (s *Service) Options() report.Options {
	return s.opts
}

// Schema returns the output columns.
func (s *Service) Schema() report.Schema {
	return s.opts.Schema
}

// Clean processes r. source names the input in logs and output file names.
// Nothing is written anywhere; see Export and Render.
func (s *Service) Clean(ctx context.Context, source string, r io.Reader) (*Run, error) {
	run := &Run{
		ID:      uuid.New().String(),
		Source:  source,
		Started: time.Now(),
	}
	ctx = run.Context(ctx)
	logger := logging.WithFields(ctx, "source", source)
	logger.Info("run started")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := report.Tokenize(r, s.opts.Encoding)
	if err != nil {
		if errors.Is(err, report.ErrEmptyInput) {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		return nil, fmt.Errorf("read source %s: %w", source, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := report.ProcessRows(rows, s.opts)
	run.Result = res
	run.Duration = time.Since(run.Started)

	logger.Debug("header located",
		"row", res.Anchor.Row,
		"column", res.Anchor.Column,
		"found", res.AnchorFound,
		"headers", res.SourceHeaders,
	)
	for _, w := range res.Warnings {
		logger.Warn(w)
	}
	logger.Info("run complete",
		"total", res.Stats.TotalConsidered,
		"kept", res.Stats.KeptRows,
		"summary", res.Stats.SummaryRows,
		"empty", res.Stats.EmptyRows,
		"missing_key", res.Stats.MissingKeyRows,
		"duration_ms", run.Duration.Milliseconds(),
	)

	return run, nil
}

// CleanFile opens path and cleans it. A missing file is ErrSourceNotFound.
func (s *Service) CleanFile(ctx context.Context, path string) (*Run, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("read source %s: %w", path, err)
	}
	defer f.Close()

	return s.Clean(ctx, path, f)
}

// Export writes run's tables according to plan and records the outcome.
func (s *Service) Export(ctx context.Context, run *Run, plan export.Plan) error {
	out, err := s.exporter.Export(run.Context(ctx), plan, s.opts.Schema, run.Result)
	run.Outcome = out
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}

// CleanFileTo cleans path and exports it with the plan built for it.
// Nothing is written when cleaning fails.
func (s *Service) CleanFileTo(ctx context.Context, path string, plan func(src string) export.Plan) (*Run, error) {
	run, err := s.CleanFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := s.Export(ctx, run, plan(path)); err != nil {
		return run, err
	}
	return run, nil
}

// Render streams the cleaned table to w in the requested format and
// returns the format actually written.
func (s *Service) Render(ctx context.Context, w io.Writer, run *Run, format export.Format) (export.Format, error) {
	got, err := s.exporter.Render(run.Context(ctx), w, format, s.opts.Schema, run.Result)
	if err != nil {
		return got, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return got, nil
}
