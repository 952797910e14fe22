package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/JonMunkholm/sapclean/internal/core"
	"github.com/JonMunkholm/sapclean/internal/export"
	"github.com/JonMunkholm/sapclean/internal/web"
)

func (r *runner) commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "clean",
			Usage:     "clean a report and write the results next to it",
			ArgsUsage: "[FILE]",
			Action:    r.cleanAction,
		},
		{
			Name:      "save",
			Usage:     "clean a report and save it under a chosen name (.xlsx or .csv)",
			ArgsUsage: "[SOURCE]",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "to", Usage: "target file; the extension picks the format"},
			},
			Action: r.saveAction,
		},
		{
			Name:      "downloads",
			Usage:     "clean a report into the downloads folder",
			ArgsUsage: "[FILE]",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "format", Usage: "xlsx or csv (default: EXPORT_FORMAT)"},
			},
			Action: r.downloadsAction,
		},
		{
			Name:   "serve",
			Usage:  "run the HTTP API",
			Action: r.serveAction,
		},
	}
}

// sourceArg returns the first argument or asks for one.
func (r *runner) sourceArg(c *cli.Context) (string, error) {
	if p := c.Args().First(); p != "" {
		return cleanPath(p), nil
	}
	return r.prompt.ask("Path to the SAP report (q to quit): ")
}

// cleanAction writes <stem>_cleaned.csv and <stem>_cleaned.xlsx beside the
// source.
func (r *runner) cleanAction(c *cli.Context) error {
	src, err := r.sourceArg(c)
	if err != nil {
		return err
	}
	return r.cleanTo(c.Context, src, export.BesideSource)
}

// saveAction writes to a user-chosen target.
func (r *runner) saveAction(c *cli.Context) error {
	src, err := r.sourceArg(c)
	if err != nil {
		return err
	}

	target := cleanPath(c.String("to"))
	if target == "" {
		if target, err = r.prompt.ask("Save cleaned report as (.xlsx or .csv, blank to cancel): "); err != nil {
			return err
		}
	}
	return r.cleanTo(c.Context, src, func(string) export.Plan { return export.ForTarget(target) })
}

// downloadsAction writes into REPORT_DOWNLOADS_DIR or ~/Downloads.
func (r *runner) downloadsAction(c *cli.Context) error {
	format := r.cfg.Export.Format
	if c.IsSet("format") {
		format = c.String("format")
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}

	src, err := r.sourceArg(c)
	if err != nil {
		return err
	}

	dir, err := r.downloadsDir()
	if err != nil {
		return err
	}
	return r.cleanTo(c.Context, src, func(src string) export.Plan { return export.InDir(dir, src, f) })
}

func (r *runner) downloadsDir() (string, error) {
	dir := r.cfg.Export.DownloadsDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: locate downloads folder: %w", core.ErrExportFailed, err)
		}
		dir = filepath.Join(home, "Downloads")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrExportFailed, err)
	}
	return dir, nil
}

func (r *runner) cleanTo(ctx context.Context, src string, plan func(string) export.Plan) error {
	svc, err := r.service()
	if err != nil {
		return err
	}
	run, err := svc.CleanFileTo(ctx, src, plan)
	if err != nil {
		return err
	}
	printSummary(r.out, run, svc.Schema())
	return nil
}

// serveAction runs the HTTP API until SIGINT or SIGTERM, then drains
// running cleans within SERVER_SHUTDOWN_TIMEOUT.
func (r *runner) serveAction(c *cli.Context) error {
	svc, err := r.service()
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(r.cfg.Export.Format)
	if err != nil {
		return err
	}
	srv := web.NewServer(svc, r.cfg.Server, format)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), r.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("running cleans did not finish in time")
		}
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
