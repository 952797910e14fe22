// Command sapclean turns raw SAP goods movement exports into a cleaned,
// typed table plus an audit table of the rows it removed.
//
//	sapclean clean report.txt
//	sapclean save report.txt --to cleaned.xlsx
//	sapclean downloads report.txt --format csv
//	sapclean serve
//
// Settings come from the environment (optionally a .env file), a report
// profile and the global flags, in increasing order of precedence.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/JonMunkholm/sapclean/internal/config"
	"github.com/JonMunkholm/sapclean/internal/core"
	"github.com/JonMunkholm/sapclean/internal/export"
	"github.com/JonMunkholm/sapclean/internal/logging"
)

// runner holds what the commands share once setup has run.
type runner struct {
	lookup config.LookupFunc
	prompt *prompter
	out    io.Writer
	errOut io.Writer

	cfg *config.Config
}

func main() {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	r := &runner{
		lookup: os.LookupEnv,
		prompt: newPrompter(os.Stdin, os.Stdout, interactive),
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	os.Exit(r.run(os.Args))
}

// run executes the command line and returns the process exit code.
// A cancelled prompt is a clean exit.
func (r *runner) run(args []string) int {
	err := r.app().Run(args)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, core.ErrCancelled):
		fmt.Fprintln(r.out, "cancelled")
		return 0
	default:
		ue := core.NewUserError(err)
		level := slog.LevelError
		if core.IsUserFacing(err) {
			level = slog.LevelWarn
		}
		slog.Log(context.Background(), level, "command failed", "error", ue.Technical, "code", ue.User.Code)
		fmt.Fprintf(r.errOut, "Error: %s\n", ue.Detail())
		return 1
	}
}

func (r *runner) app() *cli.App {
	return &cli.App{
		Name:           "sapclean",
		Usage:          "clean SAP goods movement reports",
		DefaultCommand: "clean",
		Writer:         r.out,
		ErrWriter:      r.errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "profile", Usage: "YAML or TOML report profile (overrides REPORT_PROFILE)"},
			&cli.StringFlag{Name: "encoding", Usage: "input encoding: auto, utf-8, windows-1252, iso-8859-1, utf-16le, utf-16be"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "text or json"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "variables file loaded before the environment is read"},
		},
		Before:   r.setup,
		Commands: r.commands(),
	}
}

// setup loads configuration, applies the global flags and configures
// logging. It runs before every command.
func (r *runner) setup(c *cli.Context) error {
	envErr := godotenv.Overload(c.String("env-file"))

	cfg, err := config.LoadFrom(r.lookup)
	if err != nil {
		return err
	}
	if c.IsSet("profile") {
		cfg.Report.ProfilePath = c.String("profile")
	}
	if c.IsSet("encoding") {
		cfg.Report.Encoding = c.String("encoding")
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Logging.Format = c.String("log-format")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if envErr != nil {
		slog.Debug("no .env file loaded, using environment variables", "file", c.String("env-file"))
	}
	slog.Debug("configuration loaded", "config", cfg.String())

	r.cfg = cfg
	return nil
}

// service builds the cleaning service from the loaded configuration.
// Spreadsheet output is left out when EXPORT_SPREADSHEET is false, which
// sends every workbook request down the CSV fallback.
func (r *runner) service() (*core.Service, error) {
	opts, err := r.cfg.ReportOptions()
	if err != nil {
		return nil, err
	}

	var sheets export.SheetWriter
	if r.cfg.Export.Spreadsheet {
		sheets = export.ExcelWriter{}
	}
	return core.NewService(opts, export.New(sheets))
}
