package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/irtazafoods/homecheck/internal/browser"
	"github.com/irtazafoods/homecheck/internal/config"
	"github.com/irtazafoods/homecheck/internal/live"
	"github.com/irtazafoods/homecheck/internal/report"
	"github.com/irtazafoods/homecheck/internal/scenario"
	"github.com/irtazafoods/homecheck/internal/suite"
)

type runOptions struct {
	baseURL   string
	driver    string
	cdpURL    string
	window    string
	report    string
	format    string
	live      string
	scenarios []string
	headed    bool
}

func (o *runOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.baseURL, "base-url", "", "frontend origin to test (default "+config.DefaultBaseURL+")")
	fs.StringVar(&o.driver, "driver", "", "path to the Chrome executable (default "+config.DefaultDriverPath+")")
	fs.StringVar(&o.cdpURL, "cdp-url", "", "attach to a running Chrome at this DevTools URL instead of launching one")
	fs.StringVar(&o.window, "window", "", "browser window size as WIDTHxHEIGHT")
	fs.StringVarP(&o.report, "report", "o", "", "write a report to this file")
	fs.StringVar(&o.format, "format", "", "report format: html, json or yaml (default from file extension)")
	fs.StringVar(&o.live, "live", "", "serve live progress on this address, e.g. :7070")
	fs.StringSliceVarP(&o.scenarios, "scenario", "s", nil, "scenario to run (repeatable; default all non-optional)")
	fs.BoolVar(&o.headed, "headed", false, "show the browser window")
}

// apply overrides cfg with the flags that were set on the command line.
func (o *runOptions) apply(fs *pflag.FlagSet, cfg *config.RuntimeConfig) error {
	if fs.Changed("base-url") {
		cfg.BaseURL = o.baseURL
	}
	if fs.Changed("driver") {
		cfg.DriverPath = o.driver
	}
	if fs.Changed("cdp-url") {
		cfg.CdpURL = o.cdpURL
	}
	if fs.Changed("window") {
		w, h, err := config.ParseWindow(o.window)
		if err != nil {
			return err
		}
		cfg.WindowWidth, cfg.WindowHeight = w, h
	}
	if fs.Changed("report") {
		cfg.ReportPath = o.report
	}
	if fs.Changed("format") {
		cfg.ReportFormat = o.format
	}
	if fs.Changed("live") {
		cfg.LiveAddr = o.live
	}
	if fs.Changed("scenario") {
		cfg.Scenarios = o.scenarios
	}
	if fs.Changed("headed") {
		cfg.Headless = !o.headed
	}
	return nil
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the homepage scenarios",
		Long: `Run opens one browser session, runs the selected scenarios in order and
releases the browser. Exit status is 0 when no scenario failed, 1 when at
least one failed and 2 when the browser could not be started.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := opts.apply(cmd.Flags(), cfg); err != nil {
				return &exitError{code: exitStartup, err: err}
			}
			return runSuite(cmd, cfg)
		},
	}
	opts.addFlags(cmd.Flags())
	return cmd
}

func runSuite(cmd *cobra.Command, cfg *config.RuntimeConfig) error {
	selected, err := scenario.Select(cfg.Scenarios)
	if err != nil {
		return &exitError{code: exitStartup, err: err}
	}
	if cfg.ReportPath != "" {
		if _, err := report.FormatFor(cfg.ReportPath, cfg.ReportFormat); err != nil {
			return &exitError{code: exitStartup, err: err}
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observers := []suite.Observer{&report.Console{Out: cmd.OutOrStdout()}}
	if cfg.LiveAddr != "" {
		srv := live.New()
		addr, err := srv.Start(cfg.LiveAddr)
		if err != nil {
			return &exitError{code: exitStartup, err: err}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Live progress: ws://%s/events\n", addr)
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutCtx); err != nil {
				slog.Warn("live server shutdown", "err", err)
			}
		}()
		observers = append(observers, srv)
	}

	slog.Info("starting suite", "base", cfg.BaseURL, "scenarios", len(selected))

	var rep *suite.Report
	open := func(ctx context.Context) (suite.Session, error) {
		s, err := browser.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	err = suite.WithSession(ctx, open, func(ctx context.Context, s suite.Session) error {
		rep = (&suite.Runner{
			Page:      s,
			Config:    cfg,
			Scenarios: selected,
			Observers: observers,
		}).Run(ctx)
		return nil
	})
	if rep == nil {
		return &exitError{code: exitStartup, err: fmt.Errorf("browser session: %w", err)}
	}
	if err != nil {
		slog.Warn("suite finished with session error", "err", err)
	}

	if cfg.ReportPath != "" {
		if err := report.Save(cfg.ReportPath, cfg.ReportFormat, rep); err != nil {
			return &exitError{code: exitFailed, err: err}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", cfg.ReportPath)
	}

	if rep.Failed() {
		return &exitError{code: exitFailed, err: fmt.Errorf("%d of %d scenarios failed", rep.FailedCount, len(rep.Results))}
	}
	return nil
}
