//go:build acceptance

package acceptance

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/irtazafoods/homecheck/internal/browser"
	"github.com/irtazafoods/homecheck/internal/config"
	"github.com/irtazafoods/homecheck/internal/report"
	"github.com/irtazafoods/homecheck/internal/suite"
)

var (
	cfg     *config.RuntimeConfig
	session *browser.Session
	rep     *suite.Report
	console = &report.Console{Out: os.Stdout}
)

func TestMain(m *testing.M) {
	cfg = config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StartTimeout+5*time.Second)
	s, err := browser.Open(ctx, cfg)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot start browser: %v\n", err)
		os.Exit(2)
	}
	session = s
	rep = &suite.Report{BaseURL: cfg.BaseURL, Started: time.Now()}

	code := m.Run()

	if err := session.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close browser: %v\n", err)
	}
	rep.Finished = time.Now()
	console.Done(rep)
	if cfg.ReportPath != "" {
		if err := report.Save(cfg.ReportPath, cfg.ReportFormat, rep); err != nil {
			fmt.Fprintf(os.Stderr, "write report: %v\n", err)
			if code == 0 {
				code = 1
			}
		}
	}
	os.Exit(code)
}
