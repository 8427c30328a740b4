package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/irtazafoods/homecheck/internal/assets"
	"github.com/irtazafoods/homecheck/internal/config"
)

func buildOpts(cfg *config.RuntimeConfig, exe string) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.ExecPath(exe),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-infobars", true),
	)

	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	return opts
}

func setupAllocator(cfg *config.RuntimeConfig) (context.Context, context.CancelFunc, error) {
	if cfg.CdpURL != "" {
		slog.Info("connecting to chrome", "url", cfg.CdpURL)
		ctx, cancel := chromedp.NewRemoteAllocator(context.Background(), cfg.CdpURL)
		return ctx, cancel, nil
	}

	exe, err := ResolveDriver(cfg.DriverPath)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("launching chrome", "driver", exe, "headless", cfg.Headless,
		"window", fmt.Sprintf("%dx%d", cfg.WindowWidth, cfg.WindowHeight))

	ctx, cancel := chromedp.NewExecAllocator(context.Background(), buildOpts(cfg, exe)...)
	return ctx, cancel, nil
}

// startChrome performs the first Run on the browser context, which launches
// or attaches to the browser. It is bounded by cfg.StartTimeout and by the
// caller's ctx without deriving the browser context from either.
func startChrome(ctx context.Context, allocCtx context.Context, cfg *config.RuntimeConfig) (context.Context, context.CancelFunc, error) {
	bCtx, bCancel := chromedp.NewContext(allocCtx)

	timeout := cfg.StartTimeout
	if timeout <= 0 {
		timeout = defaultStartTimeout
	}
	startCtx, startDone := context.WithTimeout(ctx, timeout)
	defer startDone()

	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(assets.StealthScript).Do(ctx)
			return err
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetDeviceMetricsOverride(int64(cfg.WindowWidth), int64(cfg.WindowHeight), 1, false).Do(ctx)
		}),
	}
	if override := userAgentOverride(cfg.UserAgent); override != nil {
		actions = append(actions, override)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- chromedp.Run(bCtx, actions...)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			bCancel()
			return nil, nil, err
		}
		return bCtx, bCancel, nil
	case <-startCtx.Done():
		bCancel()
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("timed out after %s", timeout)
	}
}
