package browsershot

import (
	"context"
	"fmt"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// lookBrowser finds a locally installed browser for rod.
var lookBrowser = launcher.LookPath

// RodEngine renders through a Chrome binary launched and driven by rod.
type RodEngine struct{}

// Render follows the same steps as ChromeEngine using the rod launcher.
func (RodEngine) Render(ctx context.Context, cfg RenderConfig, req Request) error {
	bin := cfg.BinaryPath
	if bin == "" {
		var found bool
		if bin, found = lookBrowser(); !found {
			return fmt.Errorf("%w: no browser binary found for rod", ErrPrecondition)
		}
	}

	l := launcher.New().
		Context(ctx).
		Bin(bin).
		Headless(true).
		NoSandbox(true)

	l.Set("ignore-certificate-errors", "true")

	if cfg.UserAgent != "" {
		l.Set("user-agent", cfg.UserAgent)
	}
	defer l.Cleanup()

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: launching %s: %w", ErrRenderFailure, bin, err)
	}

	browser := rod.New().Context(ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("%w: connecting to browser: %w", ErrRenderFailure, err)
	}
	defer browser.Close()

	p, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("%w: opening page: %w", ErrRenderFailure, err)
	}

	height := cfg.Height
	if cfg.FullPage() {
		height = fullPageLayoutHeight
	}

	err = p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.Width,
		Height:            height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	})
	if err != nil {
		return fmt.Errorf("%w: setting viewport: %w", ErrRenderFailure, err)
	}

	if err := p.Navigate(req.URL); err != nil {
		return fmt.Errorf("%w: navigating to %s: %w", ErrRenderFailure, req.URL, err)
	}

	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %s did not load: %w", ErrRenderFailure, req.URL, err)
	}

	if err := sleep(ctx, cfg.Delay); err != nil {
		return fmt.Errorf("%w: %w", ErrRenderFailure, err)
	}

	shot := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
	if req.IsJPEG() {
		shot.Format = proto.PageCaptureScreenshotFormatJpeg
		shot.Quality = gson.Int(cfg.Quality)
	}

	buf, err := p.Screenshot(cfg.FullPage(), shot)
	if err != nil {
		return fmt.Errorf("%w: capturing %s: %w", ErrRenderFailure, req.URL, err)
	}

	if err := os.WriteFile(req.OutputPath, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	return nil
}
