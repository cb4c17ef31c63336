package browsershot

import (
	"context"
	"fmt"
	"os"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/root4loot/goutils/log"
)

// fullPageLayoutHeight is the viewport height used to lay out a page before a
// full page capture grows it to the content height.
const fullPageLayoutHeight = 1080

// ChromeEngine renders through a Chrome or Chromium binary over the DevTools protocol.
type ChromeEngine struct{}

// Render launches the browser at cfg.BinaryPath, loads the page, waits
// cfg.Delay and writes the capture in the format of the output extension.
func (ChromeEngine) Render(ctx context.Context, cfg RenderConfig, req Request) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromeFlags(cfg)...)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	cctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Debugf))
	defer cancel()

	height := cfg.Height
	if cfg.FullPage() {
		height = fullPageLayoutHeight
	}

	var buf []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(cfg.Width), int64(height)),
		chromedp.Navigate(req.URL),
		chromedp.Sleep(cfg.Delay),
	}

	if cfg.FullPage() {
		// FullScreenshot encodes PNG only at quality 100.
		quality := 100
		if req.IsJPEG() {
			quality = cfg.Quality
		}
		tasks = append(tasks, chromedp.FullScreenshot(&buf, quality))
	} else {
		tasks = append(tasks, chromedp.ActionFunc(func(ctx context.Context) error {
			capture := page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng)
			if req.IsJPEG() {
				capture = page.CaptureScreenshot().
					WithFormat(page.CaptureScreenshotFormatJpeg).
					WithQuality(int64(cfg.Quality))
			}
			var err error
			buf, err = capture.Do(ctx)
			return err
		}))
	}

	if err := chromedp.Run(cctx, tasks); err != nil {
		return fmt.Errorf("%w: chrome render of %s: %w", ErrRenderFailure, req.URL, err)
	}

	if err := os.WriteFile(req.OutputPath, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	return nil
}

// chromeFlags returns the allocator options derived from cfg.
func chromeFlags(cfg RenderConfig) []chromedp.ExecAllocatorOption {
	flags := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	}

	if cfg.BinaryPath != "" {
		flags = append(flags, chromedp.ExecPath(cfg.BinaryPath))
	}

	if cfg.UserAgent != "" {
		flags = append(flags, chromedp.UserAgent(cfg.UserAgent))
	}

	return flags
}
