// Package browsershot renders web pages to images with a headless browser
// binary and post-processes the result.
package browsershot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/root4loot/goutils/log"
)

// Browsershot renders requests with a fixed config and engine. It holds no
// per-render state, so one value may serve concurrent Save calls as long as
// they target different output paths.
type Browsershot struct {
	Config RenderConfig
	engine Engine
}

// New returns a Browsershot using the engine named in cfg.
func New(cfg RenderConfig) (*Browsershot, error) {
	engine, err := NewEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}
	return NewWithEngine(cfg, engine), nil
}

// NewWithEngine returns a Browsershot rendering through engine.
func NewWithEngine(cfg RenderConfig, engine Engine) *Browsershot {
	return &Browsershot{Config: cfg, engine: engine}
}

// Save renders req and post-processes the image. Output path, URL, config
// and binary are all checked before the engine runs.
func (b *Browsershot) Save(ctx context.Context, req Request, opts SaveOptions) (bool, error) {
	cfg := b.Config

	if err := req.Validate(); err != nil {
		return false, err
	}

	if err := cfg.Validate(); err != nil {
		return false, err
	}

	if err := checkBinary(cfg); err != nil {
		return false, err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	log.Debugf("Rendering %s to %s (%dx%d, engine %s)", req.URL, req.OutputPath, cfg.Width, cfg.Height, cfg.Engine)

	if err := b.engine.Render(ctx, cfg, req); err != nil {
		return false, err
	}

	if err := CheckOutput(req.OutputPath); err != nil {
		return false, err
	}

	if cfg.FullPage() && !opts.Imprint {
		return true, nil
	}

	if err := PostProcess(req.OutputPath, req.URL, cfg, opts); err != nil {
		return false, err
	}

	return true, nil
}

// CheckOutput verifies that path holds a plausible screenshot.
func CheckOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRenderFailure, err)
	}
	if info.Size() < MinOutputSize {
		return fmt.Errorf("%w: %s is only %d bytes", ErrRenderFailure, path, info.Size())
	}
	return nil
}

// checkBinary requires an existing binary for phantomjs. The browser engines
// look one up themselves when no path is configured.
func checkBinary(cfg RenderConfig) error {
	if cfg.BinaryPath == "" {
		if cfg.Engine == EnginePhantomJS || cfg.Engine == "" {
			return fmt.Errorf("%w: binary path not set", ErrPrecondition)
		}
		return nil
	}

	info, err := os.Stat(cfg.BinaryPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: binary does not exist: %s", ErrPrecondition, cfg.BinaryPath)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPrecondition, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: binary is a directory: %s", ErrPrecondition, cfg.BinaryPath)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
