package browsershot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/root4loot/goutils/log"
)

// Engine renders a page into req.OutputPath.
type Engine interface {
	Render(ctx context.Context, cfg RenderConfig, req Request) error
}

// NewEngine returns the engine registered for kind.
func NewEngine(kind EngineKind) (Engine, error) {
	switch kind {
	case "", EnginePhantomJS:
		return PhantomEngine{}, nil
	case EngineChrome:
		return ChromeEngine{}, nil
	case EngineRod:
		return RodEngine{}, nil
	}
	return nil, fmt.Errorf("%w: unknown engine %q", ErrInvalidArgument, kind)
}

// PhantomFlags are passed to the PhantomJS binary before the script path.
var PhantomFlags = []string{"--ssl-protocol=any", "--ignore-ssl-errors=true"}

// PhantomEngine drives a PhantomJS compatible binary through a generated script.
type PhantomEngine struct{}

// Render writes the script to a temporary file and runs the binary on it.
// The call blocks until the binary exits or ctx is done.
func (PhantomEngine) Render(ctx context.Context, cfg RenderConfig, req Request) error {
	script, err := Script(cfg, req)
	if err != nil {
		return fmt.Errorf("failed to build script: %w", err)
	}

	scriptFile, err := os.CreateTemp("", "browsershot-*.js")
	if err != nil {
		return fmt.Errorf("failed to create temp script file: %w", err)
	}
	defer os.Remove(scriptFile.Name())

	if _, err := scriptFile.WriteString(script); err != nil {
		scriptFile.Close()
		return fmt.Errorf("failed to write script: %w", err)
	}
	if err := scriptFile.Close(); err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}

	args := append(append([]string{}, PhantomFlags...), scriptFile.Name())
	cmd := exec.CommandContext(ctx, cfg.BinaryPath, args...)

	cmd.WaitDelay = time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Debugf("Running %s %s", cfg.BinaryPath, strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s: %w", ErrRenderFailure, cfg.BinaryPath, ctx.Err())
		}
		return fmt.Errorf("%w: %s exited: %w: %s", ErrRenderFailure, cfg.BinaryPath, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
