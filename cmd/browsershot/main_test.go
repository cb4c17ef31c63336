package main

import (
	"context"
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	browsershot "github.com/root4loot/browsershot"
	"github.com/root4loot/browsershot/internal/config"
	shot "github.com/root4loot/browsershot/pkg/browsershot"
)

type grayEngine struct {
	failFor string
}

func (e grayEngine) Render(_ context.Context, cfg shot.RenderConfig, req shot.Request) error {
	if req.URL == e.failFor {
		return shot.ErrRenderFailure
	}
	rng := rand.New(rand.NewSource(int64(len(req.URL))))
	img := image.NewGray(image.Rect(0, 0, cfg.Width, cfg.Height))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return imaging.Save(img, req.OutputPath)
}

func writeBinary(t *testing.T) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "phantomjs")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))
	return bin
}

func TestParseFlagsAliases(t *testing.T) {
	cli := newCLI()
	require.NoError(t, cli.parseFlags([]string{"-t", "example.com", "--capture-width", "800", "-q", "70", "-cf", "-d", "1.5", "--imprint"}))

	assert.Equal(t, "example.com", cli.TargetURL)
	assert.Equal(t, 800, cli.Width)
	assert.Equal(t, 70, cli.Quality)
	assert.True(t, cli.FullPage)
	assert.True(t, cli.Imprint)
	assert.Equal(t, 1.5, cli.Delay)
	assert.True(t, cli.isSet("cw", "capture-width"))
	assert.False(t, cli.isSet("ch", "capture-height"))
}

func TestParseFlagsUnknown(t *testing.T) {
	cli := newCLI()
	assert.Error(t, cli.parseFlags([]string{"--no-such-flag"}))
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	bin := writeBinary(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
render:
  binary_path: `+bin+`
  width: 1024
  height: 768
  quality: 60
batch:
  concurrency: 4
  outfolder: /tmp/from-file
`), 0o644))

	cli := newCLI()
	require.NoError(t, cli.parseFlags([]string{"--config", path, "-ch", "500", "-to", "10", "-ad", "-rw", "320"}))

	cfg, err := cli.loadConfig()
	require.NoError(t, err)

	assert.Equal(t, bin, cfg.Render.BinaryPath)
	assert.Equal(t, 1024, cfg.Render.Width)
	assert.Equal(t, 500, cfg.Render.Height)
	assert.Equal(t, 60, cfg.Render.Quality)
	assert.Equal(t, 10*time.Second, cfg.Render.Timeout)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.Equal(t, "/tmp/from-file", cfg.Batch.Outfolder)
	assert.True(t, cfg.Batch.AvoidDuplicates)
	assert.Equal(t, 320, cfg.Batch.ResizeWidth)

	options, err := cli.runnerOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, 500, options.Render.Height)
	assert.Equal(t, 320, options.Save.ResizeWidth)
	assert.Equal(t, "/tmp/from-file", options.SaveScreenshotsPath)
}

func TestLoadConfigRejectsInvalidFlags(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	cli := newCLI()
	require.NoError(t, cli.parseFlags([]string{"-t", "example.com", "-q", "101"}))

	_, err := cli.loadConfig()
	assert.ErrorIs(t, err, shot.ErrInvalidArgument)
}

func TestLoadConfigBinaryFromEnv(t *testing.T) {
	bin := writeBinary(t)
	t.Setenv("CONFIG_PATH", "")
	t.Setenv(config.BinaryEnv, bin)

	cli := newCLI()
	require.NoError(t, cli.parseFlags([]string{"-t", "example.com"}))

	cfg, err := cli.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, bin, cfg.Render.BinaryPath)
}

func TestReadFileLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.txt")
	require.NoError(t, os.WriteFile(path, []byte("example.com\n\n  https://example.org/a  \n"), 0o644))

	lines, err := readFileLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com", "https://example.org/a"}, lines)

	_, err = readFileLines(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestProcessResultsCountsFailures(t *testing.T) {
	options := *browsershot.DefaultOptions()
	options.Render = options.Render.WithBinaryPath(writeBinary(t))
	options.Render.Width, options.Render.Height = 120, 90
	options.SaveScreenshotsPath = t.TempDir()
	options.Silence = true

	runner := browsershot.NewRunnerWithEngine(options, grayEngine{failFor: "https://broken.example/"})

	failed := processResults(context.Background(), runner, "example.com", "broken.example", "example.org")
	assert.Equal(t, 1, failed)

	entries, err := os.ReadDir(options.SaveScreenshotsPath)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestServeLogOptions(t *testing.T) {
	cli := newCLI()
	require.NoError(t, cli.parseFlags([]string{"--serve", "-s"}))
	assert.True(t, cli.logOptions().Silence)
	assert.False(t, cli.logOptions().Verbose)

	cli = newCLI()
	require.NoError(t, cli.parseFlags([]string{"--serve", "--debug"}))
	assert.False(t, cli.logOptions().Silence)
	assert.True(t, cli.logOptions().Verbose)
}
