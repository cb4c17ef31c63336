package browsershot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShot(t *testing.T, engine Engine, width, height int) *Browsershot {
	t.Helper()
	cfg := NewOptions().WithBinaryPath(fakeBinary(t))
	cfg.Width, cfg.Height, cfg.Quality = width, height, 80
	return NewWithEngine(cfg, engine)
}

func TestSaveCropsToViewport(t *testing.T) {
	engine := &fakeEngine{width: 1024, height: 900}
	shot := newTestShot(t, engine, 800, 600)
	out := filepath.Join(t.TempDir(), "out.png")

	ok, err := shot.Save(context.Background(), Request{URL: "https://example.com", OutputPath: out}, SaveOptions{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, engine.calls)

	w, h := imageSize(t, out)
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
}

func TestSaveFullPageSkipsPostProcessing(t *testing.T) {
	engine := &fakeEngine{width: 300, height: 700}
	shot := newTestShot(t, engine, 800, 600)
	shot.Config = shot.Config.WithFullPage()
	out := filepath.Join(t.TempDir(), "out.png")

	ok, err := shot.Save(context.Background(), Request{URL: "https://example.com", OutputPath: out}, SaveOptions{ResizeWidth: 100})
	require.NoError(t, err)
	assert.True(t, ok)

	w, h := imageSize(t, out)
	assert.Equal(t, 300, w)
	assert.Equal(t, 700, h)
}

func TestSaveSmallerImageIsClamped(t *testing.T) {
	engine := &fakeEngine{width: 500, height: 400}
	shot := newTestShot(t, engine, 800, 600)
	out := filepath.Join(t.TempDir(), "out.jpg")

	ok, err := shot.Save(context.Background(), Request{URL: "https://example.com", OutputPath: out}, SaveOptions{})
	require.NoError(t, err)
	assert.True(t, ok)

	w, h := imageSize(t, out)
	assert.Equal(t, 500, w)
	assert.Equal(t, 400, h)
}

func TestSaveResize(t *testing.T) {
	tests := []struct {
		name         string
		opts         SaveOptions
		wantW, wantH int
	}{
		{name: "exact", opts: SaveOptions{ResizeWidth: 400, ResizeHeight: 100}, wantW: 400, wantH: 100},
		{name: "keep aspect from width", opts: SaveOptions{ResizeWidth: 400}, wantW: 400, wantH: 300},
		{name: "keep aspect from height", opts: SaveOptions{ResizeHeight: 150}, wantW: 200, wantH: 150},
		{name: "fit", opts: SaveOptions{ResizeWidth: 400, ResizeHeight: 100, Resize: ResizeFit}, wantW: 133, wantH: 100},
		{name: "fill", opts: SaveOptions{ResizeWidth: 400, ResizeHeight: 100, Resize: ResizeFill}, wantW: 400, wantH: 100},
		{
			name: "callback",
			opts: SaveOptions{ResizeWidth: 10, Resize: func(img image.Image, width, height int) image.Image {
				return Crop(img, 64, 64)
			}},
			wantW: 64, wantH: 64,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			shot := newTestShot(t, &fakeEngine{width: 1000, height: 1000}, 800, 600)
			out := filepath.Join(t.TempDir(), "out.png")

			_, err := shot.Save(context.Background(), Request{URL: "https://example.com", OutputPath: out}, tc.opts)
			require.NoError(t, err)

			w, h := imageSize(t, out)
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
		})
	}
}

func TestSaveImprint(t *testing.T) {
	shot := newTestShot(t, &fakeEngine{width: 900, height: 700}, 800, 600)
	out := filepath.Join(t.TempDir(), "out.png")

	_, err := shot.Save(context.Background(), Request{URL: "https://example.com:443/path", OutputPath: out}, SaveOptions{Imprint: true})
	require.NoError(t, err)

	w, h := imageSize(t, out)
	assert.Equal(t, 800, w)
	assert.Equal(t, 641, h)
}

func TestSaveRejectsExtensionBeforeRendering(t *testing.T) {
	for _, name := range []string{"out.gif", "out.bmp"} {
		engine := &fakeEngine{width: 800, height: 600}
		shot := newTestShot(t, engine, 800, 600)
		shot.Config.BinaryPath = "/definitely/missing/phantomjs"

		ok, err := shot.Save(context.Background(), Request{URL: "", OutputPath: filepath.Join(t.TempDir(), name)}, SaveOptions{})
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Equal(t, 0, engine.calls)
	}
}

func TestSaveMissingBinary(t *testing.T) {
	engine := &fakeEngine{width: 800, height: 600}
	shot := newTestShot(t, engine, 800, 600)
	shot.Config.BinaryPath = "/definitely/missing/phantomjs"

	_, err := shot.Save(context.Background(), Request{URL: "https://example.com", OutputPath: filepath.Join(t.TempDir(), "out.png")}, SaveOptions{})
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, 0, engine.calls)

	shot.Config.BinaryPath = ""
	_, err = shot.Save(context.Background(), Request{URL: "https://example.com", OutputPath: filepath.Join(t.TempDir(), "out.png")}, SaveOptions{})
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestSaveOutputChecks(t *testing.T) {
	tests := []struct {
		name  string
		write func(path string) error
	}{
		{name: "missing", write: func(string) error { return nil }},
		{name: "too small", write: func(path string) error { return os.WriteFile(path, make([]byte, MinOutputSize-1), 0o644) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			shot := newTestShot(t, &fakeEngine{write: tc.write}, 800, 600)
			ok, err := shot.Save(context.Background(), Request{URL: "https://example.com", OutputPath: filepath.Join(t.TempDir(), "out.png")}, SaveOptions{})
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrRenderFailure)
		})
	}
}

func TestSaveEngineError(t *testing.T) {
	boom := errors.New("boom")
	shot := newTestShot(t, &fakeEngine{err: boom}, 800, 600)

	_, err := shot.Save(context.Background(), Request{URL: "https://example.com", OutputPath: filepath.Join(t.TempDir(), "out.png")}, SaveOptions{})
	assert.ErrorIs(t, err, boom)
}

func TestSaveInvalidConfig(t *testing.T) {
	engine := &fakeEngine{width: 800, height: 600}
	shot := newTestShot(t, engine, 800, 600)
	shot.Config.Quality = 0

	_, err := shot.Save(context.Background(), Request{URL: "https://example.com", OutputPath: filepath.Join(t.TempDir(), "out.png")}, SaveOptions{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, 0, engine.calls)
}

func TestNew(t *testing.T) {
	for _, kind := range []EngineKind{EnginePhantomJS, EngineChrome, EngineRod} {
		cfg := NewOptions()
		cfg.Engine = kind
		shot, err := New(cfg)
		require.NoError(t, err)
		assert.NotNil(t, shot.engine)
	}

	cfg := NewOptions()
	cfg.Engine = "lynx"
	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIsTimeoutError(t *testing.T) {
	assert.False(t, IsTimeoutError(nil))
	assert.True(t, IsTimeoutError(context.DeadlineExceeded))
	assert.True(t, IsTimeoutError(errors.Join(ErrRenderFailure, context.DeadlineExceeded)))
	assert.False(t, IsTimeoutError(ErrRenderFailure))
	assert.True(t, IsTimeoutError(fmt.Errorf("read: %w", os.ErrDeadlineExceeded)))

	// Text mentioning a timeout is not a deadline.
	assert.False(t, IsTimeoutError(fmt.Errorf("%w: binary does not exist: /opt/timeout-tools/phantomjs", ErrPrecondition)))
	assert.False(t, IsTimeoutError(fmt.Errorf("%w: chrome render of https://timeout.example.com/: net::ERR_NAME_NOT_RESOLVED", ErrRenderFailure)))
}
