package browsershot

import (
	"context"
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

// noiseImage returns a w x h image that does not compress well, so encoded
// files stay above MinOutputSize.
func noiseImage(w, h int) image.Image {
	rng := rand.New(rand.NewSource(int64(w*31 + h)))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	return img
}

func writeNoiseImage(path string, w, h int) error {
	return imaging.Save(noiseImage(w, h), path)
}

func fakeBinary(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "phantomjs")
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	return p
}

func imageSize(t *testing.T, path string) (int, int) {
	t.Helper()
	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

// fakeEngine writes a noise image of a fixed size instead of running a browser.
type fakeEngine struct {
	width, height int
	calls         int
	err           error
	write         func(path string) error
}

func (f *fakeEngine) Render(_ context.Context, _ RenderConfig, req Request) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.write != nil {
		return f.write(req.OutputPath)
	}
	return writeNoiseImage(req.OutputPath, f.width, f.height)
}
