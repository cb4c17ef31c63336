package browsershot

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ResizeFunc scales img towards width x height. A zero side is derived from
// the other one so the aspect ratio is kept.
type ResizeFunc func(img image.Image, width, height int) image.Image

// ResizeExact scales img to exactly width x height.
func ResizeExact(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// ResizeFit scales img down to fit inside width x height, keeping its aspect ratio.
func ResizeFit(img image.Image, width, height int) image.Image {
	if width == 0 || height == 0 {
		return ResizeExact(img, width, height)
	}
	return imaging.Fit(img, width, height, imaging.Lanczos)
}

// ResizeFill scales and center-crops img to fill width x height.
func ResizeFill(img image.Image, width, height int) image.Image {
	if width == 0 || height == 0 {
		return ResizeExact(img, width, height)
	}
	return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)
}

// SaveOptions controls the optional steps that run after a render.
type SaveOptions struct {
	ResizeWidth  int        // Target width, 0 keeps the aspect ratio
	ResizeHeight int        // Target height, 0 keeps the aspect ratio
	Resize       ResizeFunc // Resize strategy, ResizeExact when nil
	Imprint      bool       // Stamp the URL origin under the image
}

func (o SaveOptions) resizes() bool {
	return o.ResizeWidth > 0 || o.ResizeHeight > 0
}

// Crop cuts the width x height box at the origin out of img. Parts of the box
// outside img are dropped, so a smaller image is returned unchanged.
func Crop(img image.Image, width, height int) image.Image {
	return imaging.Crop(img, image.Rect(0, 0, width, height))
}

// PostProcess rewrites the screenshot at path: crop to the viewport unless
// cfg renders the full page, resize and imprint per opts, then re-encode at
// cfg.Quality.
func PostProcess(path, rawURL string, cfg RenderConfig, opts SaveOptions) error {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open screenshot: %w", err)
	}

	if !cfg.FullPage() {
		img = Crop(img, cfg.Width, cfg.Height)

		if opts.resizes() {
			resize := opts.Resize
			if resize == nil {
				resize = ResizeExact
			}
			img = resize(img, opts.ResizeWidth, opts.ResizeHeight)
		}
	}

	if opts.Imprint {
		img, err = ImprintURL(img, rawURL)
		if err != nil {
			return err
		}
	}

	if err := imaging.Save(img, path, imaging.JPEGQuality(cfg.Quality)); err != nil {
		return fmt.Errorf("failed to save screenshot: %w", err)
	}
	return nil
}
