package browsershot

import (
	"fmt"
	"image"
	"image/color"
	"net/url"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce sync.Once
	fontTT   *truetype.Font
	fontErr  error
)

// ImprintURL returns img with the origin of rawURL written in a band below it.
func ImprintURL(img image.Image, rawURL string) (image.Image, error) {
	printURL, err := Origin(rawURL)
	if err != nil {
		return nil, err
	}

	face, err := loadFont()
	if err != nil {
		return nil, err
	}

	const padding = 20
	const borderSize = 1

	w := img.Bounds().Dx()
	h := img.Bounds().Dy() + padding*2 + borderSize
	dc := gg.NewContext(w, h)

	dc.DrawImage(img, 0, 0)

	yLine := float64(img.Bounds().Dy())
	dc.SetColor(color.White)
	dc.DrawRectangle(0, yLine, float64(w), float64(padding*2+borderSize))
	dc.Fill()
	dc.SetColor(color.Black)
	dc.SetLineWidth(float64(borderSize))
	dc.DrawLine(0, yLine, float64(w), yLine)
	dc.Stroke()
	dc.SetFontFace(face)
	dc.DrawStringAnchored(printURL, float64(w)/2, yLine+float64(padding), 0.5, 0.3)

	return dc.Image(), nil
}

// Origin returns scheme://host of rawURL without default ports.
func Origin(rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}

	host := parsedURL.Host
	if strings.Contains(host, ":") {
		hostWithoutPort, port, _ := strings.Cut(host, ":")
		if (parsedURL.Scheme == "http" && port == "80") || (parsedURL.Scheme == "https" && port == "443") {
			host = hostWithoutPort
		}
	}

	return parsedURL.Scheme + "://" + host, nil
}

func loadFont() (font.Face, error) {
	fontOnce.Do(func() {
		fontTT, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("failed to parse font: %w", fontErr)
	}

	return truetype.NewFace(fontTT, &truetype.Options{
		Size: 14,
	}), nil
}
