package browsershot

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// EngineKind names a rendering backend.
type EngineKind string

const (
	EnginePhantomJS EngineKind = "phantomjs"
	EngineChrome    EngineKind = "chrome"
	EngineRod       EngineKind = "rod"
)

// MinOutputSize is the smallest screenshot, in bytes, accepted as a successful render.
const MinOutputSize = 1024

// RenderConfig describes how a page is rendered. It is passed by value, so a
// config shared between renders is never modified by one of them.
type RenderConfig struct {
	BinaryPath string        // Path to the rendering binary
	Width      int           // Viewport width in pixels
	Height     int           // Viewport height in pixels, 0 renders the whole page
	Quality    int           // Output quality (1-100)
	Delay      time.Duration // Wait between navigation and capture
	Timeout    time.Duration // Upper bound for one render, 0 disables it
	Engine     EngineKind    // Rendering backend
	UserAgent  string        // User agent override
}

// Request names the page to render and where the image goes.
type Request struct {
	URL        string
	OutputPath string
}

// NewOptions returns a RenderConfig initialized with default values.
func NewOptions() RenderConfig {
	return RenderConfig{
		Width:   640,
		Height:  480,
		Quality: 90,
		Delay:   5 * time.Second,
		Timeout: 30 * time.Second,
		Engine:  EnginePhantomJS,
	}
}

// FullPage reports whether the config renders the natural page height.
func (c RenderConfig) FullPage() bool {
	return c.Height == 0
}

// WithBinaryPath returns a copy of c using the given rendering binary.
func (c RenderConfig) WithBinaryPath(path string) RenderConfig {
	c.BinaryPath = path
	return c
}

// WithWidth returns a copy of c with the given viewport width.
func (c RenderConfig) WithWidth(width int) (RenderConfig, error) {
	if width <= 0 {
		return c, fmt.Errorf("%w: width must be a positive number, got %d", ErrInvalidArgument, width)
	}
	c.Width = width
	return c, nil
}

// WithHeight returns a copy of c with the given viewport height. A height of 0
// renders the whole page.
func (c RenderConfig) WithHeight(height int) (RenderConfig, error) {
	if height < 0 {
		return c, fmt.Errorf("%w: height must not be negative, got %d", ErrInvalidArgument, height)
	}
	c.Height = height
	return c, nil
}

// WithQuality returns a copy of c with the given output quality.
func (c RenderConfig) WithQuality(quality int) (RenderConfig, error) {
	if quality < 1 || quality > 100 {
		return c, fmt.Errorf("%w: quality must be a numeric value between 1 - 100, got %d", ErrInvalidArgument, quality)
	}
	c.Quality = quality
	return c, nil
}

// WithFullPage returns a copy of c set to render the whole page height.
func (c RenderConfig) WithFullPage() RenderConfig {
	c.Height = 0
	return c
}

// Validate checks every field of the config.
func (c RenderConfig) Validate() error {
	if _, err := c.WithWidth(c.Width); err != nil {
		return err
	}
	if _, err := c.WithHeight(c.Height); err != nil {
		return err
	}
	if _, err := c.WithQuality(c.Quality); err != nil {
		return err
	}
	if c.Delay < 0 {
		return fmt.Errorf("%w: delay must not be negative", ErrInvalidArgument)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidArgument)
	}
	if _, err := ParseEngine(string(c.Engine)); err != nil {
		return err
	}
	return nil
}

// ParseWidth parses a viewport width.
func ParseWidth(s string) (int, error) {
	v, err := parseNumber("width", s)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: width must be a positive number, got %d", ErrInvalidArgument, v)
	}
	return v, nil
}

// ParseHeight parses a viewport height. 0 means the whole page.
func ParseHeight(s string) (int, error) {
	v, err := parseNumber("height", s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: height must not be negative, got %d", ErrInvalidArgument, v)
	}
	return v, nil
}

// ParseQuality parses an output quality between 1 and 100.
func ParseQuality(s string) (int, error) {
	v, err := parseNumber("quality", s)
	if err != nil {
		return 0, err
	}
	if v < 1 || v > 100 {
		return 0, fmt.Errorf("%w: quality must be a numeric value between 1 - 100, got %d", ErrInvalidArgument, v)
	}
	return v, nil
}

// ParseResize parses a resize target. 0 keeps the aspect ratio.
func ParseResize(s string) (int, error) {
	v, err := parseNumber("resize dimension", s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: resize dimension must not be negative, got %d", ErrInvalidArgument, v)
	}
	return v, nil
}

// ParseEngine maps an engine name to its kind. An empty name selects phantomjs.
func ParseEngine(s string) (EngineKind, error) {
	switch EngineKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", EnginePhantomJS:
		return EnginePhantomJS, nil
	case EngineChrome:
		return EngineChrome, nil
	case EngineRod:
		return EngineRod, nil
	}
	return "", fmt.Errorf("%w: unknown engine %q", ErrInvalidArgument, s)
}

func parseNumber(name, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be numeric, got %q", ErrInvalidArgument, name, s)
	}
	return v, nil
}

// NewRequest builds a request for rawURL saved to outputPath.
func NewRequest(rawURL, outputPath string) (Request, error) {
	return Request{OutputPath: outputPath}.WithURL(rawURL)
}

// WithURL returns a copy of r targeting rawURL.
func (r Request) WithURL(rawURL string) (Request, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return r, fmt.Errorf("%w: no url specified", ErrInvalidArgument)
	}
	r.URL = rawURL
	return r, nil
}

// Format returns the lower-cased output extension without the dot.
func (r Request) Format() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(r.OutputPath), "."))
}

// IsJPEG reports whether the output is encoded as JPEG.
func (r Request) IsJPEG() bool {
	f := r.Format()
	return f == "jpg" || f == "jpeg"
}

// ValidateOutput checks the output path and its extension.
func (r Request) ValidateOutput() error {
	if r.OutputPath == "" {
		return fmt.Errorf("%w: targetfile not set", ErrInvalidArgument)
	}
	switch r.Format() {
	case "jpeg", "jpg", "png":
		return nil
	}
	return fmt.Errorf("%w: targetfile extension not valid: %q", ErrInvalidArgument, filepath.Ext(r.OutputPath))
}

// ValidateURL checks that the URL is absolute and well formed.
func (r Request) ValidateURL() error {
	if r.URL == "" {
		return fmt.Errorf("%w: url not set", ErrInvalidArgument)
	}
	u, err := url.ParseRequestURI(r.URL)
	if err != nil || u.Scheme == "" || (u.Host == "" && u.Scheme != "file") {
		return fmt.Errorf("%w: url is invalid: %q", ErrInvalidArgument, r.URL)
	}
	return nil
}

// Validate checks the output path first and then the URL.
func (r Request) Validate() error {
	if err := r.ValidateOutput(); err != nil {
		return err
	}
	return r.ValidateURL()
}
