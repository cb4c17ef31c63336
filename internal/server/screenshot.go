package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/root4loot/goutils/log"

	shot "github.com/root4loot/browsershot/pkg/browsershot"
)

// ScreenshotService renders screenshots for HTTP requests.
type ScreenshotService struct {
	Render   shot.RenderConfig
	Engine   shot.Engine
	Redis    *redis.Client
	CacheTTL time.Duration
}

// screenshotParams holds validated query parameters.
type screenshotParams struct {
	URL    string
	Format string
	Render shot.RenderConfig
	Save   shot.SaveOptions
}

// NewScreenshotService creates a new ScreenshotService instance.
func NewScreenshotService(render shot.RenderConfig, engine shot.Engine, rdb *redis.Client, ttl time.Duration) *ScreenshotService {
	return &ScreenshotService{
		Render:   render,
		Engine:   engine,
		Redis:    rdb,
		CacheTTL: ttl,
	}
}

// HandleScreenshot renders the page named by the url query parameter or
// serves a cached copy.
func (svc *ScreenshotService) HandleScreenshot(c *fiber.Ctx) error {
	params, err := svc.parseParams(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	cacheKey := computeCacheKey(params)

	if svc.Redis != nil {
		if cached, err := getCached(c.UserContext(), svc.Redis, cacheKey); err == nil && cached != nil {
			log.Debugf("Screenshot cache hit %s", cacheKey)
			return sendImage(c, params.Format, cached)
		}
	}

	buf, err := svc.render(c.UserContext(), params)
	if err != nil {
		return renderError(err)
	}

	if svc.Redis != nil {
		setCached(c.UserContext(), svc.Redis, cacheKey, buf, svc.CacheTTL)
	}

	log.Infof("Screenshot of %s rendered (%d bytes)", params.URL, len(buf))
	return sendImage(c, params.Format, buf)
}

func (svc *ScreenshotService) render(ctx context.Context, params *screenshotParams) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "browsershot-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	req, err := shot.NewRequest(params.URL, filepath.Join(tmpDir, "screenshot."+params.Format))
	if err != nil {
		return nil, err
	}

	if _, err := shot.NewWithEngine(params.Render, svc.Engine).Save(ctx, req, params.Save); err != nil {
		return nil, err
	}

	return os.ReadFile(req.OutputPath)
}

func (svc *ScreenshotService) parseParams(c *fiber.Ctx) (*screenshotParams, error) {
	params := &screenshotParams{
		URL:    c.Query("url"),
		Format: strings.ToLower(c.Query("format", "png")),
		Render: svc.Render,
	}

	if params.URL == "" {
		return nil, errors.New("invalid url: missing")
	}

	switch params.Format {
	case "png", "jpg", "jpeg":
	default:
		return nil, errors.New("invalid format: must be png, jpg or jpeg")
	}

	var err error
	if v := c.Query("width"); v != "" {
		if params.Render.Width, err = shot.ParseWidth(v); err != nil {
			return nil, err
		}
	}
	if v := c.Query("height"); v != "" {
		if params.Render.Height, err = shot.ParseHeight(v); err != nil {
			return nil, err
		}
	}
	if v := c.Query("quality"); v != "" {
		if params.Render.Quality, err = shot.ParseQuality(v); err != nil {
			return nil, err
		}
	}
	if c.QueryBool("full") {
		params.Render = params.Render.WithFullPage()
	}
	if v := c.Query("resize_width"); v != "" {
		if params.Save.ResizeWidth, err = shot.ParseResize(v); err != nil {
			return nil, err
		}
	}
	if v := c.Query("resize_height"); v != "" {
		if params.Save.ResizeHeight, err = shot.ParseResize(v); err != nil {
			return nil, err
		}
	}
	params.Save.Imprint = c.QueryBool("imprint")

	return params, nil
}

// renderError maps render failures onto HTTP errors.
func renderError(err error) error {
	switch {
	case errors.Is(err, shot.ErrInvalidArgument):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, shot.ErrPrecondition):
		log.Errorf("Renderer unavailable: %v", err)
		return fiber.NewError(fiber.StatusServiceUnavailable, "Renderer unavailable")
	case shot.IsTimeoutError(err):
		return fiber.NewError(fiber.StatusGatewayTimeout, "Screenshot rendering took too long")
	case errors.Is(err, shot.ErrRenderFailure):
		log.Errorf("Screenshot failed: %v", err)
		return fiber.NewError(fiber.StatusBadGateway, "Could not create screenshot")
	}
	log.Errorf("Screenshot failed: %v", err)
	return fiber.NewError(fiber.StatusInternalServerError, "Screenshot failed")
}

func sendImage(c *fiber.Ctx, format string, buf []byte) error {
	contentType := "image/png"
	if format == "jpg" || format == "jpeg" {
		contentType = "image/jpeg"
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(buf)
}

// computeCacheKey creates a SHA256-based cache key from every parameter that
// changes the image.
func computeCacheKey(params *screenshotParams) string {
	h := sha256.New()
	h.Write([]byte(params.URL))
	h.Write([]byte{0})
	for _, v := range []string{
		params.Format,
		string(params.Render.Engine),
		params.Render.UserAgent,
		strconv.Itoa(params.Render.Width),
		strconv.Itoa(params.Render.Height),
		strconv.Itoa(params.Render.Quality),
		params.Render.Delay.String(),
		strconv.Itoa(params.Save.ResizeWidth),
		strconv.Itoa(params.Save.ResizeHeight),
		strconv.FormatBool(params.Save.Imprint),
	} {
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	return "shot:" + hex.EncodeToString(h.Sum(nil))
}
