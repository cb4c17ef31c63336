// Package server exposes screenshots over HTTP.
package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"github.com/root4loot/goutils/log"
	"github.com/rs/xid"

	"github.com/root4loot/browsershot/internal/config"
	shot "github.com/root4loot/browsershot/pkg/browsershot"
)

// SetupApp creates the fiber app serving screenshots rendered through engine.
// rdb may be nil, which disables caching.
func SetupApp(cfg config.Config, engine shot.Engine, rdb *redis.Client) (*fiber.App, error) {
	render, err := cfg.RenderOptions()
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
				msg = e.Message
			}

			log.Warnf("Request %s failed with %d: %s", c.Path(), code, msg)

			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    code,
					"message": msg,
				},
			})
		},
	})

	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	app.Use(healthcheck.New())

	app.Use(func(c *fiber.Ctx) error {
		log.Debugf("Incoming request %s %s (%s)", c.Method(), c.OriginalURL(), c.GetRespHeader(fiber.HeaderXRequestID))
		return c.Next()
	})

	svc := NewScreenshotService(render, engine, rdb, cfg.Server.CacheTTL)

	v1 := app.Group("/v1")
	v1.Get("/screenshot", svc.HandleScreenshot)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app, nil
}
