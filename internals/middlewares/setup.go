package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"go.uber.org/zap"

	"schoolku_finance/internals/middlewares/logger"
)

type SetupOptions struct {
	Origins        []string
	RequestTimeout time.Duration
}

func SetupMiddlewares(app *fiber.App, zl *zap.Logger, opts SetupOptions) {
	app.Use(RecoveryMiddleware(zl))
	app.Use(RequestContext(opts.RequestTimeout))
	app.Use(logger.LoggerMiddleware(zl))
	app.Use(CorsMiddleware(opts.Origins))
	// gzip, kecuali SSE (butuh flush per event)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelDefault,
		Next:  func(c *fiber.Ctx) bool { return isStreamPath(c.Path()) },
	}))
	app.Use(GlobalRateLimiter())
}
