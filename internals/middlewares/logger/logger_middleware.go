package logger

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

// LoggerMiddleware mencatat semua request; output diteruskan ke zap (logger "http").
func LoggerMiddleware(zl *zap.Logger) fiber.Handler {
	return logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Format:     "${locals:reqid} ${ip} - ${method} ${path} - ${status} - ${latency} op=${locals:user_id}",
		Output:     zap.NewStdLog(zl.Named("http")).Writer(),
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	})
}
