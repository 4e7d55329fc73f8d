package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"schoolku_finance/internals/configs"
	"schoolku_finance/internals/databases/docstore"
	"schoolku_finance/internals/features/finance"
	billing "schoolku_finance/internals/features/finance/billings/model"
)

func BaseRoutes(app *fiber.App, cfg configs.FinanceConfig, svc *finance.Services) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Schoolku finance service 🚀")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		storeStatus := "Connected"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK

		if _, err := svc.Store.Query(ctx, billing.CollectionFeeComponents, docstore.Query{Limit: 1}); err != nil {
			storeStatus = "Store unavailable"
			serverStatus = "DOWN"
			httpStatus = fiber.StatusServiceUnavailable
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"store":          storeStatus,
			"store_driver":   cfg.StoreDriver,
			"server_time":    time.Now().UTC().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"environment":    cfg.Environment,
		})
	})
}
