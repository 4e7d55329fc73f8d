package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"schoolku_finance/internals/configs"
	"schoolku_finance/internals/constants"
	"schoolku_finance/internals/features/finance"
	"schoolku_finance/internals/middlewares/auth"
	routeDetails "schoolku_finance/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, cfg configs.FinanceConfig, svc *finance.Services) {
	startTime = time.Now()

	log.Println("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, cfg, svc)

	// ===================== ADMIN (finance) =====================
	log.Println("[INFO] Setting up ADMIN finance group (Auth + RoleCheck)...")
	admin := app.Group("/api/a/finance",
		auth.AuthJWT(auth.AuthJWTOpts{
			Secret:              cfg.JWTSecret,
			AllowCookieFallback: true,
			Roles:               constants.FinanceStaff,
			ForbiddenMessage:    constants.RoleErrorFinance("keuangan"),
		}),
	)

	log.Println("[INFO] Mounting Finance routes...")
	routeDetails.FinanceAdminRoutes(admin, svc)
}
