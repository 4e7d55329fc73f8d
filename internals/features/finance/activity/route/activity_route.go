package route

import (
	"github.com/gofiber/fiber/v2"

	"schoolku_finance/internals/features/finance/activity/controller"
	"schoolku_finance/internals/features/finance/activity/service"
)

func ActivityAdminRoutes(admin fiber.Router, sink *service.StoreSink) {
	h := &controller.ActivityHandler{Sink: sink}
	admin.Get("/activity", h.List)
}
