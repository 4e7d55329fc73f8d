package route

import (
	"github.com/gofiber/fiber/v2"

	"schoolku_finance/internals/features/finance/payments/controller"
)

func PaymentsAdminRoutes(admin fiber.Router, h *controller.PaymentHandler) {
	admin.Post("/payments", h.Record)
	admin.Get("/payments", h.History)

	// destruktif: body wajib {"confirm":"RESET"}
	admin.Post("/reset", h.Reset)
}
