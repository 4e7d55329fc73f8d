package route

import (
	"github.com/gofiber/fiber/v2"

	"schoolku_finance/internals/features/finance/billings/controller"
)

/*
Admin routes (fee rules, reconcile, roster)
Diproteksi middleware JWT operator di level group.
*/
func BillingsAdminRoutes(admin fiber.Router, rules *controller.FeeRuleHandler, fees *controller.StudentFeeHandler) {
	// =========================
	// Fee Rules
	// =========================
	admin.Get("/fee-rules", rules.List)
	admin.Post("/fee-rules", rules.Create)
	admin.Get("/fee-rules/:id", rules.Get)
	admin.Patch("/fee-rules/:id", rules.Update)
	admin.Delete("/fee-rules/:id", rules.Delete)

	// =========================
	// Reconcile
	// =========================
	admin.Post("/reconcile", fees.Reconcile)

	// =========================
	// Student Fees (static path dulu sebelum :student_id)
	// =========================
	admin.Get("/student-fees", fees.List)
	admin.Get("/student-fees/summary", fees.Summary)
	admin.Get("/student-fees/stream", fees.Stream)
	admin.Get("/student-fees/export", fees.Export)
	admin.Get("/student-fees/:student_id", fees.Get)
}
