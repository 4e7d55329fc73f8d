package details

import (
	"github.com/gofiber/fiber/v2"

	"schoolku_finance/internals/features/finance"
	ActivityRoute "schoolku_finance/internals/features/finance/activity/route"
	BillingController "schoolku_finance/internals/features/finance/billings/controller"
	BillingRoute "schoolku_finance/internals/features/finance/billings/routes"
	PaymentController "schoolku_finance/internals/features/finance/payments/controller"
	PaymentRoute "schoolku_finance/internals/features/finance/payments/route"
	"schoolku_finance/internals/middlewares"
)

// FinanceAdminRoutes: r sudah di-group /api/a/finance + JWT.
func FinanceAdminRoutes(r fiber.Router, svc *finance.Services) {
	// reconcile & reset dibatasi per operator
	r.Post("/reconcile", middlewares.HeavyOpRateLimiter())
	r.Post("/reset", middlewares.HeavyOpRateLimiter())

	BillingRoute.BillingsAdminRoutes(r,
		&BillingController.FeeRuleHandler{Catalog: svc.Catalog},
		&BillingController.StudentFeeHandler{
			Reconciler: svc.Reconciler,
			Summaries:  svc.Summaries,
			Logger:     svc.Logger.Named("http.student_fees"),
		},
	)
	PaymentRoute.PaymentsAdminRoutes(r, &PaymentController.PaymentHandler{
		Ledger:    svc.Ledger,
		Resetter:  svc.Resetter,
		Summaries: svc.Summaries,
	})
	ActivityRoute.ActivityAdminRoutes(r, svc.Audit)
}
