package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	billing "schoolku_finance/internals/features/finance/billings/service"
	"schoolku_finance/internals/features/finance/finerr"
	"schoolku_finance/internals/features/finance/payments/dto"
	"schoolku_finance/internals/features/finance/payments/model"
	"schoolku_finance/internals/features/finance/payments/service"
	helper "schoolku_finance/internals/helpers"
)

type PaymentHandler struct {
	Ledger    *service.Ledger
	Resetter  *service.Resetter
	Summaries *billing.SummaryService
}

// POST /api/a/finance/payments
func (h *PaymentHandler) Record(c *fiber.Ctx) error {
	operatorID, err := helper.GetOperatorID(c)
	if err != nil {
		return err
	}

	var in dto.RecordPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := helper.Validate.Struct(in); err != nil {
		return helper.ValidationError(c, err)
	}
	if !in.Amount.IsPositive() {
		return finerr.Respond(c, finerr.Invalid("amount", "harus lebih besar dari 0"))
	}

	// overpayment dicek di sini (pemanggil), bukan di ledger
	if !in.AllowOverpayment {
		fee, err := h.Summaries.Get(c.UserContext(), in.StudentID)
		if err != nil {
			return finerr.Respond(c, err)
		}
		if in.Amount.GreaterThan(fee.StudentFeeBalance) {
			return finerr.Respond(c, finerr.Invalid("amount",
				"melebihi sisa tagihan "+fee.StudentFeeBalance.StringFixed(2)+"; kirim allow_overpayment=true untuk tetap mencatat"))
		}
	}

	rc, err := h.Ledger.RecordPayment(c.UserContext(), service.PaymentInput{
		StudentID:  strings.TrimSpace(in.StudentID),
		Amount:     in.Amount,
		Method:     model.PaymentMethod(in.Method),
		OperatorID: operatorID,
		Note:       in.Note,
	})
	if err != nil {
		return finerr.Respond(c, err)
	}
	return helper.JsonCreated(c, "payment recorded", rc)
}

// GET /api/a/finance/payments?student_id=
func (h *PaymentHandler) History(c *fiber.Ctx) error {
	studentID := strings.TrimSpace(c.Query("student_id"))
	if studentID == "" {
		return finerr.Respond(c, finerr.Invalid("student_id", "wajib diisi"))
	}
	rows, err := h.Ledger.History(c.UserContext(), studentID)
	if err != nil {
		return finerr.Respond(c, err)
	}
	page, pagination := helper.Window(rows, helper.ResolvePaging(c, 50, 500))
	return helper.JsonList(c, "ok", dto.ToFinancialRecordResponses(page), &pagination)
}

// POST /api/a/finance/reset  body: {"confirm":"RESET"}
func (h *PaymentHandler) Reset(c *fiber.Ctx) error {
	operatorID, err := helper.GetOperatorID(c)
	if err != nil {
		return err
	}

	var in dto.ResetRequest
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := helper.Validate.Struct(in); err != nil {
		return helper.ValidationError(c, err)
	}

	out, err := h.Resetter.Reset(c.UserContext(), operatorID)
	if err != nil {
		return finerr.Respond(c, err)
	}
	return helper.JsonOK(c, "finance data reset", out)
}
