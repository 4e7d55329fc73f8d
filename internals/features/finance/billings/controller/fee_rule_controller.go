package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"schoolku_finance/internals/features/finance/billings/dto"
	billing "schoolku_finance/internals/features/finance/billings/model"
	"schoolku_finance/internals/features/finance/billings/service"
	"schoolku_finance/internals/features/finance/finerr"
	helper "schoolku_finance/internals/helpers"
)

/* =======================================================
   FEE RULES
======================================================= */

type FeeRuleHandler struct {
	Catalog *service.Catalog
}

// GET /api/a/finance/fee-rules?active=true
func (h *FeeRuleHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var (
		rules []billing.FeeRule
		err   error
	)
	if strings.EqualFold(c.Query("active"), "true") {
		rules, err = h.Catalog.ListActiveRules(ctx)
	} else {
		rules, err = h.Catalog.ListRules(ctx)
	}
	if err != nil {
		return finerr.Respond(c, err)
	}

	page, pagination := helper.Window(rules, helper.ResolvePaging(c, 50, 500))
	return helper.JsonList(c, "ok", dto.ToFeeRuleResponses(page), &pagination)
}

// GET /api/a/finance/fee-rules/:id
func (h *FeeRuleHandler) Get(c *fiber.Ctx) error {
	r, err := h.Catalog.GetRule(c.UserContext(), c.Params("id"))
	if err != nil {
		return finerr.Respond(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToFeeRuleResponse(r))
}

// POST /api/a/finance/fee-rules
func (h *FeeRuleHandler) Create(c *fiber.Ctx) error {
	operatorID, err := helper.GetOperatorID(c)
	if err != nil {
		return err
	}

	var in dto.FeeRuleCreateDTO
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := helper.Validate.Struct(in); err != nil {
		return helper.ValidationError(c, err)
	}

	r, err := h.Catalog.CreateRule(c.UserContext(), operatorID, dto.FeeRuleCreateDTOToModel(in))
	if err != nil {
		return finerr.Respond(c, err)
	}
	return helper.JsonCreated(c, "fee rule created", dto.ToFeeRuleResponse(r))
}

// PATCH /api/a/finance/fee-rules/:id
func (h *FeeRuleHandler) Update(c *fiber.Ctx) error {
	operatorID, err := helper.GetOperatorID(c)
	if err != nil {
		return err
	}

	var in dto.FeeRuleUpdateDTO
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid json")
	}
	if err := helper.Validate.Struct(in); err != nil {
		return helper.ValidationError(c, err)
	}

	r, err := h.Catalog.UpdateRule(c.UserContext(), operatorID, c.Params("id"), func(m *billing.FeeRule) {
		dto.ApplyFeeRuleUpdate(m, in)
	})
	if err != nil {
		return finerr.Respond(c, err)
	}
	return helper.JsonUpdated(c, "fee rule updated", dto.ToFeeRuleResponse(r))
}

// DELETE /api/a/finance/fee-rules/:id
// Hanya berpengaruh ke rekonsiliasi berikutnya.
func (h *FeeRuleHandler) Delete(c *fiber.Ctx) error {
	operatorID, err := helper.GetOperatorID(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := h.Catalog.DeleteRule(c.UserContext(), operatorID, id); err != nil {
		return finerr.Respond(c, err)
	}
	return helper.JsonDeleted(c, "fee rule deleted", fiber.Map{"fee_rule_id": id})
}
