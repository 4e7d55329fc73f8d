package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"schoolku_finance/internals/features/finance/activity/service"
	"schoolku_finance/internals/features/finance/finerr"
	helper "schoolku_finance/internals/helpers"
)

type ActivityHandler struct {
	Sink *service.StoreSink
}

// GET /api/a/finance/activity?operator_id=&action=&limit=
func (h *ActivityHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := h.Sink.List(c.UserContext(), service.ListFilter{
		OperatorID: strings.TrimSpace(c.Query("operator_id")),
		Action:     strings.ToUpper(strings.TrimSpace(c.Query("action"))),
		Limit:      limit,
	})
	if err != nil {
		return finerr.Respond(c, err)
	}
	return helper.JsonList(c, "ok", rows, nil)
}
