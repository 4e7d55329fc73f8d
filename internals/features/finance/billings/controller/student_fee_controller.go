package controller

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"schoolku_finance/internals/features/finance/billings/dto"
	billing "schoolku_finance/internals/features/finance/billings/model"
	"schoolku_finance/internals/features/finance/billings/service"
	"schoolku_finance/internals/features/finance/finerr"
	"schoolku_finance/internals/features/finance/reports"
	helper "schoolku_finance/internals/helpers"
)

/* =======================================================
   STUDENT FEES (roster, dashboard, reconcile)
======================================================= */

type StudentFeeHandler struct {
	Reconciler *service.Reconciler
	Summaries  *service.SummaryService
	Logger     *zap.Logger
}

func parseFilter(c *fiber.Ctx) (service.SummaryFilter, error) {
	f := service.SummaryFilter{ClassID: strings.TrimSpace(c.Query("class_id"))}
	if s := strings.ToUpper(strings.TrimSpace(c.Query("status"))); s != "" {
		st := billing.FeeStatus(s)
		valid := false
		for _, v := range billing.FeeStatuses {
			if v == st {
				valid = true
				break
			}
		}
		if !valid {
			return f, finerr.Invalid("status", "status tidak dikenal")
		}
		f.Status = st
	}
	return f, nil
}

// POST /api/a/finance/reconcile
func (h *StudentFeeHandler) Reconcile(c *fiber.Ctx) error {
	operatorID, err := helper.GetOperatorID(c)
	if err != nil {
		return err
	}
	out, err := h.Reconciler.Run(c.UserContext(), operatorID)
	if err != nil {
		return finerr.Respond(c, err)
	}
	msg := "ledger reconciled"
	if out.ZeroState {
		msg = "ledger reconciled (no active fee rules)"
	}
	return helper.JsonOK(c, msg, out)
}

// GET /api/a/finance/student-fees?class_id=&status=&page=&per_page=
func (h *StudentFeeHandler) List(c *fiber.Ctx) error {
	f, err := parseFilter(c)
	if err != nil {
		return finerr.Respond(c, err)
	}
	fees, err := h.Summaries.List(c.UserContext(), f)
	if err != nil {
		return finerr.Respond(c, err)
	}
	page, pagination := helper.Window(fees, helper.ResolvePaging(c, 50, 1000))
	return helper.JsonList(c, "ok", dto.ToStudentFeeResponses(page), &pagination)
}

// GET /api/a/finance/student-fees/summary
func (h *StudentFeeHandler) Summary(c *fiber.Ctx) error {
	f, err := parseFilter(c)
	if err != nil {
		return finerr.Respond(c, err)
	}
	totals, err := h.Summaries.Totals(c.UserContext(), f)
	if err != nil {
		return finerr.Respond(c, err)
	}
	return helper.JsonOK(c, "ok", totals)
}

// GET /api/a/finance/student-fees/:student_id
func (h *StudentFeeHandler) Get(c *fiber.Ctx) error {
	fee, err := h.Summaries.Get(c.UserContext(), c.Params("student_id"))
	if err != nil {
		return finerr.Respond(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToStudentFeeResponse(fee))
}

// GET /api/a/finance/student-fees/export → XLSX
func (h *StudentFeeHandler) Export(c *fiber.Ctx) error {
	f, err := parseFilter(c)
	if err != nil {
		return finerr.Respond(c, err)
	}
	fees, err := h.Summaries.List(c.UserContext(), f)
	if err != nil {
		return finerr.Respond(c, err)
	}

	now := time.Now()
	c.Set(fiber.HeaderContentType, reports.XLSXMime)
	c.Attachment(reports.RosterFilename(now))
	return reports.WriteRoster(c.Response().BodyWriter(), fees, service.ComputeTotals(fees), now)
}

// GET /api/a/finance/student-fees/stream (Server-Sent Events)
// Snapshot awal langsung dikirim, lalu setiap ada perubahan student_fees.
func (h *StudentFeeHandler) Stream(c *fiber.Ctx) error {
	f, err := parseFilter(c)
	if err != nil {
		return finerr.Respond(c, err)
	}

	// stream hidup lebih lama dari handler; jangan pakai UserContext (ada timeout)
	ctx, cancel := context.WithCancel(context.Background())
	snaps, err := h.Summaries.Stream(ctx, f)
	if err != nil {
		cancel()
		return finerr.Respond(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	logger := h.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		heartbeat := time.NewTicker(25 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case snap, ok := <-snaps:
				if !ok {
					return
				}
				payload, err := sonic.Marshal(fiber.Map{
					"fees":    dto.ToStudentFeeResponses(snap.Fees),
					"totals":  snap.Totals,
					"read_at": snap.ReadAt,
				})
				if err != nil {
					logger.Error("encode roster snapshot", zap.Error(err))
					return
				}
				if err := writeEvent(w, "roster", payload); err != nil {
					return
				}
			case <-heartbeat.C:
				if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
					return
				}
			}
			// client putus → Flush error → stop subscription
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
	return nil
}

// writeEvent menulis satu frame SSE dan berhenti di error pertama.
func writeEvent(w io.Writer, event string, payload []byte) error {
	for _, part := range [][]byte{[]byte("event: " + event + "\ndata: "), payload, []byte("\n\n")} {
		if _, err := w.Write(part); err != nil {
			return err
		}
	}
	return nil
}
