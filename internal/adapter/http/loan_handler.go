package http

import (
	"net/http"
	"strconv"

	"github.com/andreolf/clawloan/internal/usecase/loan"
	"github.com/andreolf/clawloan/internal/usecase/repayment"
	"github.com/andreolf/clawloan/pkg/fixed"
	"github.com/andreolf/clawloan/pkg/id"

	"github.com/labstack/echo/v4"
)

type borrowReq struct {
	BotID  string `json:"bot_id" validate:"required,hex32"`
	Amount string `json:"amount" validate:"required,amount"`
}

type repayReq struct {
	BotID  string `json:"bot_id" validate:"required,hex32"`
	Amount string `json:"amount" validate:"required,amount"`
}

type repayWithProfitReq struct {
	BotID        string `json:"bot_id"        validate:"required,hex32"`
	RepayAmount  string `json:"repay_amount"  validate:"required,amount"`
	ProfitAmount string `json:"profit_amount" validate:"required,units"`
}

func (h *Handler) Borrow(c echo.Context) error {
	var req borrowReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	res, err := h.loans.Borrow(c.Request().Context(), loan.BorrowInput{
		BotID:  req.BotID,
		Amount: fixed.MustParse(req.Amount),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) LoanStatus(c echo.Context) error {
	botID, ok := pathID(c, "bot_id")
	if !ok {
		return nil
	}
	res, err := h.loans.Status(c.Request().Context(), botID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ListLoans(c echo.Context) error {
	botID := c.QueryParam("bot_id")
	if botID != "" && !id.Valid(botID) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid bot_id", Code: "invalid_bot_id"})
	}
	limit, ok := queryLimit(c)
	if !ok {
		return nil
	}
	res, err := h.loans.List(c.Request().Context(), botID, limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": res})
}

func (h *Handler) Repay(c echo.Context) error {
	var req repayReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	res, err := h.repayment.Repay(c.Request().Context(), repayment.RepayInput{
		BotID:  req.BotID,
		Amount: fixed.MustParse(req.Amount),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) RepayWithProfit(c echo.Context) error {
	var req repayWithProfitReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	res, err := h.repayment.RepayWithProfit(c.Request().Context(), repayment.RepayWithProfitInput{
		BotID:        req.BotID,
		RepayAmount:  fixed.MustParse(req.RepayAmount),
		ProfitAmount: fixed.MustParse(req.ProfitAmount),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Liquidate(c echo.Context) error {
	loanID, ok := pathID(c, "loan_id")
	if !ok {
		return nil
	}
	res, err := h.repayment.Liquidate(c.Request().Context(), loanID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) SweepOverdue(c echo.Context) error {
	res, err := h.repayment.SweepOverdue(c.Request().Context())
	if err != nil {
		if res == nil {
			return h.fail(c, err)
		}
		// partial sweep: report what committed alongside the failure
		h.log.Error("sweep incomplete", zapRequest(c, err)...)
		return c.JSON(http.StatusMultiStatus, map[string]any{"result": res, "error": err.Error()})
	}
	return c.JSON(http.StatusOK, res)
}

// pathID reads a 32-hex path parameter, writing a 400 when it is malformed.
func pathID(c echo.Context, name string) (string, bool) {
	v := c.Param(name)
	if !id.Valid(v) {
		_ = c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name, Code: "invalid_" + name})
		return "", false
	}
	return v, true
}

// queryLimit parses ?limit=; absent means 0 and the usecase default applies.
func queryLimit(c echo.Context) (int, bool) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		_ = c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit", Code: "invalid_limit"})
		return 0, false
	}
	return n, true
}
