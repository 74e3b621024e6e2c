package http

import (
	"net/http"

	"github.com/andreolf/clawloan/internal/usecase/ledger"
	"github.com/andreolf/clawloan/pkg/fixed"

	"github.com/labstack/echo/v4"
)

type depositReq struct {
	LenderID string `json:"lender_id" validate:"required,account"`
	Amount   string `json:"amount"    validate:"required,amount"`
}

type withdrawReq struct {
	LenderID string `json:"lender_id" validate:"required,account"`
	Shares   string `json:"shares"    validate:"required,amount"`
}

type claimReq struct {
	LenderID string `json:"lender_id" validate:"required,account"`
}

func (h *Handler) Deposit(c echo.Context) error {
	var req depositReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	res, err := h.ledger.Deposit(c.Request().Context(), ledger.DepositInput{
		LenderID: req.LenderID,
		Amount:   fixed.MustParse(req.Amount),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) Withdraw(c echo.Context) error {
	var req withdrawReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	res, err := h.ledger.Withdraw(c.Request().Context(), ledger.WithdrawInput{
		LenderID: req.LenderID,
		Shares:   fixed.MustParse(req.Shares),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ClaimRewards(c echo.Context) error {
	var req claimReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, err)
	}
	res, err := h.ledger.ClaimRewards(c.Request().Context(), req.LenderID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Position(c echo.Context) error {
	lender := c.Param("lender_id")
	if !reAccount.MatchString(lender) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid lender_id", Code: "invalid_lender_id"})
	}
	res, err := h.ledger.Position(c.Request().Context(), lender)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Stats(c echo.Context) error {
	res, err := h.ledger.Stats(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
