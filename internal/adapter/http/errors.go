package http

import (
	"errors"
	"net/http"

	"github.com/andreolf/clawloan/internal/domain/activity"
	"github.com/andreolf/clawloan/internal/domain/bot"
	"github.com/andreolf/clawloan/internal/domain/credit"
	"github.com/andreolf/clawloan/internal/domain/loan"
	"github.com/andreolf/clawloan/internal/domain/pool"
	"github.com/andreolf/clawloan/pkg/fixed"

	"github.com/labstack/echo/v4"
)

type errorKind struct {
	err    error
	status int
	code   string
}

var errorKinds = []errorKind{
	{pool.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{fixed.ErrInvalid, http.StatusBadRequest, "invalid_amount"},
	{fixed.ErrTooLarge, http.StatusBadRequest, "invalid_amount"},
	{bot.ErrInvalid, http.StatusBadRequest, "invalid_bot"},
	{activity.ErrUnknownFilter, http.StatusBadRequest, "invalid_filter"},

	{bot.ErrNotFound, http.StatusNotFound, "bot_not_found"},
	{loan.ErrNotFound, http.StatusNotFound, "loan_not_found"},
	{loan.ErrNoActiveLoan, http.StatusNotFound, "no_active_loan"},

	{bot.ErrInactive, http.StatusForbidden, "bot_inactive"},
	{bot.ErrNoActivePermission, http.StatusForbidden, "no_active_permission"},
	{bot.ErrPermissionExpired, http.StatusForbidden, "permission_expired"},

	{loan.ErrDuplicateActive, http.StatusConflict, "duplicate_active_loan"},
	{loan.ErrClosed, http.StatusConflict, "loan_closed"},
	{loan.ErrNotOverdue, http.StatusConflict, "loan_not_overdue"},
	{loan.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},

	{credit.ErrLimitExceeded, http.StatusUnprocessableEntity, "limit_exceeded"},
	{pool.ErrInsufficientLiquidity, http.StatusUnprocessableEntity, "insufficient_liquidity"},
	{pool.ErrInsufficientShares, http.StatusUnprocessableEntity, "insufficient_shares"},
	{loan.ErrInsufficientRepayment, http.StatusUnprocessableEntity, "insufficient_repayment"},
	{pool.ErrNoRewards, http.StatusUnprocessableEntity, "no_rewards"},
	{pool.ErrRewardPoolInsufficient, http.StatusUnprocessableEntity, "reward_pool_insufficient"},

	{pool.ErrUninitialized, http.StatusServiceUnavailable, "pool_uninitialized"},
	{pool.ErrInactive, http.StatusServiceUnavailable, "pool_inactive"},
}

// statusFor maps a usecase error onto an HTTP status and a stable code.
// Unknown errors are internal.
func statusFor(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, k.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func (h *Handler) fail(c echo.Context, err error) error {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zapRequest(c, err)...)
		msg = "internal error"
	}
	return c.JSON(status, ErrorResponse{Error: msg, Code: code})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: "invalid_body"})
}

func invalid(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Code:    "validation_failed",
		Details: ToFieldErrors(err),
	})
}
