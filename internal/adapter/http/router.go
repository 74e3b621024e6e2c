package http

import (
	"github.com/labstack/echo/v4"
)

// Register mounts the /v1 API. idem wraps every mutating route; nil leaves
// them unguarded.
func Register(e *echo.Echo, h *Handler, idem echo.MiddlewareFunc) {
	e.GET("/health", h.Health)

	v1 := e.Group("/v1")
	var guard []echo.MiddlewareFunc
	if idem != nil {
		guard = append(guard, idem)
	}

	v1.POST("/deposits", h.Deposit, guard...)
	v1.POST("/withdrawals", h.Withdraw, guard...)
	v1.POST("/rewards/claim", h.ClaimRewards, guard...)
	v1.GET("/lenders/:lender_id/position", h.Position)
	v1.GET("/stats", h.Stats)

	v1.POST("/bots", h.RegisterBot, guard...)
	v1.GET("/bots", h.ListBots)
	v1.GET("/bots/:bot_id", h.GetBot)
	v1.PUT("/bots/:bot_id/permission", h.UpdatePermission, guard...)
	v1.POST("/bots/:bot_id/permission/revoke", h.RevokePermission, guard...)
	v1.POST("/bots/:bot_id/deactivate", h.DeactivateBot, guard...)
	v1.GET("/bots/:bot_id/loan", h.LoanStatus)
	v1.GET("/bots/:bot_id/credit", h.CreditProfile)

	v1.GET("/loans", h.ListLoans)
	v1.POST("/borrow", h.Borrow, guard...)
	v1.POST("/repay", h.Repay, guard...)
	v1.POST("/repay-with-profit", h.RepayWithProfit, guard...)
	v1.POST("/loans/:loan_id/liquidate", h.Liquidate, guard...)
	v1.POST("/liquidations/sweep", h.SweepOverdue, guard...)

	v1.GET("/leaderboard", h.Leaderboard)
	v1.GET("/activity", h.Activity)
}
