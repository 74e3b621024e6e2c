package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) CreditProfile(c echo.Context) error {
	botID, ok := pathID(c, "bot_id")
	if !ok {
		return nil
	}
	res, err := h.credit.Profile(c.Request().Context(), botID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Leaderboard(c echo.Context) error {
	limit, ok := queryLimit(c)
	if !ok {
		return nil
	}
	res, err := h.credit.Leaderboard(c.Request().Context(), limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"leaderboard": res})
}
