package http

import (
	"net/http"

	domain "github.com/andreolf/clawloan/internal/domain/activity"
	activityuc "github.com/andreolf/clawloan/internal/usecase/activity"

	"github.com/labstack/echo/v4"
)

// Activity serves GET /v1/activity?filter=all|supply|borrow&actor=&limit=.
func (h *Handler) Activity(c echo.Context) error {
	limit, ok := queryLimit(c)
	if !ok {
		return nil
	}
	res, err := h.activity.Feed(c.Request().Context(), activityuc.FeedInput{
		Filter: domain.Filter(c.QueryParam("filter")),
		Actor:  c.QueryParam("actor"),
		Limit:  limit,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"events": res})
}
