package http

import (
	"context"
	"net/http"
	"time"

	activityuc "github.com/andreolf/clawloan/internal/usecase/activity"
	botuc "github.com/andreolf/clawloan/internal/usecase/bot"
	credituc "github.com/andreolf/clawloan/internal/usecase/credit"
	"github.com/andreolf/clawloan/internal/usecase/ledger"
	"github.com/andreolf/clawloan/internal/usecase/loan"
	"github.com/andreolf/clawloan/internal/usecase/repayment"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type Deps struct {
	Ledger    *ledger.Usecase
	Loans     *loan.Usecase
	Repayment *repayment.Usecase
	Bots      *botuc.Usecase
	Credit    *credituc.Usecase
	Activity  *activityuc.Usecase
	// Ping checks the database; nil skips the check.
	Ping   func(ctx context.Context) error
	Logger *zap.Logger
}

type Handler struct {
	ledger    *ledger.Usecase
	loans     *loan.Usecase
	repayment *repayment.Usecase
	bots      *botuc.Usecase
	credit    *credituc.Usecase
	activity  *activityuc.Usecase
	ping      func(ctx context.Context) error
	log       *zap.Logger
}

func NewHandler(d Deps) *Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		ledger:    d.Ledger,
		loans:     d.Loans,
		repayment: d.Repayment,
		bots:      d.Bots,
		credit:    d.Credit,
		activity:  d.Activity,
		ping:      d.Ping,
		log:       log,
	}
}

func (h *Handler) Health(c echo.Context) error {
	status, code := "ok", http.StatusOK
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			h.log.Warn("health: database unreachable", zap.Error(err))
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	return c.JSON(code, map[string]any{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func zapRequest(c echo.Context, err error) []zap.Field {
	return []zap.Field{
		zap.String("method", c.Request().Method),
		zap.String("route", c.Path()),
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		zap.Error(err),
	}
}
