package middleware

import (
	"strconv"
	"time"

	"github.com/andreolf/clawloan/internal/infrastructure/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequestLogger writes one access line per request and records its latency.
// The route label is the registered path, not the raw URL.
func RequestLogger(log *zap.Logger, m *metrics.Engine) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)

			req := c.Request()
			res := c.Response()
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveHTTP(req.Method, route, strconv.Itoa(res.Status), elapsed.Seconds())

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("route", route),
				zap.Int("status", res.Status),
				zap.Duration("latency", elapsed),
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
			}
			switch {
			case res.Status >= 500:
				log.Error("request", append(fields, zap.Error(err))...)
			case res.Status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		}
	}
}
