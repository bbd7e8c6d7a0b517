package middleware

import (
	"time"

	"github.com/cofreforte/cofre-backend/internal/metrics"
	"github.com/labstack/echo/v4"
)

// Metrics records request counts and latency by route pattern
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}

			done := metrics.RequestStarted()
			defer done()

			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo write the response so the recorded status is final
				c.Error(err)
			}
			metrics.ObserveRequest(c.Request().Method, c.Path(), c.Response().Status, time.Since(start))
			return nil
		}
	}
}
