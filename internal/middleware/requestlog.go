package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestLogger attaches a child of base carrying the request id to each
// request context and writes one line per completed request.  It must run
// after echo's RequestID middleware.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			l := base.With().Str("request_id", rid).Logger()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			ev := zerolog.Ctx(c.Request().Context()).Info()
			switch {
			case status >= 500:
				ev = zerolog.Ctx(c.Request().Context()).Error().Err(err)
			case status >= 400:
				ev = zerolog.Ctx(c.Request().Context()).Warn()
			}
			ev.Str("method", req.Method).
				Str("route", c.Path()).
				Str("uri", req.RequestURI).
				Int("status", status).
				Str("remote_ip", c.RealIP()).
				Dur("latency", time.Since(start)).
				Msg("request")
			return nil
		}
	}
}
