package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// リクエストの完了ログ。RequestIDの内側で使う
func RequestLogger(fallback zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// echoのエラーハンドラでレスポンスを書かせてからstatusを読む
				c.Error(err)
			}

			req := c.Request()
			l := zerolog.Ctx(req.Context())
			if l.GetLevel() == zerolog.Disabled {
				l = &fallback
			}

			status := c.Response().Status
			ev := l.Info()
			if status >= 500 {
				ev = l.Error()
			} else if status >= 400 {
				ev = l.Warn()
			}
			if err != nil {
				ev = ev.Err(err)
			}

			ev.Str("method", req.Method).
				Str("path", c.Path()).
				Str("uri", req.RequestURI).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request completed")

			return nil
		}
	}
}
