package middleware

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const maxRequestIDLen = 128

// X-Request-IDを引き継ぐか採番し、request_id付きloggerをcontextに入れる
func RequestID(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			id := strings.TrimSpace(req.Header.Get(echo.HeaderXRequestID))
			if id == "" || len(id) > maxRequestIDLen {
				id = uuid.NewString()
			}

			c.Set(CtxRequestIDKey, id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			l := base.With().Str("request_id", id).Logger()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))

			return next(c)
		}
	}
}
