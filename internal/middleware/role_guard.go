package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const msgForbiddenRole = "Access denied: insufficient permissions"

// contextのactorが指定roleのどれかを持つか確認します。
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgUnauthorized))
			}

			for _, r := range roles {
				if actor.HasRole(r) {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, errorJSON(msgForbiddenRole))
		}
	}
}
