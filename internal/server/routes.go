package server

import (
	"net/http"

	"ecshop/internal/config"
	"ecshop/internal/handler"
	"ecshop/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Product *handler.ProductHandler
	Order   *handler.OrderHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	h.Auth.RegisterRoutes(e)
	h.User.RegisterRoutes(e, cfg, userRepo)
	h.Product.RegisterRoutes(e, cfg, userRepo)
	h.Order.RegisterRoutes(e, cfg, userRepo)
}
