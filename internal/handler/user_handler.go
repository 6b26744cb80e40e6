package handler

import (
	"net/http"

	"ecshop/internal/config"
	"ecshop/internal/domain/model"
	"ecshop/internal/middleware"
	"ecshop/internal/repository"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /user（管理者）
type UserHandler struct {
	uc *usecase.UserUsecase
}

func NewUserHandler(uc *usecase.UserUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

type usersResponse struct {
	Message string               `json:"message"`
	Users   []usecase.UserOutput `json:"users"`
}

func (h *UserHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/user")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.LoadActor(userRepo))
	g.Use(middleware.RequireRoles(model.RoleAdmin))

	g.GET("", h.list)
}

func (h *UserHandler) list(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgUnauthorized})
	}

	out, err := h.uc.List(c.Request().Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, usersResponse{Message: "Users fetched successfully", Users: out})
}
