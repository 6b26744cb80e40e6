package handler

import (
	"net/http"

	"ecshop/internal/domain/model"
	"ecshop/internal/middleware"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

const (
	msgInvalidBody  = "Invalid request body"
	msgUnauthorized = "Unauthorized"
	msgInternal     = "Server error, please try again later."
)

type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// SuccessResponse は { message: string } だけ返すとき
type SuccessResponse struct {
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Message: he.Message, Errors: he.Details})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: msgInternal})
}

// middleware.LoadActorが入れた操作者
func actorFromContext(c echo.Context) (model.Actor, bool) {
	return middleware.ActorFrom(c)
}
