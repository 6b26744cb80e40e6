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

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type OrderCreateRequest struct {
	Items           []orderItemRequest    `json:"items"`
	ShippingDetails model.ShippingDetails `json:"shippingDetails"`
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	Message string              `json:"message"`
	Order   usecase.OrderOutput `json:"order"`
}

type ordersResponse struct {
	Message string                `json:"message"`
	Orders  []usecase.OrderOutput `json:"orders"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/order")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.LoadActor(userRepo))

	adminOnly := middleware.RequireRoles(model.RoleAdmin)

	g.POST("", h.create)
	g.GET("", h.listAll, adminOnly)
	// /:id より先に登録
	g.GET("/me", h.listMine)
	g.GET("/:id", h.detail)
	g.PUT("/:id", h.updateStatus, adminOnly)
	g.DELETE("/:id", h.cancel)
}

func (h *OrderHandler) create(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgUnauthorized})
	}

	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: msgInvalidBody})
	}

	items := make([]usecase.OrderItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = usecase.OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), actor, usecase.CreateOrderInput{
		Items:    items,
		Shipping: req.ShippingDetails,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, orderResponse{Message: "Order created successfully", Order: out})
}

func (h *OrderHandler) listAll(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgUnauthorized})
	}

	out, err := h.uc.ListAll(c.Request().Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ordersResponse{Message: "Orders fetched successfully", Orders: out})
}

func (h *OrderHandler) listMine(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgUnauthorized})
	}

	out, err := h.uc.ListMine(c.Request().Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ordersResponse{Message: "Orders fetched successfully", Orders: out})
}

func (h *OrderHandler) detail(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgUnauthorized})
	}

	out, err := h.uc.GetByID(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orderResponse{Message: "Order fetched successfully", Order: out})
}

func (h *OrderHandler) updateStatus(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgUnauthorized})
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: msgInvalidBody})
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orderResponse{Message: "Order updated successfully", Order: out})
}

func (h *OrderHandler) cancel(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgUnauthorized})
	}

	if err := h.uc.Cancel(c.Request().Context(), actor, c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
