package handler

import (
	"net/http"
	"strconv"

	"ecshop/internal/config"
	"ecshop/internal/domain/model"
	"ecshop/internal/middleware"
	"ecshop/internal/repository"
	"ecshop/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// 作成・部分更新の両方で使う。未指定はnil
type ProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int64           `json:"stock"`
	Tax         *decimal.Decimal `json:"tax"`
	ImageURL    *string          `json:"imageUrl"`
}

func (r ProductRequest) toInput() usecase.ProductInput {
	return usecase.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Price:       r.Price,
		Stock:       r.Stock,
		Tax:         r.Tax,
		ImageURL:    r.ImageURL,
	}
}

type productResponse struct {
	Message string        `json:"message"`
	Product model.Product `json:"product"`
}

type productsResponse struct {
	Message  string          `json:"message"`
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

// /product
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 商品のルートを登録。書き込みは管理者のみ
func (h *ProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/product")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.LoadActor(userRepo))

	adminOnly := middleware.RequireRoles(model.RoleAdmin)

	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.POST("", h.create, adminOnly)
	g.PUT("/:id", h.update, adminOnly)
	g.DELETE("/:id", h.delete, adminOnly)
}

func (h *ProductHandler) list(c echo.Context) error {
	// page（default 1）
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid page"})
		}
		page = p
	}

	// limit（default 20）
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid limit"})
		}
		limit = l
	}

	out, err := h.uc.List(c.Request().Context(), usecase.ListProductsInput{
		Page:     page,
		Limit:    limit,
		Q:        c.QueryParam("q"),
		Category: c.QueryParam("category"),
		Sort:     c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, productsResponse{
		Message:  "Products fetched successfully",
		Products: out.Products,
		Total:    out.Total,
		Page:     out.Page,
		Limit:    out.Limit,
	})
}

func (h *ProductHandler) detail(c echo.Context) error {
	p, err := h.uc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, productResponse{Message: "Product fetched successfully", Product: p})
}

func (h *ProductHandler) create(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgUnauthorized})
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: msgInvalidBody})
	}

	p, err := h.uc.Create(c.Request().Context(), actor, req.toInput())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, productResponse{Message: "Product created successfully", Product: p})
}

func (h *ProductHandler) update(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgUnauthorized})
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: msgInvalidBody})
	}

	p, err := h.uc.Update(c.Request().Context(), actor, c.Param("id"), req.toInput())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, productResponse{Message: "Product updated successfully", Product: p})
}

func (h *ProductHandler) delete(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: msgUnauthorized})
	}

	if err := h.uc.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
