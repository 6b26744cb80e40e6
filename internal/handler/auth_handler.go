package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ecshop/internal/logger"
	"ecshop/internal/usecase"
	auth "ecshop/internal/usecase/auth_usecase"
	"ecshop/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	registerUC *auth.RegisterUserUsecase // 会員登録usecase
	loginUC    *auth.LoginUsecase        // ログインusecase
	log        zerolog.Logger
}

// DIコンストラクタ
func NewAuthHandler(
	registerUC *auth.RegisterUserUsecase,
	loginUC *auth.LoginUsecase,
	log zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		registerUC: registerUC,
		loginUC:    loginUC,
		log:        log,
	}
}

// /auth/register のリクエストボディ。
type registerRequest struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Roles     []string `json:"roles"`
}

// /auth/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ログイン時はユーザー情報にtokenを足して返す
type loginUser struct {
	usecase.UserOutput
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type loginResponse struct {
	Message string    `json:"message"`
	User    loginUser `json:"user"`
}

// 認証なしのルート
func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
}

// RegisterはPOST /auth/registerのハンドラ
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: msgInvalidBody})
	}

	var problems validator.Problems
	problems.Required("firstName", req.FirstName)
	problems.Required("lastName", req.LastName)
	problems.Required("email", req.Email)
	problems.Required("password", req.Password)
	if !problems.Empty() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Errors: problems})
	}

	_, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Roles:     req.Roles,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNameRequired),
			errors.Is(err, auth.ErrInvalidEmailFormat),
			errors.Is(err, auth.ErrPasswordTooShort),
			errors.Is(err, auth.ErrWeakPassword),
			errors.Is(err, auth.ErrUnknownRole):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Errors: []string{err.Error()}})
		case errors.Is(err, auth.ErrEmailAlreadyExists):
			msg := fmt.Sprintf("User with email %q already exists", auth.NormalizeEmail(req.Email))
			return c.JSON(http.StatusConflict, ErrorResponse{Message: msg})
		default:
			logger.From(c.Request().Context(), &h.log).Error().Err(err).Msg("register failed")
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: msgInternal})
		}
	}

	return c.JSON(http.StatusCreated, SuccessResponse{Message: "User registered successfully"})
}

// LoginはPOST /auth/login のハンドラ。
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: msgInvalidBody})
	}

	var problems validator.Problems
	if problems.Required("email", req.Email) && !validator.IsEmailLike(strings.TrimSpace(req.Email)) {
		problems.Add("email must be a valid email address")
	}
	problems.Required("password", req.Password)
	if !problems.Empty() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Errors: problems})
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid email or password"})
		}
		logger.From(c.Request().Context(), &h.log).Error().Err(err).Msg("login failed")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: msgInternal})
	}

	//JSONレスポンス（user + token）
	return c.JSON(http.StatusOK, loginResponse{
		Message: "Login successful",
		User: loginUser{
			UserOutput: usecase.ToUserOutput(out.User),
			Token:      out.Token,
			ExpiresAt:  out.ExpiresAt,
		},
	})
}
