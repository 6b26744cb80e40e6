package middleware

import (
	"errors"
	"net/http"
	"strings"

	"ecshop/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey    = "user_id"    // string(uuid)
	CtxActorKey     = "actor"      // model.Actor
	CtxRequestIDKey = "request_id" // string
)

const msgUnauthorized = "Unauthorized"

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	secret := []byte(cfg.JWTSecret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get(echo.HeaderAuthorization)
			if authz == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgUnauthorized))
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgUnauthorized))
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgUnauthorized))
			}

			//JWTをパースして検証する（expもここで見る）
			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return secret, nil
			})
			if err != nil || token == nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgUnauthorized))
			}

			//claimsを取り出す
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgUnauthorized))
			}

			//user_idを取り出す
			userID, err := parseSubject(claims["sub"])
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgUnauthorized))
			}

			//contextへ保存
			c.Set(CtxUserIDKey, userID)

			return next(c)
		}
	}
}

type errorResponse struct {
	Message string `json:"message"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Message: msg}
}

// subはユーザーのUUID文字列
func parseSubject(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.New("invalid sub")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("empty sub")
	}
	return s, nil
}
