package middleware

import (
	"errors"
	"net/http"

	"ecshop/internal/domain/model"
	"ecshop/internal/logger"
	"ecshop/internal/repository"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// JWTのsubからDBの最新ユーザーを読み、rolesをcontextに入れる。
// 削除されたユーザーのtokenはここで401になる
func LoadActor(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//AuthJWTが入れたuser_id を取得する
			userID, ok := c.Get(CtxUserIDKey).(string)
			if !ok || userID == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgUnauthorized))
			}

			ctx := c.Request().Context()

			//DBから最新のuserを取得する
			user, err := userRepo.FindByID(ctx, userID)
			if errors.Is(err, repository.ErrUserNotFound) || (err == nil && user == nil) {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgUnauthorized))
			}
			if err != nil {
				fallback := zerolog.Nop()
				logger.From(ctx, &fallback).Error().Err(err).Str("user_id", userID).Msg("load actor failed")
				return c.JSON(http.StatusInternalServerError, errorJSON("Server error, please try again later."))
			}

			c.Set(CtxActorKey, model.Actor{ID: user.ID, Roles: user.Roles})

			// 以降のログにuser_idを載せる
			if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
				scoped := l.With().Str("user_id", user.ID).Logger()
				c.SetRequest(c.Request().WithContext(scoped.WithContext(ctx)))
			}

			return next(c)
		}
	}
}

// LoadActorが入れたactorを取り出す
func ActorFrom(c echo.Context) (model.Actor, bool) {
	actor, ok := c.Get(CtxActorKey).(model.Actor)
	if !ok || actor.ID == "" {
		return model.Actor{}, false
	}
	return actor, true
}
