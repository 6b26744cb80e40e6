package usecase

import (
	"context"
	"net/http"
	"time"

	"ecshop/internal/domain/model"
	"ecshop/internal/logger"
	repo "ecshop/internal/repository"

	"github.com/rs/zerolog"
)

type UserUsecase struct {
	users repo.UserRepository
	log   zerolog.Logger
}

func NewUserUsecase(users repo.UserRepository, log zerolog.Logger) *UserUsecase {
	return &UserUsecase{users: users, log: log}
}

// パスワードハッシュは返さない
type UserOutput struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	FirstName string       `json:"firstName"`
	LastName  string       `json:"lastName"`
	Roles     []model.Role `json:"roles"`
	CreatedAt time.Time    `json:"createdAt"`
}

func ToUserOutput(u model.User) UserOutput {
	roles := u.Roles
	if roles == nil {
		roles = []model.Role{}
	}
	return UserOutput{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Roles:     roles,
		CreatedAt: u.CreatedAt,
	}
}

// ユーザー一覧（管理者）
func (u *UserUsecase) List(ctx context.Context, actor model.Actor) ([]UserOutput, error) {
	if !actor.IsAdmin() {
		return []UserOutput{}, NewHTTPError(http.StatusForbidden, msgForbiddenRole)
	}

	users, err := u.users.List(ctx)
	if err != nil {
		return []UserOutput{}, internalError(logger.From(ctx, &u.log), err, "user.list")
	}

	outs := make([]UserOutput, 0, len(users))
	for _, usr := range users {
		outs = append(outs, ToUserOutput(usr))
	}
	return outs, nil
}
