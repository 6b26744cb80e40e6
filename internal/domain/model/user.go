package model

import (
	"slices"
	"time"
)

type Role = string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// 自己申告できるロール
var KnownRoles = []Role{RoleUser, RoleAdmin}

type User struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	FirstName    string    `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName     string    `gorm:"type:varchar(100);not null" json:"lastName"`
	Roles        []Role    `gorm:"type:jsonb;serializer:json;not null" json:"roles"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}

func (u User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, role)
}

// リクエストを実行しているユーザー
type Actor struct {
	ID    string
	Roles []Role
}

func (a Actor) HasRole(role Role) bool {
	return slices.Contains(a.Roles, role)
}

func (a Actor) IsAdmin() bool {
	return a.HasRole(RoleAdmin)
}
