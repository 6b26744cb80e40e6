package model

import (
	"time"

	"gorm.io/gorm"
)

// 作成・更新・削除の記録（商品と注文で共通）
type Audit struct {
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt *time.Time     `gorm:"autoUpdateTime:false" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt"`
	CreatedBy string         `gorm:"type:uuid;not null;index" json:"createdBy"`
	UpdatedBy *string        `gorm:"type:uuid" json:"updatedBy"`
	DeletedBy *string        `gorm:"type:uuid" json:"deletedBy"`
}
