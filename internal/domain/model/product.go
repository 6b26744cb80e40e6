package model

import "github.com/shopspring/decimal"

// 商品。削除は論理削除（DeletedAt）
type Product struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_products_name,where:deleted_at IS NULL" json:"name"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Category    string          `gorm:"type:varchar(100);not null;index" json:"category"`
	Price       decimal.Decimal `gorm:"type:numeric;not null" json:"price"`
	Stock       int64           `gorm:"not null;check:chk_products_stock_nonneg,stock >= 0" json:"stock"`
	// 税率（%）
	Tax      decimal.Decimal `gorm:"type:numeric;not null;default:0" json:"tax"`
	ImageURL string          `gorm:"type:text" json:"imageUrl"`
	Audit
}
