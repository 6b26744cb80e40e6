package model

import "github.com/shopspring/decimal"

// 注文明細。価格・税・名前は注文時点のスナップショット
type OrderItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderID     string          `gorm:"type:uuid;not null;index" json:"-"`
	Position    int             `gorm:"not null" json:"-"`
	ProductID   string          `gorm:"type:uuid;not null;index" json:"productId"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	ImageURL    string          `gorm:"type:text" json:"imageUrl"`
	Quantity    int64           `gorm:"not null;check:chk_order_items_quantity_pos,quantity > 0" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:numeric;not null" json:"priceAtPurchase"`
	Tax         decimal.Decimal `gorm:"type:numeric;not null" json:"taxAtPurchase"`
}
