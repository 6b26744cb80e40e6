package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// 文字列から注文ステータスへ。知らない値はfalse
func ParseOrderStatus(s string) (OrderStatus, bool) {
	v := OrderStatus(strings.TrimSpace(s))
	for _, st := range orderStatuses {
		if st == v {
			return st, true
		}
	}
	return "", false
}

// CANCELLEDは終端
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled
}

// 配送先
type ShippingDetails struct {
	FirstName string `gorm:"type:varchar(100);not null" json:"firstName"`
	LastName  string `gorm:"type:varchar(100);not null" json:"lastName"`
	Email     string `gorm:"type:varchar(255);not null" json:"email"`
	Phone     string `gorm:"type:varchar(50);not null" json:"phone"`
	Address   string `gorm:"type:text;not null" json:"address"`
	City      string `gorm:"type:varchar(100);not null" json:"city"`
	State     string `gorm:"type:varchar(100);not null" json:"state"`
	ZipCode   string `gorm:"type:varchar(10);not null" json:"zipCode"`
	Country   string `gorm:"type:varchar(100);not null" json:"country"`
}

type Order struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	Shipping    ShippingDetails `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingDetails"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal    decimal.Decimal `gorm:"type:numeric;not null" json:"subtotal"`
	TaxTotal    decimal.Decimal `gorm:"type:numeric;not null" json:"taxTotal"`
	ShippingFee decimal.Decimal `gorm:"type:numeric;not null" json:"shippingFee"`
	Total       decimal.Decimal `gorm:"type:numeric;not null" json:"total"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Audit
}

// 作成者か
func (o Order) IsOwnedBy(userID string) bool {
	return userID != "" && o.CreatedBy == userID
}
