package model

import "time"

// 注文ステータス更新、商品更新など。
type AuditAction string

const (
	//注文ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	//注文をキャンセルした操作（在庫戻しを含む）。
	AuditActionCancelOrder AuditAction = "CANCEL_ORDER"
	//商品を更新した操作。
	AuditActionUpdateProduct AuditAction = "UPDATE_PRODUCT"
	//商品を削除した操作。
	AuditActionDeleteProduct AuditAction = "DELETE_PRODUCT"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceProduct AuditResourceType = "product"
	AuditResourceOrder   AuditResourceType = "order"
)

// 監査ログ。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザーのID。
	ActorUserID string `gorm:"type:uuid;not null;index" json:"actorUserId"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resourceType"`

	ResourceID string `gorm:"type:uuid;not null;index" json:"resourceId"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"beforeJson"`
	AfterJSON  string `gorm:"type:text" json:"afterJson"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}
