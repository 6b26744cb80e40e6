package event

import (
	"time"

	"ecshop/internal/domain/model"

	"github.com/shopspring/decimal"
)

type OrderEventType string

const (
	OrderCreated       OrderEventType = "order.created"
	OrderCancelled     OrderEventType = "order.cancelled"
	OrderStatusUpdated OrderEventType = "order.status_updated"
)

// コミット後に外へ通知する注文イベント
type OrderEvent struct {
	Type       OrderEventType    `json:"type"`
	OrderID    string            `json:"orderId"`
	ActorID    string            `json:"actorId"`
	OwnerID    string            `json:"ownerId"`
	Status     model.OrderStatus `json:"status"`
	Total      decimal.Decimal   `json:"total"`
	OccurredAt time.Time         `json:"occurredAt"`
}

func NewOrderEvent(t OrderEventType, o model.Order, actorID string, at time.Time) OrderEvent {
	return OrderEvent{
		Type:       t,
		OrderID:    o.ID,
		ActorID:    actorID,
		OwnerID:    o.CreatedBy,
		Status:     o.Status,
		Total:      o.Total,
		OccurredAt: at,
	}
}
