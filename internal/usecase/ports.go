package usecase

import (
	"context"
	"time"

	"ecshop/internal/domain/event"
)

// 注文イベントの送信先（Kafkaなど）
type OrderEventPublisher interface {
	Publish(ctx context.Context, ev event.OrderEvent) error
}

type IDGenerator interface {
	NewID() string
}

type Clock interface {
	Now() time.Time
}
