package repository

import (
	"context"
	"time"

	"ecshop/internal/domain/model"
)

type OrderRepository interface {
	// 明細は含めない（OrderItemsで保存）
	Create(ctx context.Context, order *model.Order) error
	// 明細込みで取得。forUpdateなら行ロック
	FindByID(ctx context.Context, orderID string, forUpdate bool) (model.Order, error)
	// 新しい順
	ListAll(ctx context.Context) ([]model.Order, error)
	ListByCreator(ctx context.Context, userID string) ([]model.Order, error)

	// CANCELLEDでないときだけ更新
	UpdateStatusIfActive(ctx context.Context, orderID string, status model.OrderStatus, actorID string, at time.Time) (bool, error)
}
