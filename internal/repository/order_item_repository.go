package repository

import (
	"context"

	"ecshop/internal/domain/model"
)

type OrderItemRepository interface {
	// 並び順はスライスの順（position）
	CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error
}
