package repository

import (
	"context"

	"ecshop/internal/domain/model"

	"gorm.io/gorm"
)

type OrderItemGormRepository struct {
	db *gorm.DB
}

func NewOrderItemGormRepository(db *gorm.DB) *OrderItemGormRepository {
	return &OrderItemGormRepository{db: db}
}

// 明細を一括作成。positionは渡された順
func (r *OrderItemGormRepository) CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	rows := make([]model.OrderItem, len(items))
	for i, it := range items {
		it.ID = 0
		it.OrderID = orderID
		it.Position = i
		rows[i] = it
	}
	return translateError(r.db.WithContext(ctx).Create(&rows).Error)
}
