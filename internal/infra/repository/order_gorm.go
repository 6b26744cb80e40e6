package repository

import (
	"context"
	"time"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func itemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}

func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error)
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID string, forUpdate bool) (model.Order, error) {
	tx := r.db.WithContext(ctx)
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var o model.Order
	if err := tx.First(&o, "id = ?", orderID).Error; err != nil {
		return model.Order{}, translateError(err)
	}

	//明細はロックなしで別クエリ
	var items []model.OrderItem
	if err := itemsByPosition(r.db.WithContext(ctx)).Where("order_id = ?", o.ID).Find(&items).Error; err != nil {
		return model.Order{}, translateError(err)
	}
	o.Items = items
	return o, nil
}

func (r *OrderGormRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return []model.Order{}, translateError(err)
	}
	return orders, nil
}

func (r *OrderGormRepository) ListByCreator(ctx context.Context, userID string) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Where("created_by = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return []model.Order{}, translateError(err)
	}
	return orders, nil
}

// CANCELLED以外のときだけステータスを書き換える
func (r *OrderGormRepository) UpdateStatusIfActive(ctx context.Context, orderID string, status model.OrderStatus, actorID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status <> ?", orderID, model.OrderStatusCancelled).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": at,
			"updated_by": actorID,
		})
	if res.Error != nil {
		return false, translateError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

var _ repo.OrderRepository = (*OrderGormRepository)(nil)
