package repository

import (
	"context"
	"strings"
	"time"

	"ecshop/internal/domain/model"
	repo "ecshop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 削除されていない商品を、検索/カテゴリ/ソート/ページング付きで返す。
func (r *ProductGormRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Product{})

	// q nameを対象
	if s := strings.TrimSpace(q.Q); s != "" {
		tx = tx.Where("name ILIKE ?", "%"+s+"%")
	}
	if c := strings.TrimSpace(q.Category); c != "" {
		tx = tx.Where("category = ?", c)
	}

	//total（件数）。条件を使い回すのでSessionで分ける
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return []model.Product{}, 0, translateError(err)
	}

	//sort
	switch q.Sort {
	case "price_asc":
		tx = tx.Order("price asc").Order("id asc")
	case "price_desc":
		tx = tx.Order("price desc").Order("id desc")
	case "name":
		tx = tx.Order("name asc")
	default:
		tx = tx.Order("created_at desc").Order("id desc")
	}

	offset := (q.Page - 1) * q.Limit
	if err := tx.Offset(offset).Limit(q.Limit).Find(&products).Error; err != nil {
		return []model.Product{}, 0, translateError(err)
	}

	return products, total, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return model.Product{}, translateError(err)
	}
	return p, nil
}

// まとめて取得。ロック順を固定するためid順
func (r *ProductGormRepository) FindByIDs(ctx context.Context, ids []string, forUpdate bool) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	tx := r.db.WithContext(ctx)
	if forUpdate {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var products []model.Product
	if err := tx.Where("id IN ?", ids).Order("id asc").Find(&products).Error; err != nil {
		return nil, translateError(err)
	}
	return products, nil
}

// 名前で商品を取得（重複チェック用）
func (r *ProductGormRepository) FindByName(ctx context.Context, name string) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&p).Error; err != nil {
		return model.Product{}, translateError(err)
	}
	return p, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p *model.Product) error {
	return translateError(r.db.WithContext(ctx).Create(p).Error)
}

// 商品の部分更新
func (r *ProductGormRepository) Update(ctx context.Context, id string, patch repo.ProductPatch, actorID string, at time.Time) (model.Product, error) {
	updates := map[string]interface{}{
		"updated_at": at,
		"updated_by": actorID,
	}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if patch.Price != nil {
		updates["price"] = *patch.Price
	}
	if patch.Stock != nil {
		updates["stock"] = *patch.Stock
	}
	if patch.Tax != nil {
		updates["tax"] = *patch.Tax
	}
	if patch.ImageURL != nil {
		updates["image_url"] = *patch.ImageURL
	}

	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return model.Product{}, translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return model.Product{}, repo.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// 商品削除（論理削除）
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id string, actorID string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"deleted_at": at,
		"deleted_by": actorID,
	})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
