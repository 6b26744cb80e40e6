package repository

import (
	"context"
	"errors"
	"time"

	"ecshop/internal/domain/model"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

// 同じ名前・メールなどの一意制約違反
var ErrConflict = errors.New("conflict")

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	Category string
	Sort     string
}

// 部分更新。nilの項目は変更しない
type ProductPatch struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int64
	Tax         *decimal.Decimal
	ImageURL    *string
}

func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Category == nil &&
		p.Price == nil && p.Stock == nil && p.Tax == nil && p.ImageURL == nil
}

// 商品の永続化（保存・取得）だけを約束。削除済みは常に除外する。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id string) (model.Product, error)
	// 見つからないIDは結果に含めない。forUpdateなら行ロック
	FindByIDs(ctx context.Context, ids []string, forUpdate bool) ([]model.Product, error)
	FindByName(ctx context.Context, name string) (model.Product, error)

	Create(ctx context.Context, p *model.Product) error
	// updated_at / updated_by を自動で入れる
	Update(ctx context.Context, id string, patch ProductPatch, actorID string, at time.Time) (model.Product, error)
	SoftDelete(ctx context.Context, id string, actorID string, at time.Time) error
}
