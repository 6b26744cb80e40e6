package repository

import (
	"context"

	"ecshop/internal/domain/model"
)

// 商品詳細の読み取りキャッシュ。
// 見つからないときは (_, false, nil)
type ProductCache interface {
	Get(ctx context.Context, id string) (model.Product, bool, error)
	Set(ctx context.Context, p model.Product) error
	Invalidate(ctx context.Context, ids ...string) error
}
