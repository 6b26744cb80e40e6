package repository

import "context"

type InventoryRepository interface {
	// 在庫が足りるときだけ減算
	DecreaseStockIfEnough(ctx context.Context, productID string, qty int64) (bool, error)

	// 在庫戻し（キャンセルなど）
	IncreaseStock(ctx context.Context, productID string, qty int64) error
}
