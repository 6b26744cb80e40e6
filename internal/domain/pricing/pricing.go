package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// 1明細ぶんの入力（商品の現在値 + 注文数）
type Line struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	// 税率（%）
	Tax      decimal.Decimal
	Stock    int64
	Quantity int64
}

// 注文金額
type Quote struct {
	Subtotal    decimal.Decimal
	TaxTotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
}

// 在庫不足。Productは商品名（なければID）
type InsufficientStockError struct {
	Product string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for product %s", e.Product)
}

// 在庫を確認して金額を計算する。丸めはしない
func Calculate(lines []Line, shippingFee decimal.Decimal) (Quote, error) {
	subtotal := decimal.Zero
	taxTotal := decimal.Zero

	for _, l := range lines {
		if l.Stock < l.Quantity {
			label := l.Name
			if label == "" {
				label = l.ProductID
			}
			return Quote{}, &InsufficientStockError{Product: label}
		}

		lineTotal := l.Price.Mul(decimal.NewFromInt(l.Quantity))
		subtotal = subtotal.Add(lineTotal)
		taxTotal = taxTotal.Add(lineTotal.Mul(l.Tax).Div(hundred))
	}

	return Quote{
		Subtotal:    subtotal,
		TaxTotal:    taxTotal,
		ShippingFee: shippingFee,
		Total:       subtotal.Add(taxTotal).Add(shippingFee),
	}, nil
}
