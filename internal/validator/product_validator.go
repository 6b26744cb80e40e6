package validator

import "github.com/shopspring/decimal"

const (
	productNameMinLen        = 3
	productDescriptionMinLen = 10
	productCategoryMinLen    = 3
)

// 商品の各項目。nilは「変更しない」（部分更新）
type ProductFields struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int64
	Tax         *decimal.Decimal
}

// 作成時は全部必須
func ValidateProductCreate(f ProductFields) Problems {
	var p Problems
	if f.Name == nil {
		p.Add("name is required")
	}
	if f.Description == nil {
		p.Add("description is required")
	}
	if f.Category == nil {
		p.Add("category is required")
	}
	if f.Price == nil {
		p.Add("price is required")
	}
	if f.Stock == nil {
		p.Add("stock is required")
	}
	return append(p, ValidateProductFields(f)...)
}

// 入っている項目だけチェック
func ValidateProductFields(f ProductFields) Problems {
	var p Problems
	if f.Name != nil {
		p.MinLen("name", *f.Name, productNameMinLen)
	}
	if f.Description != nil {
		p.MinLen("description", *f.Description, productDescriptionMinLen)
	}
	if f.Category != nil {
		p.MinLen("category", *f.Category, productCategoryMinLen)
	}
	if f.Price != nil && !f.Price.IsPositive() {
		p.Add("price must be greater than 0")
	}
	if f.Stock != nil && *f.Stock < 0 {
		p.Add("stock must be greater than or equal to 0")
	}
	if f.Tax != nil && f.Tax.IsNegative() {
		p.Add("tax must be greater than or equal to 0")
	}
	return p
}
