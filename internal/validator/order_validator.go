package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ecshop/internal/domain/model"
)

const (
	zipMinLen = 3
	zipMaxLen = 10
)

// 注文1行（商品ID + 数量）
type OrderLine struct {
	ProductID string
	Quantity  int64
}

// 注文明細のチェック。空・数量0以下・同じ商品の重複はNG
func ValidateOrderLines(lines []OrderLine) Problems {
	var p Problems
	if len(lines) == 0 {
		p.Add("items must not be empty")
		return p
	}

	seen := make(map[string]int, len(lines))
	for i, l := range lines {
		field := fmt.Sprintf("items[%d]", i)
		id := strings.TrimSpace(l.ProductID)
		if p.Required(field+".productId", id) {
			if first, dup := seen[id]; dup {
				p.Add("%s.productId duplicates items[%d]", field, first)
			} else {
				seen[id] = i
			}
		}
		if l.Quantity <= 0 {
			p.Add("%s.quantity must be greater than 0", field)
		}
	}
	return p
}

// 配送先のチェック
func ValidateShipping(s model.ShippingDetails) Problems {
	var p Problems
	const prefix = "shippingDetails."

	p.Required(prefix+"firstName", s.FirstName)
	p.Required(prefix+"lastName", s.LastName)
	if p.Required(prefix+"email", s.Email) && !IsEmailLike(s.Email) {
		p.Add("%semail must be a valid email", prefix)
	}
	p.Required(prefix+"phone", s.Phone)
	p.Required(prefix+"address", s.Address)
	p.Required(prefix+"city", s.City)
	p.Required(prefix+"state", s.State)
	if p.Required(prefix+"zipCode", s.ZipCode) {
		n := utf8.RuneCountInString(strings.TrimSpace(s.ZipCode))
		if n < zipMinLen || n > zipMaxLen {
			p.Add("%szipCode must be between %d and %d characters", prefix, zipMinLen, zipMaxLen)
		}
	}
	p.Required(prefix+"country", s.Country)
	return p
}

// 前後の空白を落とす
func NormalizeShipping(s model.ShippingDetails) model.ShippingDetails {
	return model.ShippingDetails{
		FirstName: strings.TrimSpace(s.FirstName),
		LastName:  strings.TrimSpace(s.LastName),
		Email:     strings.TrimSpace(s.Email),
		Phone:     strings.TrimSpace(s.Phone),
		Address:   strings.TrimSpace(s.Address),
		City:      strings.TrimSpace(s.City),
		State:     strings.TrimSpace(s.State),
		ZipCode:   strings.TrimSpace(s.ZipCode),
		Country:   strings.TrimSpace(s.Country),
	}
}
