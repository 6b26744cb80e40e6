package validator

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// 入力エラーをまとめて返すための入れ物
type Problems []string

func (p *Problems) Add(format string, args ...interface{}) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p Problems) Empty() bool {
	return len(p) == 0
}

// 必須チェック（空白だけも未入力扱い）
func (p *Problems) Required(field, v string) bool {
	if strings.TrimSpace(v) == "" {
		p.Add("%s is required", field)
		return false
	}
	return true
}

func (p *Problems) MinLen(field, v string, n int) {
	if utf8.RuneCountInString(strings.TrimSpace(v)) < n {
		p.Add("%s must be at least %d characters", field, n)
	}
}

// 簡易メール形式をチェック
func IsEmailLike(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}
