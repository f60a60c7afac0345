package crypto

import "strings"

// NormalizePhone remove separadores e mantém apenas dígitos e o "+" inicial
// (formato E.164, ex.: +5511999998888).
func NormalizePhone(phone string) string {
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
