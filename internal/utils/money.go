package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatAmount renders an integer amount with thousand separators and a currency label,
// e.g. FormatAmount(150000, "IDR") == "IDR 150.000".
func FormatAmount(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return sign + formatThousand(amount)
	}
	return fmt.Sprintf("%s %s%s", currency, sign, formatThousand(amount))
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte('.')
		}
		out.WriteRune(c)
	}
	return out.String()
}
