package qr

import (
	"net/url"
	"strings"
)

// GenerateUPI builds the canonical upi://pay URI. The field order
// pa, pn, am, cu, tr is fixed for interop with UPI scanning apps.
func GenerateUPI(vpa, amount, transactionID, payeeName string) string {
	if payeeName == "" {
		payeeName = DefaultPayeeName
	}

	fields := [][2]string{
		{"pa", vpa},
		{"pn", payeeName},
		{"am", amount},
		{"cu", DefaultCurrency},
		{"tr", transactionID},
	}

	var b strings.Builder
	b.WriteString(UPIScheme)
	b.WriteString("pay?")
	for i, field := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(field[0])
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(field[1]))
	}
	return b.String()
}
