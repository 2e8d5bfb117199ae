package qr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUPIFieldOrder(t *testing.T) {
	got := GenerateUPI("shop@okaxis", "150.00", "KRZ-1", "Corner Shop")
	assert.Equal(t, "upi://pay?pa=shop%40okaxis&pn=Corner+Shop&am=150.00&cu=INR&tr=KRZ-1", got)
}

func TestGenerateUPIDefaultsPayeeName(t *testing.T) {
	got := GenerateUPI("a@b", "1", "t1", "")
	assert.Contains(t, got, "&pn=KrizPay&")
}

func TestGenerateUPIRoundTrip(t *testing.T) {
	tests := []struct {
		vpa    string
		amount string
		ref    string
	}{
		{vpa: "a@b", amount: "10", ref: "tx-1"},
		{vpa: "merchant.name@okhdfcbank", amount: "0.01", ref: "ORD/2024/77"},
		{vpa: "x+y@upi", amount: "99999.99", ref: "ref with spaces"},
	}

	for _, tt := range tests {
		t.Run(tt.vpa, func(t *testing.T) {
			target := Classify(GenerateUPI(tt.vpa, tt.amount, tt.ref, ""))
			require.Equal(t, KindUPI, target.Kind)
			assert.Equal(t, tt.vpa, target.UPI.VPA)
			assert.Equal(t, tt.amount, target.UPI.Amount)
			assert.Equal(t, tt.ref, target.UPI.Ref)
			assert.Equal(t, DefaultCurrency, target.UPI.Currency)
		})
	}
}
