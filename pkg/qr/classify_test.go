package qr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	evm := "0x" + strings.Repeat("a", 40)

	tests := []struct {
		name        string
		input       string
		wantKind    Kind
		wantVPA     string
		wantAddress string
		wantNetwork string
	}{
		{name: "empty", input: "", wantKind: KindUnknown},
		{name: "whitespace", input: "   \n\t", wantKind: KindUnknown},
		{name: "upi with pa", input: "upi://pay?pa=a@b&am=10", wantKind: KindUPI, wantVPA: "a@b"},
		{name: "upi scheme is case insensitive", input: "UPI://pay?pa=shop@okaxis", wantKind: KindUPI, wantVPA: "shop@okaxis"},
		{name: "upi without pa", input: "upi://pay?pn=Shop&am=10", wantKind: KindUnknown},
		{name: "upi with empty pa", input: "upi://pay?pa=&am=10", wantKind: KindUnknown},
		{name: "evm address", input: evm, wantKind: KindAddress, wantAddress: evm, wantNetwork: HintEVM},
		{name: "evm address mixed case", input: "0xAbCdEf0123456789aBcDeF0123456789AbCdEf01", wantKind: KindAddress, wantAddress: "0xAbCdEf0123456789aBcDeF0123456789AbCdEf01", wantNetwork: HintEVM},
		{name: "evm address trailing newline", input: evm + "\n", wantKind: KindAddress, wantAddress: evm, wantNetwork: HintEVM},
		{name: "0x with non hex body", input: "0x" + strings.Repeat("z", 40), wantKind: KindUnknown},
		{name: "base58 style lower bound", input: strings.Repeat("1", 26), wantKind: KindAddress, wantAddress: strings.Repeat("1", 26), wantNetwork: HintUnknown},
		{name: "base58 style upper bound", input: strings.Repeat("9", 35), wantKind: KindAddress, wantAddress: strings.Repeat("9", 35), wantNetwork: HintUnknown},
		{name: "too short", input: strings.Repeat("1", 25), wantKind: KindUnknown},
		{name: "too long", input: strings.Repeat("1", 36), wantKind: KindUnknown},
		{name: "plain text", input: "hello", wantKind: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.input)
			require.Equal(t, tt.wantKind, got.Kind)
			switch tt.wantKind {
			case KindUPI:
				require.NotNil(t, got.UPI)
				assert.Equal(t, tt.wantVPA, got.UPI.VPA)
				assert.Nil(t, got.Address)
			case KindAddress:
				require.NotNil(t, got.Address)
				assert.Equal(t, tt.wantAddress, got.Address.Address)
				assert.Equal(t, tt.wantNetwork, got.Address.Network)
				assert.Nil(t, got.UPI)
			default:
				assert.Nil(t, got.UPI)
				assert.Nil(t, got.Address)
			}
		})
	}
}

func TestClassifyUPIFields(t *testing.T) {
	got := Classify("upi://pay?pa=a@b&am=10")
	require.Equal(t, KindUPI, got.Kind)
	assert.Equal(t, UPIPayload{VPA: "a@b", Amount: "10", Currency: "INR"}, *got.UPI)

	full := Classify("upi://pay?pa=merchant@ybl&pn=Tea%20Stall&am=42.50&tn=chai&tr=ORD-9&cu=USD")
	require.Equal(t, KindUPI, full.Kind)
	assert.Equal(t, UPIPayload{
		VPA:       "merchant@ybl",
		PayeeName: "Tea Stall",
		Amount:    "42.50",
		Note:      "chai",
		Ref:       "ORD-9",
		Currency:  "USD",
	}, *full.UPI)
	assert.Equal(t, "merchant@ybl", full.Identifier())
}

func TestClassifyUnknownForUnmatchedStrings(t *testing.T) {
	for _, input := range []string{"a", "bitcoin", "https://example.com", strings.Repeat("x", 60), "0x1234"} {
		assert.Equal(t, KindUnknown, Classify(input).Kind, "input %q", input)
	}
}
