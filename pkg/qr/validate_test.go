package qr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantKind  Kind
		wantErr   error
		wantMsg   string
	}{
		{name: "empty", input: "", wantErr: ErrEmptyInput, wantMsg: "Please enter a valid QR code or address"},
		{name: "blank", input: "  ", wantErr: ErrEmptyInput, wantMsg: "Please enter a valid QR code or address"},
		{name: "valid upi", input: "upi://pay?pa=shop@upi", wantValid: true, wantKind: KindUPI},
		{name: "upi missing pa", input: "upi://pay?am=5", wantKind: KindUPI, wantErr: ErrInvalidUPI, wantMsg: "Invalid UPI QR code"},
		{name: "valid address", input: "0x" + strings.Repeat("b", 40), wantValid: true, wantKind: KindAddress},
		{name: "unsupported", input: "not a payment", wantErr: ErrUnknownTarget, wantMsg: "Unsupported QR code format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.input)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Equal(t, tt.wantKind, got.Kind)
			if tt.wantErr == nil {
				assert.NoError(t, got.Err())
				assert.Empty(t, got.Error)
				return
			}
			require.ErrorIs(t, got.Err(), tt.wantErr)
			assert.Equal(t, tt.wantMsg, got.Error)
		})
	}
}
