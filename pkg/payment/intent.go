package payment

import (
	"errors"
	"strings"

	"krizpay/pkg/qr"
)

// DefaultToken is paid when an intent names none
const DefaultToken = "eth"

// Intent is one requested transfer
type Intent struct {
	Target    qr.Target
	Token     string
	Amount    string
	Reference string
}

// ParseIntent validates scanned or pasted text and builds an intent from it.
// An amount embedded in a UPI code is used when amount is empty. Blank input
// is invalid_input; only text that matches no target is unknown_target.
func ParseIntent(raw, amount, token string) (Intent, error) {
	validation := qr.Validate(raw)
	if !validation.Valid {
		kind := KindUnknownTarget
		if validation.Kind != "" || errors.Is(validation.Err(), qr.ErrEmptyInput) {
			kind = KindInvalidInput
		}
		return Intent{}, newError(kind, validation.Error, validation.Err())
	}

	target := validation.Target
	intent := Intent{
		Target: target,
		Token:  strings.TrimSpace(token),
		Amount: strings.TrimSpace(amount),
	}
	if target.UPI != nil {
		if intent.Amount == "" {
			intent.Amount = target.UPI.Amount
		}
		intent.Reference = target.UPI.Ref
	}
	if intent.Token == "" {
		intent.Token = DefaultToken
	}
	return intent, nil
}

// Recipient returns the classified identifier the intent pays
func (i Intent) Recipient() string {
	return strings.TrimSpace(i.Target.Identifier())
}
