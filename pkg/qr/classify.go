// Package qr turns scanned or pasted text into typed payment targets.
package qr

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind is the classification of a scanned payload
type Kind string

const (
	KindUPI     Kind = "upi"
	KindAddress Kind = "address"
	KindUnknown Kind = "unknown"
)

const (
	// UPIScheme prefixes every UPI payment URI
	UPIScheme = "upi://"

	// HintEVM marks 0x-prefixed 20-byte hex addresses
	HintEVM = "ethereum"
	// HintUnknown marks the base58-style length bucket; nothing is decoded
	HintUnknown = "unknown"

	DefaultCurrency  = "INR"
	DefaultPayeeName = "KrizPay"

	minLooseAddressLen = 26
	maxLooseAddressLen = 35
)

var evmAddressPattern = regexp.MustCompile(`^0[xX][0-9a-fA-F]{40}$`)

// UPIPayload holds the query fields of a upi://pay URI
type UPIPayload struct {
	VPA       string `json:"vpa"`
	PayeeName string `json:"payeeName,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Note      string `json:"note,omitempty"`
	Ref       string `json:"ref,omitempty"`
	Currency  string `json:"currency"`
}

// AddressPayload is a crypto address with a network hint
type AddressPayload struct {
	Address string `json:"address"`
	Network string `json:"network"`
}

// Target is the result of classifying raw QR text. Exactly one of UPI and
// Address is set for the matching kind; both are nil for KindUnknown.
type Target struct {
	Kind    Kind            `json:"kind"`
	UPI     *UPIPayload     `json:"upi,omitempty"`
	Address *AddressPayload `json:"address,omitempty"`
}

// Identifier returns the VPA or address carried by the target
func (t Target) Identifier() string {
	switch {
	case t.UPI != nil:
		return t.UPI.VPA
	case t.Address != nil:
		return t.Address.Address
	default:
		return ""
	}
}

// Classify parses raw scanner output. It never fails: anything it cannot
// recognize comes back as KindUnknown.
func Classify(raw string) Target {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Target{Kind: KindUnknown}
	}

	if hasUPIScheme(text) {
		payload, ok := parseUPI(text)
		if !ok || payload.VPA == "" {
			return Target{Kind: KindUnknown}
		}
		return Target{Kind: KindUPI, UPI: payload}
	}

	if evmAddressPattern.MatchString(text) {
		return Target{Kind: KindAddress, Address: &AddressPayload{Address: text, Network: HintEVM}}
	}

	if n := utf8.RuneCountInString(text); n >= minLooseAddressLen && n <= maxLooseAddressLen {
		return Target{Kind: KindAddress, Address: &AddressPayload{Address: text, Network: HintUnknown}}
	}

	return Target{Kind: KindUnknown}
}

func hasUPIScheme(text string) bool {
	return len(text) >= len(UPIScheme) && strings.EqualFold(text[:len(UPIScheme)], UPIScheme)
}

func parseUPI(text string) (*UPIPayload, bool) {
	u, err := url.Parse(text)
	if err != nil {
		return nil, false
	}
	params, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, false
	}

	currency := params.Get("cu")
	if currency == "" {
		currency = DefaultCurrency
	}

	return &UPIPayload{
		VPA:       strings.TrimSpace(params.Get("pa")),
		PayeeName: params.Get("pn"),
		Amount:    params.Get("am"),
		Note:      params.Get("tn"),
		Ref:       params.Get("tr"),
		Currency:  currency,
	}, true
}
