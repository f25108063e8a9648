package domain

import "strings"

// Currency is the closed set of currencies the ledger understands.
// Every raw stored string is normalized into one of these at the boundary.
type Currency string

const (
	CurrencyHTG Currency = "HTG"
	CurrencyUSD Currency = "USD"
)

// PaymentMethod is the closed set of payment rails.
type PaymentMethod string

const (
	PaymentStripe        PaymentMethod = "stripe"
	PaymentStripeConnect PaymentMethod = "stripe_connect"
	PaymentMonCash       PaymentMethod = "moncash"
	PaymentMonCashButton PaymentMethod = "moncash_button"
	PaymentNatCash       PaymentMethod = "natcash"
	PaymentSogePay       PaymentMethod = "sogepay"
	PaymentUnknown       PaymentMethod = "unknown"
)

// NormalizeCurrency maps a raw stored currency string to a Currency.
// Historical records carry inconsistent casing and spellings, so anything
// not recognizably USD falls back to HTG. Never fails.
func NormalizeCurrency(raw string) Currency {
	v := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case v == "USD", v == "US$", v == "$", strings.Contains(v, "USD"), strings.Contains(v, "DOLLAR"):
		return CurrencyUSD
	default:
		return CurrencyHTG
	}
}

// NormalizePaymentMethod maps a raw stored payment method string to a
// PaymentMethod. Unrecognized input maps to PaymentUnknown. Never fails.
func NormalizePaymentMethod(raw string) PaymentMethod {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.ReplaceAll(v, "-", "_")
	v = strings.ReplaceAll(v, " ", "_")

	switch {
	case strings.Contains(v, "stripe_connect"), strings.Contains(v, "connect"):
		return PaymentStripeConnect
	case strings.Contains(v, "stripe"), strings.Contains(v, "card"):
		return PaymentStripe
	case strings.Contains(v, "moncash_button"):
		return PaymentMonCashButton
	case strings.Contains(v, "moncash"), strings.Contains(v, "mon_cash"):
		return PaymentMonCash
	case strings.Contains(v, "natcash"), strings.Contains(v, "nat_cash"):
		return PaymentNatCash
	case strings.Contains(v, "sogepay"), strings.Contains(v, "soge"):
		return PaymentSogePay
	default:
		return PaymentUnknown
	}
}

// IsStripeRail reports whether the processor charges its percentage-plus-fixed
// fee in the settlement currency (which may differ from the event currency).
func (m PaymentMethod) IsStripeRail() bool {
	return m == PaymentStripe || m == PaymentStripeConnect
}

// IsMobileMoneyRail reports whether the method is one of the local
// mobile-money rails.
func (m PaymentMethod) IsMobileMoneyRail() bool {
	switch m {
	case PaymentMonCash, PaymentMonCashButton, PaymentNatCash, PaymentSogePay:
		return true
	}
	return false
}

// FeeBreakdown is the result of a fee computation. All amounts are integer
// minor currency units (cents) in the event's listed currency.
type FeeBreakdown struct {
	GrossAmount   int64 `json:"gross_amount"`
	PlatformFee   int64 `json:"platform_fee"`
	ProcessingFee int64 `json:"processing_fee"`
	NetAmount     int64 `json:"net_amount"`

	// Clamped is set when combined fees exceeded the gross amount and the
	// net was floored at zero instead of going negative.
	Clamped bool `json:"clamped,omitempty"`
}

// EarningsDelta carries the per-operation increments (or decrements) applied
// to an EventEarnings record. All amounts are cents in event currency.
type EarningsDelta struct {
	GrossCents         int64
	PlatformFeeCents   int64
	ProcessingFeeCents int64
	NetCents           int64
	Tickets            int
}
