package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/billetkay/earnings-ledger/internal/core/domain"
)

func TestNormalizeCurrency(t *testing.T) {
	cases := map[string]domain.Currency{
		"USD":             domain.CurrencyUSD,
		"usd":             domain.CurrencyUSD,
		" Usd ":           domain.CurrencyUSD,
		"US$":             domain.CurrencyUSD,
		"$":               domain.CurrencyUSD,
		"US Dollars":      domain.CurrencyUSD,
		"HTG":             domain.CurrencyHTG,
		"htg":             domain.CurrencyHTG,
		"gourdes":         domain.CurrencyHTG,
		"":                domain.CurrencyHTG,
		"something-weird": domain.CurrencyHTG,
	}

	for raw, want := range cases {
		assert.Equal(t, want, domain.NormalizeCurrency(raw), "raw=%q", raw)
	}
}

func TestNormalizePaymentMethod(t *testing.T) {
	cases := map[string]domain.PaymentMethod{
		"stripe":         domain.PaymentStripe,
		"Stripe":         domain.PaymentStripe,
		"card":           domain.PaymentStripe,
		"stripe_connect": domain.PaymentStripeConnect,
		"stripe-connect": domain.PaymentStripeConnect,
		"moncash":        domain.PaymentMonCash,
		"MonCash":        domain.PaymentMonCash,
		"mon cash":       domain.PaymentMonCash,
		"moncash_button": domain.PaymentMonCashButton,
		"moncash-button": domain.PaymentMonCashButton,
		"natcash":        domain.PaymentNatCash,
		"sogepay":        domain.PaymentSogePay,
		"SogeBank Pay":   domain.PaymentSogePay,
		"":               domain.PaymentUnknown,
		"cash":           domain.PaymentUnknown,
		"bitcoin":        domain.PaymentUnknown,
	}

	for raw, want := range cases {
		assert.Equal(t, want, domain.NormalizePaymentMethod(raw), "raw=%q", raw)
	}
}

func TestPaymentMethodRails(t *testing.T) {
	assert.True(t, domain.PaymentStripe.IsStripeRail())
	assert.True(t, domain.PaymentStripeConnect.IsStripeRail())
	assert.False(t, domain.PaymentMonCash.IsStripeRail())

	assert.True(t, domain.PaymentMonCash.IsMobileMoneyRail())
	assert.True(t, domain.PaymentNatCash.IsMobileMoneyRail())
	assert.False(t, domain.PaymentStripe.IsMobileMoneyRail())
	assert.False(t, domain.PaymentUnknown.IsMobileMoneyRail())
}
