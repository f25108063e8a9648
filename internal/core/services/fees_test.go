package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/billetkay/earnings-ledger/internal/core/domain"
	"github.com/billetkay/earnings-ledger/internal/core/services"
)

func defaultCalc() *services.FeeCalculator {
	return services.NewFeeCalculator(services.DefaultFeeSchedule())
}

func TestCalculateFees_Additivity(t *testing.T) {
	calc := defaultCalc()

	// Fees plus net must reassemble the gross for every amount that does not
	// hit the tiny-amount clamp.
	grosses := []int64{50, 100, 999, 1000, 12345, 99999, 200000, 5000000}
	for _, gross := range grosses {
		fees := calc.CalculateFees(gross)
		if fees.Clamped {
			continue
		}
		assert.Equal(t, gross, fees.PlatformFee+fees.ProcessingFee+fees.NetAmount,
			"additivity broken for gross=%d", gross)
	}
}

func TestCalculateFees_KnownSplit(t *testing.T) {
	calc := defaultCalc()

	fees := calc.CalculateFees(200000)

	assert.Equal(t, int64(200000), fees.GrossAmount)
	assert.Equal(t, int64(10000), fees.PlatformFee)   // 5%
	assert.Equal(t, int64(5830), fees.ProcessingFee)  // 2.9% + 30c
	assert.Equal(t, int64(184170), fees.NetAmount)
	assert.False(t, fees.Clamped)
}

func TestCalculateFees_ClampsTinyAmounts(t *testing.T) {
	calc := defaultCalc()

	// Fixed processor component alone exceeds a 10-cent sale.
	fees := calc.CalculateFees(10)

	assert.Equal(t, int64(0), fees.NetAmount)
	assert.True(t, fees.Clamped)
}

func TestCalculateFees_NonPositiveGross(t *testing.T) {
	calc := defaultCalc()

	assert.Equal(t, domain.FeeBreakdown{}, calc.CalculateFees(0))
	assert.Equal(t, domain.FeeBreakdown{}, calc.CalculateFees(-500))
}

func TestResolveFees_NonPositiveGross(t *testing.T) {
	calc := defaultCalc()

	fees := calc.ResolveFees(services.ResolveFeesInput{
		GrossEventCents: 0,
		Method:          domain.PaymentStripe,
	})

	assert.Equal(t, domain.FeeBreakdown{}, fees)
}

func TestResolveFees_PlatformFeeNeverTracksChargedAmount(t *testing.T) {
	calc := defaultCalc()

	// HTG-priced event charged in USD: the platform fee must come off the
	// event-currency gross only, whatever the processor charged.
	base := services.ResolveFeesInput{
		GrossEventCents:    50000,
		Method:             domain.PaymentStripe,
		ChargedAmountCents: 333,
		FxRate:             150,
	}
	fees := calc.ResolveFees(base)
	assert.Equal(t, int64(2500), fees.PlatformFee)

	inflated := base
	inflated.ChargedAmountCents = 999999
	assert.Equal(t, fees.PlatformFee, calc.ResolveFees(inflated).PlatformFee)
}

func TestResolveFees_StripeFeeConvertedThroughFxRate(t *testing.T) {
	calc := defaultCalc()

	fees := calc.ResolveFees(services.ResolveFeesInput{
		GrossEventCents:    50000,
		Method:             domain.PaymentStripe,
		ChargedAmountCents: 1000,
		FxRate:             2,
	})

	// round(1000 * 2.9%) + 30 = 59 settlement cents, divided by the rate.
	assert.Equal(t, int64(30), fees.ProcessingFee)
	assert.Equal(t, int64(50000-2500-30), fees.NetAmount)
}

func TestResolveFees_StripeWithoutFxRateUsesFeeUnconverted(t *testing.T) {
	calc := defaultCalc()

	fees := calc.ResolveFees(services.ResolveFeesInput{
		GrossEventCents:    50000,
		Method:             domain.PaymentStripeConnect,
		ChargedAmountCents: 1000,
	})

	assert.Equal(t, int64(59), fees.ProcessingFee)
}

func TestResolveFees_StripeFallsBackToGrossWhenChargeUnknown(t *testing.T) {
	calc := defaultCalc()

	fees := calc.ResolveFees(services.ResolveFeesInput{
		GrossEventCents: 10000,
		Method:          domain.PaymentStripe,
	})

	assert.Equal(t, int64(290+30), fees.ProcessingFee)
}

func TestResolveFees_MobileMoneyRailsContributeNoProcessingFee(t *testing.T) {
	calc := defaultCalc()

	for _, method := range []domain.PaymentMethod{
		domain.PaymentMonCash,
		domain.PaymentMonCashButton,
		domain.PaymentNatCash,
		domain.PaymentSogePay,
		domain.PaymentUnknown,
	} {
		fees := calc.ResolveFees(services.ResolveFeesInput{
			GrossEventCents: 100000,
			Method:          method,
		})
		assert.Equal(t, int64(0), fees.ProcessingFee, "method %s", method)
		assert.Equal(t, int64(100000-5000), fees.NetAmount, "method %s", method)
	}
}

func TestFlatNetCents(t *testing.T) {
	calc := defaultCalc()

	assert.Equal(t, int64(95000), calc.FlatNetCents(100000))
	assert.Equal(t, int64(0), calc.FlatNetCents(0))
	assert.Equal(t, int64(0), calc.FlatNetCents(-100))
}
