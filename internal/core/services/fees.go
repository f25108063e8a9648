package services

import (
	"github.com/shopspring/decimal"

	"github.com/billetkay/earnings-ledger/internal/core/domain"
)

// FeeSchedule carries the configurable fee rates. Percentages are whole
// percents (5.0 means 5%), fixed components are cents.
type FeeSchedule struct {
	PlatformPercent     float64
	ProcessorPercent    float64
	ProcessorFixedCents int64
	SettlementHoldDays  int
}

// DefaultFeeSchedule mirrors production pricing: 5% platform commission and
// the processor's 2.9% + 30c per-transaction fee, with a 7-day settlement
// hold past event end.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		PlatformPercent:     5.0,
		ProcessorPercent:    2.9,
		ProcessorFixedCents: 30,
		SettlementHoldDays:  7,
	}
}

// FeeCalculator computes platform and processing fees. All methods are pure.
type FeeCalculator struct {
	schedule FeeSchedule
}

func NewFeeCalculator(schedule FeeSchedule) *FeeCalculator {
	return &FeeCalculator{schedule: schedule}
}

func (c *FeeCalculator) Schedule() FeeSchedule {
	return c.schedule
}

// percentOf returns round(amount * percent / 100) in cents, rounding half
// away from zero after the conversion so fractional cents never leak.
func percentOf(amountCents int64, percent float64) int64 {
	return decimal.NewFromInt(amountCents).
		Mul(decimal.NewFromFloat(percent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// CalculateFees applies the platform fee and the processor's
// percentage-plus-fixed fee to the same gross amount. The net is floored at
// zero when combined fees exceed a pathologically small gross; Clamped flags
// that boundary case.
func (c *FeeCalculator) CalculateFees(grossCents int64) domain.FeeBreakdown {
	if grossCents <= 0 {
		return domain.FeeBreakdown{}
	}

	platform := percentOf(grossCents, c.schedule.PlatformPercent)
	processing := percentOf(grossCents, c.schedule.ProcessorPercent) + c.schedule.ProcessorFixedCents

	net := grossCents - platform - processing
	clamped := false
	if net < 0 {
		net = 0
		clamped = true
	}

	return domain.FeeBreakdown{
		GrossAmount:   grossCents,
		PlatformFee:   platform,
		ProcessingFee: processing,
		NetAmount:     net,
		Clamped:       clamped,
	}
}

// ResolveFeesInput describes one payment group: the organizer-facing gross in
// event-currency cents plus the rail metadata needed to reconstruct the
// processor's cut.
type ResolveFeesInput struct {
	GrossEventCents    int64
	Method             domain.PaymentMethod
	ChargedAmountCents int64   // settlement currency, 0 when unknown
	FxRate             float64 // settlement units per event unit, 0 when unknown
}

// ResolveFees computes the fee split for one payment group.
//
// The platform fee is always taken on the event-currency gross, so it can
// never be distorted by FX. Stripe rails charge their fee in the settlement
// currency: it is computed on the charged amount (falling back to the gross)
// and converted back into event-currency cents through the FX rate when one
// is known. Mobile-money rails settle their own fees at charge time and
// contribute nothing here.
func (c *FeeCalculator) ResolveFees(in ResolveFeesInput) domain.FeeBreakdown {
	if in.GrossEventCents <= 0 {
		return domain.FeeBreakdown{}
	}

	platform := percentOf(in.GrossEventCents, c.schedule.PlatformPercent)

	var processing int64
	if in.Method.IsStripeRail() {
		base := in.ChargedAmountCents
		if base <= 0 {
			base = in.GrossEventCents
		}
		processing = percentOf(base, c.schedule.ProcessorPercent) + c.schedule.ProcessorFixedCents
		if in.FxRate > 0 {
			processing = decimal.NewFromInt(processing).
				Div(decimal.NewFromFloat(in.FxRate)).
				Round(0).
				IntPart()
		}
	}

	return domain.FeeBreakdown{
		GrossAmount:   in.GrossEventCents,
		PlatformFee:   platform,
		ProcessingFee: processing,
		NetAmount:     in.GrossEventCents - platform - processing,
	}
}

// FlatNetCents is the payout-eligibility view of a ticket's net: the gross
// minus the flat platform percentage, ignoring rail-specific processing fees.
func (c *FeeCalculator) FlatNetCents(grossCents int64) int64 {
	if grossCents <= 0 {
		return 0
	}
	return grossCents - percentOf(grossCents, c.schedule.PlatformPercent)
}
