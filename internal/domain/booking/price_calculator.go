package booking

import "math"

type Quote struct {
	BillableHours float64
	Subtotal      Money
	Fee           Money
	Total         Money
}

type PriceCalculator interface {
	Quote(hours float64, method PaymentMethod) Quote
}

type DefaultPriceCalculator struct {
	HourlyRateCents int64
	MinimumHours    float64
	CardFeePercent  float64
}

func NewDefaultPriceCalculator(hourlyRateCents int64, minimumHours, cardFeePercent float64) *DefaultPriceCalculator {
	return &DefaultPriceCalculator{
		HourlyRateCents: hourlyRateCents,
		MinimumHours:    minimumHours,
		CardFeePercent:  cardFeePercent,
	}
}

// Quote bills at least MinimumHours. Card payments carry a processing fee.
func (pc *DefaultPriceCalculator) Quote(hours float64, method PaymentMethod) Quote {
	billable := math.Max(hours, pc.MinimumHours)
	subtotal := int64(math.Round(billable * float64(pc.HourlyRateCents)))

	var fee int64
	if method == PaymentCard {
		fee = int64(math.Round(float64(subtotal) * pc.CardFeePercent / 100))
	}

	return Quote{
		BillableHours: billable,
		Subtotal:      NewMoney(subtotal),
		Fee:           NewMoney(fee),
		Total:         NewMoney(subtotal + fee),
	}
}
