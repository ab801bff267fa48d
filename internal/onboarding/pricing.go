package onboarding

import (
	"fmt"

	"site-onboarding/internal/domain"
)

// Amount is a monthly price in euro cents.
type Amount int64

// String formats the amount with two decimals, e.g. "43.90".
func (a Amount) String() string {
	sign := ""
	if a < 0 {
		sign = "-"
		a = -a
	}
	return fmt.Sprintf("%s%d.%02d", sign, a/100, a%100)
}

// Monthly prices in cents.
const (
	IntroBasePrice    Amount = 3900
	StandardBasePrice Amount = 5900
	SubPagePrice      Amount = 490
)

// AddOnPrice returns the monthly surcharge of an add-on.
func AddOnPrice(addOn domain.AddOn) Amount {
	switch addOn {
	case domain.AddOnContactForm:
		return 490
	case domain.AddOnGallery:
		return 490
	case domain.AddOnMenu:
		return 990
	case domain.AddOnPriceList:
		return 990
	default:
		return 0
	}
}

// Price returns the monthly price for the selections in state. The introductory base
// applies to the first billing period only.
func Price(state domain.State, firstPeriod bool) Amount {
	total := StandardBasePrice
	if firstPeriod {
		total = IntroBasePrice
	}
	for _, addOn := range state.AddOns.Active() {
		total += AddOnPrice(addOn)
	}
	total += SubPagePrice * Amount(len(state.NamedSubPages()))
	return total
}
