package pricing

import (
	"regexp"
	"strconv"

	"github.com/medaid/platform/pkg/types"
)

// Scoring policy for Best. The divisor and weight are a tunable heuristic
// carried over for behavioral compatibility: delivery speed counts twice as
// heavily as every 500 currency units of price.
const (
	bestPriceDivisor = 500.0
	bestTimeWeight   = 2.0
)

// deliveryTimeSentinel ranks quotes with an unparseable delivery estimate
// effectively last.
const deliveryTimeSentinel = 99999.0

// deliveryTimePattern matches a leading integer with an optional dash-range
// and unit word, e.g. "2-3 days", "1 day", "24 hours".
var deliveryTimePattern = regexp.MustCompile(`^\s*(\d+)(?:\s*-\s*\d+)?\s*\w*`)

// DeliveryTimeValue extracts the leading numeric value from a free-text
// delivery estimate. Unparseable estimates get the sentinel.
func DeliveryTimeValue(estimate string) float64 {
	m := deliveryTimePattern.FindStringSubmatch(estimate)
	if m == nil {
		return deliveryTimeSentinel
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return deliveryTimeSentinel
	}
	return v
}

// Cheapest returns the quote with the minimum final charge. Ties are broken
// by encounter order.
func Cheapest(quotes []types.PriceQuote) (types.PriceQuote, bool) {
	if len(quotes) == 0 {
		return types.PriceQuote{}, false
	}
	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.FinalCharge < best.FinalCharge {
			best = q
		}
	}
	return best, true
}

// Fastest returns the quote with the minimum delivery-time value. Ties are
// broken by encounter order.
func Fastest(quotes []types.PriceQuote) (types.PriceQuote, bool) {
	if len(quotes) == 0 {
		return types.PriceQuote{}, false
	}
	best := quotes[0]
	bestTime := DeliveryTimeValue(best.DeliveryTime)
	for _, q := range quotes[1:] {
		if t := DeliveryTimeValue(q.DeliveryTime); t < bestTime {
			best = q
			bestTime = t
		}
	}
	return best, true
}

// BestScore computes the weighted price/speed score for one quote
func BestScore(q types.PriceQuote) float64 {
	return q.FinalCharge/bestPriceDivisor + DeliveryTimeValue(q.DeliveryTime)*bestTimeWeight
}

// Best returns the quote minimizing the weighted score. Ties are broken by
// encounter order.
func Best(quotes []types.PriceQuote) (types.PriceQuote, bool) {
	if len(quotes) == 0 {
		return types.PriceQuote{}, false
	}
	best := quotes[0]
	bestScore := BestScore(best)
	for _, q := range quotes[1:] {
		if s := BestScore(q); s < bestScore {
			best = q
			bestScore = s
		}
	}
	return best, true
}
