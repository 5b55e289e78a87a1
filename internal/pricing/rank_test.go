package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medaid/platform/pkg/types"
)

func TestDeliveryTimeValue(t *testing.T) {
	tests := []struct {
		estimate string
		expected float64
	}{
		{"3 days", 3},
		{"2-3 days", 2},
		{"1 day", 1},
		{"24 hours", 24},
		{"  5 days", 5},
		{"same day", deliveryTimeSentinel},
		{"", deliveryTimeSentinel},
		{"unknown", deliveryTimeSentinel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, DeliveryTimeValue(tt.estimate), "estimate %q", tt.estimate)
	}
}

func TestDerivedMetrics_Deterministic(t *testing.T) {
	quotes := []types.PriceQuote{
		{Link: "a", FinalCharge: 100, DeliveryTime: "3 days"},
		{Link: "b", FinalCharge: 80, DeliveryTime: "5 days"},
		{Link: "c", FinalCharge: 90, DeliveryTime: "1 day"},
	}

	cheapest, ok := Cheapest(quotes)
	assert.True(t, ok)
	assert.Equal(t, "b", cheapest.Link)

	fastest, ok := Fastest(quotes)
	assert.True(t, ok)
	assert.Equal(t, "c", fastest.Link)

	// Scores: 100/500+3*2=6.2, 80/500+5*2=10.16, 90/500+1*2=2.18
	best, ok := Best(quotes)
	assert.True(t, ok)
	assert.Equal(t, "c", best.Link)
	assert.InDelta(t, 2.18, BestScore(best), 0.0001)
}

func TestDerivedMetrics_TiesKeepEncounterOrder(t *testing.T) {
	quotes := []types.PriceQuote{
		{Link: "first", FinalCharge: 50, DeliveryTime: "2 days"},
		{Link: "second", FinalCharge: 50, DeliveryTime: "2 days"},
	}

	cheapest, _ := Cheapest(quotes)
	assert.Equal(t, "first", cheapest.Link)

	fastest, _ := Fastest(quotes)
	assert.Equal(t, "first", fastest.Link)

	best, _ := Best(quotes)
	assert.Equal(t, "first", best.Link)
}

func TestDerivedMetrics_UnparseableTimeRanksLast(t *testing.T) {
	quotes := []types.PriceQuote{
		{Link: "a", FinalCharge: 10, DeliveryTime: "soon"},
		{Link: "b", FinalCharge: 500, DeliveryTime: "7 days"},
	}

	fastest, _ := Fastest(quotes)
	assert.Equal(t, "b", fastest.Link)

	best, _ := Best(quotes)
	assert.Equal(t, "b", best.Link)
}

func TestDerivedMetrics_Empty(t *testing.T) {
	_, ok := Cheapest(nil)
	assert.False(t, ok)
	_, ok = Fastest(nil)
	assert.False(t, ok)
	_, ok = Best(nil)
	assert.False(t, ok)
}
