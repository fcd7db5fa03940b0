package guards

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestCheckPriceOutlier(t *testing.T) {
	tests := []struct {
		name      string
		oldPrice  float64
		newPrice  float64
		isOutlier bool
		deviation float64
	}{
		{"small increase", 100, 110, false, 10},
		{"40 percent exactly is not an outlier", 100, 140, false, 40},
		{"just above 40 percent", 100, 140.01, true, 40.01},
		{"large increase", 29.99, 49.99, true, 66.68889629876626},
		{"large decrease", 100, 50, true, 50},
		{"40 percent decrease exactly", 100, 60, false, 40},
		{"no change", 100, 100, false, 0},
		{"zero old price with nonzero new", 0, 10, true, 9999.0},
		{"zero old price with zero new", 0, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckPriceOutlier(tt.oldPrice, tt.newPrice)
			assert.Equal(t, tt.isOutlier, result.IsOutlier)
			assert.InDelta(t, tt.deviation, result.DeviationPct, 1e-9)
			assert.Equal(t, tt.oldPrice, result.OldPrice)
			assert.Equal(t, tt.newPrice, result.NewPrice)
		})
	}
}

func TestCheckPriceOutlierThreshold(t *testing.T) {
	result := CheckPriceOutlierThreshold(100, 120, 10)
	assert.True(t, result.IsOutlier)

	result = CheckPriceOutlierThreshold(100, 120, 25)
	assert.False(t, result.IsOutlier)
}

// Property: for any positive prices, the outlier flag agrees exactly with
// the deviation formula, and the boundary is exclusive.
func TestPriceOutlierProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("flag matches deviation formula", prop.ForAll(
		func(oldPrice, newPrice float64) bool {
			result := CheckPriceOutlier(oldPrice, newPrice)
			deviation := math.Abs(newPrice-oldPrice) / oldPrice * 100
			return result.IsOutlier == (deviation > DefaultPriceDeviationThreshold)
		},
		gen.Float64Range(0.01, 100000),
		gen.Float64Range(0, 100000),
	))

	properties.Property("deviation is symmetric in direction", prop.ForAll(
		func(base, delta float64) bool {
			up := CheckPriceOutlier(base, base+delta)
			down := CheckPriceOutlier(base, base-delta)
			return math.Abs(up.DeviationPct-down.DeviationPct) < 1e-6
		},
		gen.Float64Range(1, 10000),
		gen.Float64Range(0, 0.99),
	))

	properties.TestingRun(t)
}
