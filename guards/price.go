package guards

import "math"

// DefaultPriceDeviationThreshold is the percentage deviation above which a
// price change is flagged as an outlier. The boundary is exclusive: exactly
// this deviation is not an outlier.
const DefaultPriceDeviationThreshold = 40.0

// zeroBaseDeviation is the reported deviation when the prior price is 0
// and the new price is not: the true deviation is unbounded, so a fixed
// sentinel keeps the value serializable.
const zeroBaseDeviation = 9999.0

// PriceOutlierResult is the outcome of the price deviation guard.
type PriceOutlierResult struct {
	IsOutlier    bool    `json:"is_outlier"`
	DeviationPct float64 `json:"deviation_pct"`
	OldPrice     float64 `json:"old_price"`
	NewPrice     float64 `json:"new_price"`
}

// CheckPriceOutlier flags a price change whose deviation exceeds the
// default threshold. A prior price of exactly 0 with a nonzero new price is
// always an outlier; 0 to 0 is not.
func CheckPriceOutlier(oldPrice, newPrice float64) PriceOutlierResult {
	return CheckPriceOutlierThreshold(oldPrice, newPrice, DefaultPriceDeviationThreshold)
}

// CheckPriceOutlierThreshold is CheckPriceOutlier with an explicit
// threshold percentage.
func CheckPriceOutlierThreshold(oldPrice, newPrice, threshold float64) PriceOutlierResult {
	result := PriceOutlierResult{OldPrice: oldPrice, NewPrice: newPrice}

	if oldPrice == 0 {
		if newPrice != 0 {
			result.IsOutlier = true
			result.DeviationPct = zeroBaseDeviation
		}
		return result
	}

	result.DeviationPct = math.Abs(newPrice-oldPrice) / math.Abs(oldPrice) * 100
	result.IsOutlier = result.DeviationPct > threshold
	return result
}
