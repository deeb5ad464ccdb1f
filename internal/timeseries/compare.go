package timeseries

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaxPrecision is the largest number of decimal places deltas are rounded to.
// A float64 carries no more significant digits than this.
const MaxPrecision int32 = 15

// Compare computes, for every comparison bucket, the absolute and percentage
// change of each field present in both the baseline and that bucket.
//
// A percentage delta is nil when the baseline value is nil or zero, and both
// deltas are nil when either side is nil. Values are rounded to precision
// decimal places, at most MaxPrecision; a negative precision leaves them
// unrounded. A delta that overflows float64 is nil.
func Compare(baseline AggregatedBucket, others []AggregatedBucket, precision int32) ComparisonResult {
	result := ComparisonResult{
		Baseline:    baseline,
		Comparisons: make([]Comparison, 0, len(others)),
	}

	for _, other := range others {
		cmp := Comparison{
			Bucket:       other,
			Delta:        make(map[string]*float64),
			PercentDelta: make(map[string]*float64),
		}
		for field, base := range baseline.ReducedFields {
			cur, ok := other.ReducedFields[field]
			if !ok {
				continue
			}
			cmp.Delta[field], cmp.PercentDelta[field] = delta(base, cur, precision)
		}
		result.Comparisons = append(result.Comparisons, cmp)
	}
	return result
}

// PercentChange returns (cur - base) / base * 100, or nil when base is nil or zero.
func PercentChange(base, cur *float64, precision int32) *float64 {
	_, pct := delta(base, cur, precision)
	return pct
}

func delta(base, cur *float64, precision int32) (abs, pct *float64) {
	if base == nil || cur == nil {
		return nil, nil
	}
	d := *cur - *base
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return nil, nil
	}
	abs = Float(round(d, precision))
	if *base == 0 {
		return abs, nil
	}
	p := (*cur - *base) / *base * 100
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return abs, nil
	}
	return abs, Float(round(p, precision))
}

func round(v float64, precision int32) float64 {
	if precision < 0 {
		return v
	}
	if precision > MaxPrecision {
		precision = MaxPrecision
	}
	return decimal.NewFromFloat(v).Round(precision).InexactFloat64()
}
