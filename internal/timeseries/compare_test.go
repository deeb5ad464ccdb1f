package timeseries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bucket(fields map[string]*float64) AggregatedBucket {
	return AggregatedBucket{ReducedFields: fields, Count: 1}
}

func TestCompare_PercentDelta(t *testing.T) {
	baseline := bucket(map[string]*float64{"views": Float(100)})
	other := bucket(map[string]*float64{"views": Float(150)})

	res := Compare(baseline, []AggregatedBucket{other}, 1)

	require.Len(t, res.Comparisons, 1)
	require.NotNil(t, res.Comparisons[0].PercentDelta["views"])
	assert.Equal(t, 50.0, *res.Comparisons[0].PercentDelta["views"])
	assert.Equal(t, 50.0, *res.Comparisons[0].Delta["views"])
}

func TestCompare_ZeroBaselineIsNull(t *testing.T) {
	baseline := bucket(map[string]*float64{"x": Float(0)})
	other := bucket(map[string]*float64{"x": Float(50)})

	res := Compare(baseline, []AggregatedBucket{other}, 0)

	require.Len(t, res.Comparisons, 1)
	pct, ok := res.Comparisons[0].PercentDelta["x"]
	assert.True(t, ok)
	assert.Nil(t, pct)
	assert.Equal(t, 50.0, *res.Comparisons[0].Delta["x"])
}

func TestCompare_NullSides(t *testing.T) {
	baseline := bucket(map[string]*float64{"a": nil, "b": Float(10)})
	other := bucket(map[string]*float64{"a": Float(5), "b": nil})

	res := Compare(baseline, []AggregatedBucket{other}, 1)

	cmp := res.Comparisons[0]
	assert.Nil(t, cmp.PercentDelta["a"])
	assert.Nil(t, cmp.Delta["a"])
	assert.Nil(t, cmp.PercentDelta["b"])
	assert.Nil(t, cmp.Delta["b"])
}

func TestCompare_OnlySharedFields(t *testing.T) {
	baseline := bucket(map[string]*float64{"a": Float(1), "only_base": Float(2)})
	other := bucket(map[string]*float64{"a": Float(2), "only_other": Float(3)})

	res := Compare(baseline, []AggregatedBucket{other}, 1)

	cmp := res.Comparisons[0]
	assert.Contains(t, cmp.PercentDelta, "a")
	assert.NotContains(t, cmp.PercentDelta, "only_base")
	assert.NotContains(t, cmp.PercentDelta, "only_other")
}

func TestCompare_Rounding(t *testing.T) {
	baseline := bucket(map[string]*float64{"x": Float(3)})
	others := []AggregatedBucket{
		bucket(map[string]*float64{"x": Float(4)}),
		bucket(map[string]*float64{"x": Float(2)}),
	}

	res := Compare(baseline, others, 1)
	assert.Equal(t, 33.3, *res.Comparisons[0].PercentDelta["x"])
	assert.Equal(t, -33.3, *res.Comparisons[1].PercentDelta["x"])

	res = Compare(baseline, others, 0)
	assert.Equal(t, 33.0, *res.Comparisons[0].PercentDelta["x"])

	res = Compare(baseline, others, -1)
	assert.InDelta(t, 33.3333333, *res.Comparisons[0].PercentDelta["x"], 1e-6)
}

func TestCompare_OverflowingDeltaIsNull(t *testing.T) {
	baseline := bucket(map[string]*float64{"x": Float(-1e308)})
	other := bucket(map[string]*float64{"x": Float(1e308)})

	var res ComparisonResult
	require.NotPanics(t, func() { res = Compare(baseline, []AggregatedBucket{other}, 1) })

	assert.Contains(t, res.Comparisons[0].Delta, "x")
	assert.Nil(t, res.Comparisons[0].Delta["x"])
	assert.Nil(t, res.Comparisons[0].PercentDelta["x"])
}

func TestCompare_PrecisionCapped(t *testing.T) {
	baseline := bucket(map[string]*float64{"x": Float(3)})
	other := bucket(map[string]*float64{"x": Float(4)})

	capped := Compare(baseline, []AggregatedBucket{other}, 2_000_000_000)
	limit := Compare(baseline, []AggregatedBucket{other}, MaxPrecision)

	assert.Equal(t, *limit.Comparisons[0].PercentDelta["x"], *capped.Comparisons[0].PercentDelta["x"])
}

func TestCompare_KeepsOrder(t *testing.T) {
	baseline := bucket(map[string]*float64{"x": Float(10)})
	others := []AggregatedBucket{
		{Range: RangeSpec{Label: "first"}, ReducedFields: map[string]*float64{"x": Float(20)}},
		{Range: RangeSpec{Label: "second"}, ReducedFields: map[string]*float64{"x": Float(5)}},
	}

	res := Compare(baseline, others, 1)
	require.Len(t, res.Comparisons, 2)
	assert.Equal(t, "first", res.Comparisons[0].Bucket.Range.Label)
	assert.Equal(t, 100.0, *res.Comparisons[0].PercentDelta["x"])
	assert.Equal(t, "second", res.Comparisons[1].Bucket.Range.Label)
	assert.Equal(t, -50.0, *res.Comparisons[1].PercentDelta["x"])
}

func TestPercentChange(t *testing.T) {
	assert.Nil(t, PercentChange(nil, Float(1), 1))
	assert.Nil(t, PercentChange(Float(0), Float(1), 1))
	assert.Equal(t, 25.0, *PercentChange(Float(4), Float(5), 1))
}
