package timeseries

import (
	"math"
	"strings"
)

// ParsePolarity validates a polarity name. Empty input means higher-is-better.
func ParsePolarity(raw string) (Polarity, bool) {
	switch p := Polarity(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return HigherIsBetter, true
	case HigherIsBetter, LowerIsBetter:
		return p, true
	default:
		return "", false
	}
}

// Trend fits an ordinary least squares line through (index, value) for the
// non-nil entries of series and classifies its slope under polarity.
// Fewer than two usable points yield a zero slope and a flat direction.
func Trend(series []*float64, polarity Polarity) TrendResult {
	var xs, ys []float64
	for i, v := range series {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, *v)
	}

	n := len(xs)
	if n < 2 {
		return TrendResult{Slope: 0, Direction: Flat, Points: n}
	}

	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - mx
		sxx += dx * dx
		sxy += dx * (ys[i] - my)
	}

	slope := sxy / sxx
	return TrendResult{Slope: slope, Direction: classify(slope, polarity), Points: n}
}

func classify(slope float64, polarity Polarity) Direction {
	switch {
	case slope == 0:
		return Flat
	case (slope > 0) == (polarity == LowerIsBetter):
		return Worsening
	default:
		return Improving
	}
}

// FieldSeries extracts field from each bucket in order.
func FieldSeries(buckets []AggregatedBucket, field string) []*float64 {
	out := make([]*float64, len(buckets))
	for i, b := range buckets {
		out[i] = b.ReducedFields[field]
	}
	return out
}

// BuildSeries turns per-range bucket lists (as returned by AggregateRanges)
// into one chart series per group for field, each annotated with its trend.
// Groups keep the order in which they first appear, and that order is the
// series' palette slot.
func BuildSeries(perRange [][]AggregatedBucket, field string, polarity Polarity) []Series {
	type slot struct {
		key     *string
		buckets []AggregatedBucket
	}

	var order []string
	slots := make(map[string]*slot)
	for i, buckets := range perRange {
		for _, b := range buckets {
			id := seriesID(b.GroupKey)
			s, ok := slots[id]
			if !ok {
				s = &slot{key: b.GroupKey, buckets: make([]AggregatedBucket, len(perRange))}
				slots[id] = s
				order = append(order, id)
			}
			s.buckets[i] = b
		}
	}

	series := make([]Series, 0, len(order))
	for color, id := range order {
		s := slots[id]
		points := make([]Point, len(perRange))
		for i, b := range s.buckets {
			label := b.Range.Label
			if label == "" && len(perRange[i]) > 0 {
				label = perRange[i][0].Range.Label
			}
			points[i] = Point{Label: label, Value: b.ReducedFields[field]}
		}
		series = append(series, Series{
			GroupKey:   s.key,
			Field:      field,
			ColorIndex: color,
			Points:     points,
			Trend:      Trend(FieldSeries(s.buckets, field), polarity),
		})
	}
	return series
}

func seriesID(key *string) string {
	if key == nil {
		return "\x00global"
	}
	return "g:" + *key
}
