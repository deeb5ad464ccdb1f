package timeseries

import (
	"math"
	"sort"
	"strings"
)

// ParseReducer validates a reducer name.
func ParseReducer(raw string) (Reducer, error) {
	switch r := Reducer(strings.ToLower(strings.TrimSpace(raw))); r {
	case ReducerSum, ReducerAverage, ReducerLast:
		return r, nil
	default:
		return "", &UnsupportedReducerError{Reducer: raw}
	}
}

// Aggregate reduces the records that fall inside rs.
//
// Without groupBy a single global bucket is returned. With groupBy there is
// one bucket per group: the fixed keys first, in the order given, then every
// other key present in records, sorted. Records with no group key form the ""
// group. Every bucket reports every field seen anywhere in records so that
// bucket shapes match across ranges; empty buckets carry nil values.
//
// The result does not depend on the order of records.
func Aggregate(records []Record, rs RangeSpec, reducer Reducer, groupBy *GroupBy) ([]AggregatedBucket, error) {
	if _, err := ParseReducer(string(reducer)); err != nil {
		return nil, err
	}

	fields := fieldNames(records)

	if groupBy == nil {
		var in []Record
		for _, r := range records {
			if rs.Contains(r.Date) {
				in = append(in, r)
			}
		}
		return []AggregatedBucket{reduceBucket(rs, nil, in, fields, reducer)}, nil
	}

	byGroup := make(map[string][]Record)
	for _, r := range records {
		if rs.Contains(r.Date) {
			byGroup[r.GroupKey] = append(byGroup[r.GroupKey], r)
		}
	}

	keys := groupKeys(records, groupBy.Keys)
	buckets := make([]AggregatedBucket, 0, len(keys))
	for _, key := range keys {
		key := key
		buckets = append(buckets, reduceBucket(rs, &key, byGroup[key], fields, reducer))
	}
	return buckets, nil
}

// AggregateRanges runs Aggregate once per range. Result i belongs to ranges[i].
func AggregateRanges(records []Record, ranges []RangeSpec, reducer Reducer, groupBy *GroupBy) ([][]AggregatedBucket, error) {
	out := make([][]AggregatedBucket, 0, len(ranges))
	for _, rs := range ranges {
		buckets, err := Aggregate(records, rs, reducer, groupBy)
		if err != nil {
			return nil, err
		}
		out = append(out, buckets)
	}
	return out, nil
}

func reduceBucket(rs RangeSpec, groupKey *string, in []Record, fields []string, reducer Reducer) AggregatedBucket {
	bucket := AggregatedBucket{
		Range:         rs,
		GroupKey:      groupKey,
		ReducedFields: make(map[string]*float64, len(fields)),
		Count:         len(in),
	}

	for _, field := range fields {
		if len(in) == 0 {
			bucket.ReducedFields[field] = nil
			continue
		}
		switch reducer {
		case ReducerSum:
			total, _ := sumField(in, field)
			bucket.ReducedFields[field] = finite(total)
		case ReducerAverage:
			total, n := sumField(in, field)
			if n == 0 {
				bucket.ReducedFields[field] = nil
			} else {
				bucket.ReducedFields[field] = finite(total / float64(n))
			}
		case ReducerLast:
			bucket.ReducedFields[field] = lastField(in, field)
		}
	}
	return bucket
}

// sumField adds the available values of field in ascending order so the
// float result is independent of record order.
func sumField(in []Record, field string) (float64, int) {
	values := make([]float64, 0, len(in))
	for _, r := range in {
		if v, ok := value(r, field); ok {
			values = append(values, v)
		}
	}
	sort.Float64s(values)

	var total float64
	for _, v := range values {
		total += v
	}
	return total, len(values)
}

// lastField returns the value of the latest record that carries field.
// Records sharing the latest timestamp resolve to the largest value.
func lastField(in []Record, field string) *float64 {
	var (
		best  *Record
		bestV float64
	)
	for i := range in {
		v, ok := value(in[i], field)
		if !ok {
			continue
		}
		if best == nil || in[i].Date.After(best.Date) || (in[i].Date.Equal(best.Date) && v > bestV) {
			best, bestV = &in[i], v
		}
	}
	if best == nil {
		return nil
	}
	return Float(bestV)
}

// finite returns nil for a total that overflowed to an infinity.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return Float(v)
}

func value(r Record, field string) (float64, bool) {
	v, ok := r.Fields[field]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func fieldNames(records []Record) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for f := range r.Fields {
			seen[f] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for f := range seen {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}

func groupKeys(records []Record, fixed []string) []string {
	keys := make([]string, 0, len(fixed))
	seen := make(map[string]struct{}, len(fixed))
	for _, k := range fixed {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	var discovered []string
	for _, r := range records {
		if _, ok := seen[r.GroupKey]; ok {
			continue
		}
		seen[r.GroupKey] = struct{}{}
		discovered = append(discovered, r.GroupKey)
	}
	sort.Strings(discovered)
	return append(keys, discovered...)
}
