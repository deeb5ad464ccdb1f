package timeseries

import (
	"encoding/json"
	"time"
)

// Mode names how a range is resolved.
type Mode string

const (
	ModeDay     Mode = "day"
	ModeWeek    Mode = "week"
	ModeMonth   Mode = "month"
	ModeQuarter Mode = "quarter"
	ModeYear    Mode = "year"
	ModeAllTime Mode = "all-time"
	ModeCustom  Mode = "custom"
)

// Reducer names the per-field aggregation applied inside a bucket.
type Reducer string

const (
	ReducerSum     Reducer = "sum"
	ReducerAverage Reducer = "average"
	ReducerLast    Reducer = "last"
)

// Polarity says whether a metric improves when it goes up or down.
type Polarity string

const (
	HigherIsBetter Polarity = "higher-is-better"
	LowerIsBetter  Polarity = "lower-is-better"
)

// Direction classifies a trend.
type Direction string

const (
	Improving Direction = "improving"
	Worsening Direction = "worsening"
	Flat      Direction = "flat"
)

// Record is a single dated observation. An empty GroupKey means ungrouped.
// A metric missing from Fields means "no data".
type Record struct {
	Date     time.Time          `json:"date"`
	GroupKey string             `json:"groupKey,omitempty"`
	Fields   map[string]float64 `json:"fields"`
}

// RangeSpec is a resolved, inclusive period. All-time ranges have zero
// Start/End and match every record.
type RangeSpec struct {
	Start time.Time
	End   time.Time
	Label string
	Mode  Mode
}

// Unbounded reports whether the range applies no date filter.
func (r RangeSpec) Unbounded() bool {
	return r.Mode == ModeAllTime
}

// Contains reports whether t falls inside the range, both ends inclusive.
func (r RangeSpec) Contains(t time.Time) bool {
	if r.Unbounded() {
		return true
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

type rangeSpecJSON struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
	Label string     `json:"label"`
	Mode  Mode       `json:"mode"`
}

// MarshalJSON renders unbounded ends as null.
func (r RangeSpec) MarshalJSON() ([]byte, error) {
	out := rangeSpecJSON{Label: r.Label, Mode: r.Mode}
	if !r.Unbounded() {
		start, end := r.Start, r.End
		out.Start, out.End = &start, &end
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the shape produced by MarshalJSON.
func (r *RangeSpec) UnmarshalJSON(data []byte) error {
	var in rangeSpecJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = RangeSpec{Label: in.Label, Mode: in.Mode}
	if in.Start != nil {
		r.Start = *in.Start
	}
	if in.End != nil {
		r.End = *in.End
	}
	return nil
}

// GroupBy splits records by GroupKey. Keys lists groups that must always
// be present in the output, even with no matching records.
type GroupBy struct {
	Keys []string `json:"keys,omitempty"`
}

// AggregatedBucket is the reduction of all records inside one range and,
// when grouped, one group. A nil GroupKey marks the global bucket.
type AggregatedBucket struct {
	Range         RangeSpec           `json:"range"`
	GroupKey      *string             `json:"groupKey"`
	ReducedFields map[string]*float64 `json:"reducedFields"`
	Count         int                 `json:"count"`
}

// Comparison is one compared bucket with its deltas against the baseline.
type Comparison struct {
	Bucket       AggregatedBucket    `json:"bucket"`
	Delta        map[string]*float64 `json:"delta"`
	PercentDelta map[string]*float64 `json:"percentDelta"`
}

// ComparisonResult relates a baseline bucket to ordered comparison buckets.
type ComparisonResult struct {
	Baseline    AggregatedBucket `json:"baseline"`
	Comparisons []Comparison     `json:"comparisons"`
}

// TrendResult classifies an ordered series.
type TrendResult struct {
	Slope     float64   `json:"slope"`
	Direction Direction `json:"direction"`
	Points    int       `json:"points"`
}

// Point is one labelled value of a chart series.
type Point struct {
	Label string   `json:"label"`
	Value *float64 `json:"value"`
}

// Series is a chart-ready line for one group across consecutive ranges.
type Series struct {
	GroupKey   *string     `json:"groupKey"`
	Field      string      `json:"field"`
	ColorIndex int         `json:"colorIndex"`
	Points     []Point     `json:"points"`
	Trend      TrendResult `json:"trend"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
