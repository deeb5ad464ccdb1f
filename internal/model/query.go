package model

import "dashboard-metrics-service/internal/timeseries"

// RangeQuery selects a period either by mode + reference date or by explicit
// start/end dates (mode "custom", or empty mode with both dates set).
type RangeQuery struct {
	Mode      string `json:"mode"`
	Reference string `json:"reference_date"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

// InlineData lets callers aggregate rows they already fetched without storing them.
type InlineData struct {
	DateField  string           `json:"date_field"`
	GroupField string           `json:"group_field"`
	Metrics    []string         `json:"metrics"`
	Rows       []map[string]any `json:"rows"`
}

// AggregateRequest reduces records of one range.
type AggregateRequest struct {
	Dataset  string              `json:"-"`
	Range    RangeQuery          `json:"range"`
	Reducer  string              `json:"reducer"`
	GroupBy  *timeseries.GroupBy `json:"group_by,omitempty"`
	Timezone string              `json:"timezone"`
	Inline   *InlineData         `json:"inline,omitempty"`
}

// CompareRequest compares a baseline range against one or more ranges.
type CompareRequest struct {
	Dataset     string              `json:"-"`
	Baseline    RangeQuery          `json:"baseline"`
	Comparisons []RangeQuery        `json:"comparisons"`
	Reducer     string              `json:"reducer"`
	GroupBy     *timeseries.GroupBy `json:"group_by,omitempty"`
	Precision   *int32              `json:"precision,omitempty"`
	Timezone    string              `json:"timezone"`
	Inline      *InlineData         `json:"inline,omitempty"`
}

// TrendRequest splits [Start, End] into Granularity periods and fits a trend
// per group for Field.
type TrendRequest struct {
	Dataset     string              `json:"-"`
	Granularity string              `json:"granularity"`
	Start       string              `json:"start"`
	End         string              `json:"end"`
	Reducer     string              `json:"reducer"`
	Field       string              `json:"field"`
	Polarity    string              `json:"polarity"`
	GroupBy     *timeseries.GroupBy `json:"group_by,omitempty"`
	Timezone    string              `json:"timezone"`
	Inline      *InlineData         `json:"inline,omitempty"`
}

// QueryMeta contains metadata about an engine query.
type QueryMeta struct {
	Dataset     string                  `json:"dataset,omitempty"`
	Reducer     string                  `json:"reducer"`
	Grouped     bool                    `json:"grouped"`
	Records     int                     `json:"records"`
	Cached      bool                    `json:"cached"`
	Diagnostics *timeseries.Diagnostics `json:"diagnostics,omitempty"`
}

// RangeResponse is returned by range resolution.
type RangeResponse struct {
	Range    timeseries.RangeSpec  `json:"range"`
	Previous *timeseries.RangeSpec `json:"previous,omitempty"`
}

// AggregateResponse is returned to clients for aggregate queries.
type AggregateResponse struct {
	Meta    QueryMeta                     `json:"meta"`
	Buckets []timeseries.AggregatedBucket `json:"buckets"`
}

// CompareResponse holds one comparison per group, or a single global one.
type CompareResponse struct {
	Meta    QueryMeta                     `json:"meta"`
	Results []timeseries.ComparisonResult `json:"results"`
}

// TrendResponse holds chart-ready series over consecutive ranges.
type TrendResponse struct {
	Meta   QueryMeta              `json:"meta"`
	Ranges []timeseries.RangeSpec `json:"ranges"`
	Series []timeseries.Series    `json:"series"`
}
