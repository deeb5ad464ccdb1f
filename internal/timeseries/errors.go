package timeseries

import (
	"fmt"
	"time"
)

// InvalidModeError is returned for an unsupported range mode.
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid range mode %q", e.Mode)
}

// InvalidRangeError is returned when a custom range starts after it ends.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: start %s is after end %s",
		e.Start.Format(dayLayout), e.End.Format(dayLayout))
}

// UnsupportedReducerError is returned for a reducer outside sum/average/last.
type UnsupportedReducerError struct {
	Reducer string
}

func (e *UnsupportedReducerError) Error() string {
	return fmt.Sprintf("unsupported reducer %q", e.Reducer)
}

// TooManyRangesError is returned when a window splits into more than Limit periods.
type TooManyRangesError struct {
	Mode  Mode
	Limit int
}

func (e *TooManyRangesError) Error() string {
	return fmt.Sprintf("window splits into more than %d %s periods", e.Limit, e.Mode)
}

// DateParseError describes a row dropped because its date could not be parsed.
type DateParseError struct {
	Row   int    `json:"row"`
	Value string `json:"value"`
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("row %d: cannot parse date %q", e.Row, e.Value)
}

// ValueParseError describes a metric value ignored because it is not numeric.
type ValueParseError struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
	Value string `json:"value"`
}

func (e *ValueParseError) Error() string {
	return fmt.Sprintf("row %d: field %q: cannot parse value %q", e.Row, e.Field, e.Value)
}

// Diagnostics collects non-fatal per-row problems found while normalizing input.
type Diagnostics struct {
	DateErrors  []*DateParseError  `json:"dateErrors,omitempty"`
	ValueErrors []*ValueParseError `json:"valueErrors,omitempty"`
}

// Empty reports whether no problems were recorded.
func (d Diagnostics) Empty() bool {
	return len(d.DateErrors) == 0 && len(d.ValueErrors) == 0
}

// Merge appends other's problems to d.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.DateErrors = append(d.DateErrors, other.DateErrors...)
	d.ValueErrors = append(d.ValueErrors, other.ValueErrors...)
}
