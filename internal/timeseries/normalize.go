package timeseries

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var errUnknownDateFormat = errors.New("unknown date format")

// dateLayouts are tried in order. Layouts without a zone are read in the
// caller's location.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
}

// ParseDate reads ISO and common locale date strings. Slash dates are
// month-first.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errUnknownDateFormat
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errUnknownDateFormat
}

// NormalizeOptions describes the shape of raw rows.
type NormalizeOptions struct {
	// DateField defaults to "date".
	DateField string
	// GroupField names the column holding the group key; empty means ungrouped.
	GroupField string
	// Metrics restricts which columns are read as metrics. Empty means every
	// column except the date and group columns.
	Metrics []string
	// Location is used for dates without a zone. Defaults to UTC.
	Location *time.Location
}

// NormalizeRows converts raw rows (decoded JSON objects or CSV rows keyed by
// header) into Records. Rows with an unparseable date are dropped and
// reported; non-numeric metric values are reported and treated as missing.
// Blank and NaN values are missing without a report.
func NormalizeRows(rows []map[string]any, opts NormalizeOptions) ([]Record, Diagnostics) {
	dateField := opts.DateField
	if dateField == "" {
		dateField = "date"
	}

	var wanted map[string]struct{}
	if len(opts.Metrics) > 0 {
		wanted = make(map[string]struct{}, len(opts.Metrics))
		for _, m := range opts.Metrics {
			wanted[m] = struct{}{}
		}
	}

	var (
		records = make([]Record, 0, len(rows))
		diag    Diagnostics
	)

	for i, row := range rows {
		date, ok := rowDate(row[dateField], opts.Location)
		if !ok {
			diag.DateErrors = append(diag.DateErrors, &DateParseError{Row: i, Value: stringify(row[dateField])})
			continue
		}

		rec := Record{Date: date, Fields: make(map[string]float64)}
		if opts.GroupField != "" {
			rec.GroupKey = strings.TrimSpace(stringify(row[opts.GroupField]))
		}

		for key, raw := range row {
			if key == dateField || key == opts.GroupField {
				continue
			}
			if wanted != nil {
				if _, ok := wanted[key]; !ok {
					continue
				}
			}
			v, present, err := toFloat(raw)
			if err != nil {
				diag.ValueErrors = append(diag.ValueErrors, &ValueParseError{Row: i, Field: key, Value: stringify(raw)})
				continue
			}
			if present {
				rec.Fields[key] = v
			}
		}
		records = append(records, rec)
	}

	return records, diag
}

func rowDate(raw any, loc *time.Location) (time.Time, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v, !v.IsZero()
	case string:
		t, err := ParseDate(v, loc)
		return t, err == nil
	default:
		return time.Time{}, false
	}
}

// toFloat returns present=false for blank or NaN input.
func toFloat(raw any) (float64, bool, error) {
	var v float64
	switch t := raw.(type) {
	case nil:
		return 0, false, nil
	case float64:
		v = t
	case float32:
		v = float64(t)
	case int:
		v = float64(t)
	case int32:
		v = float64(t)
	case int64:
		v = float64(t)
	case uint:
		v = float64(t)
	case uint32:
		v = float64(t)
	case uint64:
		v = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false, err
		}
		v = f
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.EqualFold(s, "n/a") || s == "-" {
			return 0, false, nil
		}
		s = strings.TrimSuffix(strings.ReplaceAll(s, ",", ""), "%")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, err
		}
		v = f
	default:
		return 0, false, fmt.Errorf("unsupported value type %T", raw)
	}
	if math.IsNaN(v) {
		return 0, false, nil
	}
	if math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("infinite value")
	}
	return v, true, nil
}

func stringify(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
