package timeseries

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// ErrNoPreviousRange is returned by PreviousRange for all-time ranges.
var ErrNoPreviousRange = errors.New("all-time range has no previous period")

// ParseMode validates a mode name.
func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModeDay, ModeWeek, ModeMonth, ModeQuarter, ModeYear, ModeAllTime, ModeCustom:
		return m, nil
	case "all_time", "alltime":
		return ModeAllTime, nil
	default:
		return "", &InvalidModeError{Mode: raw}
	}
}

// ResolveNamedRange computes the period of the given mode that contains ref.
// Weeks run Sunday to Saturday and quarters are calendar quarters (Q1 = Jan-Mar).
// Boundaries are taken in ref's location.
func ResolveNamedRange(ref time.Time, mode Mode) (RangeSpec, error) {
	day := startOfDay(ref)

	switch mode {
	case ModeDay:
		return RangeSpec{
			Start: day,
			End:   endOfDay(day),
			Label: day.Format(dayLayout),
			Mode:  ModeDay,
		}, nil
	case ModeWeek:
		start := day.AddDate(0, 0, -int(day.Weekday()))
		end := start.AddDate(0, 0, 6)
		return RangeSpec{
			Start: start,
			End:   endOfDay(end),
			Label: fmt.Sprintf("Week %s → %s", start.Format(dayLayout), end.Format(dayLayout)),
			Mode:  ModeWeek,
		}, nil
	case ModeMonth:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return RangeSpec{
			Start: start,
			End:   endOfDay(start.AddDate(0, 1, -1)),
			Label: start.Format("Jan-2006"),
			Mode:  ModeMonth,
		}, nil
	case ModeQuarter:
		quarter := (int(day.Month()) - 1) / 3
		start := time.Date(day.Year(), time.Month(quarter*3+1), 1, 0, 0, 0, 0, day.Location())
		return RangeSpec{
			Start: start,
			End:   endOfDay(start.AddDate(0, 3, -1)),
			Label: fmt.Sprintf("Q%d-%d", quarter+1, day.Year()),
			Mode:  ModeQuarter,
		}, nil
	case ModeYear:
		start := time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location())
		return RangeSpec{
			Start: start,
			End:   endOfDay(time.Date(day.Year(), time.December, 31, 0, 0, 0, 0, day.Location())),
			Label: fmt.Sprintf("%d", day.Year()),
			Mode:  ModeYear,
		}, nil
	case ModeAllTime:
		return RangeSpec{Label: "All time", Mode: ModeAllTime}, nil
	default:
		return RangeSpec{}, &InvalidModeError{Mode: string(mode)}
	}
}

// ResolveCustomRange builds an inclusive range from start's day at 00:00:00
// through the last nanosecond of end's day.
func ResolveCustomRange(start, end time.Time) (RangeSpec, error) {
	s, e := startOfDay(start), startOfDay(end)
	if s.After(e) {
		return RangeSpec{}, &InvalidRangeError{Start: start, End: end}
	}
	return RangeSpec{
		Start: s,
		End:   endOfDay(e),
		Label: fmt.Sprintf("%s → %s", s.Format(dayLayout), e.Format(dayLayout)),
		Mode:  ModeCustom,
	}, nil
}

// PreviousRange returns the period immediately before r. Custom ranges are
// shifted back by their own length in days.
func PreviousRange(r RangeSpec) (RangeSpec, error) {
	switch r.Mode {
	case ModeDay:
		return ResolveNamedRange(r.Start.AddDate(0, 0, -1), ModeDay)
	case ModeWeek:
		return ResolveNamedRange(r.Start.AddDate(0, 0, -7), ModeWeek)
	case ModeMonth:
		return ResolveNamedRange(r.Start.AddDate(0, -1, 0), ModeMonth)
	case ModeQuarter:
		return ResolveNamedRange(r.Start.AddDate(0, -3, 0), ModeQuarter)
	case ModeYear:
		return ResolveNamedRange(r.Start.AddDate(-1, 0, 0), ModeYear)
	case ModeCustom:
		days := daysBetween(r.Start, r.End) + 1
		return ResolveCustomRange(r.Start.AddDate(0, 0, -days), r.Start.AddDate(0, 0, -1))
	case ModeAllTime:
		return RangeSpec{}, ErrNoPreviousRange
	default:
		return RangeSpec{}, &InvalidModeError{Mode: string(r.Mode)}
	}
}

// SplitRange returns the consecutive named periods of the given mode that
// together cover [start, end]. The first and last periods are whole periods,
// so they may extend past start and end. With limit > 0, splitting stops with
// a *TooManyRangesError as soon as more than limit periods would be produced.
func SplitRange(start, end time.Time, mode Mode, limit int) ([]RangeSpec, error) {
	switch mode {
	case ModeDay, ModeWeek, ModeMonth, ModeQuarter, ModeYear:
	default:
		return nil, &InvalidModeError{Mode: string(mode)}
	}
	if startOfDay(start).After(startOfDay(end)) {
		return nil, &InvalidRangeError{Start: start, End: end}
	}

	var ranges []RangeSpec
	cur, err := ResolveNamedRange(start, mode)
	if err != nil {
		return nil, err
	}
	last := endOfDay(end)
	for !cur.Start.After(last) {
		if limit > 0 && len(ranges) == limit {
			return nil, &TooManyRangesError{Mode: mode, Limit: limit}
		}
		ranges = append(ranges, cur)
		cur, err = ResolveNamedRange(cur.End.Add(time.Nanosecond), mode)
		if err != nil {
			return nil, err
		}
	}
	return ranges, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// daysBetween counts calendar days from a to b, ignoring clock time and DST.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
