package reporting

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Supported reporting periods.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
	PeriodCustom  = "custom"
)

const dateLayout = "2006-01-02"

// ErrInvalidRange flags an unknown period or an inverted custom range.
var ErrInvalidRange = errors.New("reporting: invalid date range")

// Query selects the data of one report.
type Query struct {
	Period string
	Start  time.Time
	End    time.Time
}

// Range is a resolved inclusive day range.
type Range struct {
	Period string
	Start  time.Time
	End    time.Time
}

// Resolve turns the query into concrete days relative to now. Daily covers
// today, weekly the last seven days, monthly and yearly run from the first
// day of the current month or year. Custom requires both bounds.
func (q Query) Resolve(now time.Time) (Range, error) {
	period := strings.ToLower(strings.TrimSpace(q.Period))
	today := truncateDay(now)
	switch period {
	case PeriodDaily:
		return Range{Period: period, Start: today, End: today}, nil
	case PeriodWeekly:
		return Range{Period: period, Start: today.AddDate(0, 0, -6), End: today}, nil
	case PeriodMonthly:
		return Range{Period: period, Start: time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()), End: today}, nil
	case PeriodYearly:
		return Range{Period: period, Start: time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location()), End: today}, nil
	case PeriodCustom, "":
		if q.Start.IsZero() || q.End.IsZero() {
			return Range{}, fmt.Errorf("%w: custom range needs start and end", ErrInvalidRange)
		}
		start, end := truncateDay(q.Start), truncateDay(q.End)
		if end.Before(start) {
			return Range{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidRange, end.Format(dateLayout), start.Format(dateLayout))
		}
		return Range{Period: PeriodCustom, Start: start, End: end}, nil
	default:
		return Range{}, fmt.Errorf("%w: unknown period %q", ErrInvalidRange, q.Period)
	}
}

// Key identifies the range in cache keys.
func (r Range) Key() string {
	return strings.Join([]string{r.Period, r.Start.Format(dateLayout), r.End.Format(dateLayout)}, ":")
}

// endExclusive is the first instant after the range.
func (r Range) endExclusive() time.Time {
	return r.End.AddDate(0, 0, 1)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
