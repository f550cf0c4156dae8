package functions

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Unit is a date arithmetic granularity.
type Unit string

const (
	UnitYears   Unit = "years"
	UnitMonths  Unit = "months"
	UnitWeeks   Unit = "weeks"
	UnitDays    Unit = "days"
	UnitHours   Unit = "hours"
	UnitMinutes Unit = "minutes"
	UnitSeconds Unit = "seconds"
)

// ParseUnit accepts singular, plural and short unit names. Unknown units
// default to days.
func ParseUnit(raw string) Unit {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yr", "yrs", "year", "years":
		return UnitYears
	case "mo", "mon", "month", "months":
		return UnitMonths
	case "w", "wk", "week", "weeks":
		return UnitWeeks
	case "h", "hr", "hrs", "hour", "hours":
		return UnitHours
	case "m", "min", "mins", "minute", "minutes":
		return UnitMinutes
	case "s", "sec", "secs", "second", "seconds":
		return UnitSeconds
	default:
		return UnitDays
	}
}

// DateAdd shifts t by n units. Calendar units keep the wall clock time.
func DateAdd(t time.Time, n float64, unit Unit) time.Time {
	if t.IsZero() {
		return t
	}
	whole := int(n)
	switch unit {
	case UnitYears:
		return t.AddDate(whole, 0, 0)
	case UnitMonths:
		return t.AddDate(0, whole, 0)
	case UnitWeeks:
		return t.AddDate(0, 0, whole*7)
	case UnitHours:
		return t.Add(time.Duration(n * float64(time.Hour)))
	case UnitMinutes:
		return t.Add(time.Duration(n * float64(time.Minute)))
	case UnitSeconds:
		return t.Add(time.Duration(n * float64(time.Second)))
	default:
		return t.AddDate(0, 0, whole)
	}
}

// DateDiff returns a - b in whole units, truncated toward zero. Days count
// calendar days so daylight saving changes never lose a day; months and
// years count complete months.
func DateDiff(a, b time.Time, unit Unit) float64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	switch unit {
	case UnitYears:
		return float64(monthsBetween(a, b) / 12)
	case UnitMonths:
		return float64(monthsBetween(a, b))
	case UnitWeeks:
		return float64(civilDays(a, b) / 7)
	case UnitHours:
		return math.Trunc(a.Sub(b).Hours())
	case UnitMinutes:
		return math.Trunc(a.Sub(b).Minutes())
	case UnitSeconds:
		return math.Trunc(a.Sub(b).Seconds())
	default:
		return float64(civilDays(a, b))
	}
}

func civilDays(a, b time.Time) int {
	ya, ma, da := a.Date()
	yb, mb, db := b.In(a.Location()).Date()
	ca := time.Date(ya, ma, da, 0, 0, 0, 0, time.UTC)
	cb := time.Date(yb, mb, db, 0, 0, 0, 0, time.UTC)
	return int(ca.Sub(cb).Hours() / 24)
}

func monthsBetween(a, b time.Time) int {
	if a.Before(b) {
		return -monthsBetween(b, a)
	}
	b = b.In(a.Location())
	months := (a.Year()-b.Year())*12 + int(a.Month()-b.Month())
	if months > 0 && b.AddDate(0, months, 0).After(a) {
		months--
	}
	return months
}

// BusinessDays counts Monday to Friday dates between start and end, both
// inclusive. The count is negative when end precedes start.
func BusinessDays(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	sign := 1
	if end.Before(start) {
		start, end = end, start
		sign = -1
	}
	from := midnight(start)
	to := midnight(end.In(start.Location()))
	count := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if isWeekday(d) {
			count++
		}
	}
	return sign * count
}

// AddBusinessDays moves n weekdays from t, skipping Saturday and Sunday.
func AddBusinessDays(t time.Time, n int) time.Time {
	if t.IsZero() {
		return t
	}
	step := 1
	if n < 0 {
		step, n = -1, -n
	}
	for n > 0 {
		t = t.AddDate(0, 0, step)
		if isWeekday(t) {
			n--
		}
	}
	return t
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func isoWeekday(t time.Time) int {
	if wd := int(t.Weekday()); wd != 0 {
		return wd
	}
	return 7
}

func startOfWeek(t time.Time) time.Time {
	return midnight(t).AddDate(0, 0, 1-isoWeekday(t))
}

// dateArg adapts a date transform, passing invalid dates through as the
// zero time.
func dateArg(f func(t time.Time, a *Args) any) Handler {
	return func(a *Args) (any, error) {
		t, ok := a.Time(0)
		if !ok {
			return time.Time{}, nil
		}
		return f(t, a), nil
	}
}

// datePart adapts a numeric component extractor; invalid dates yield 0.
func datePart(f func(t time.Time) int) Handler {
	return func(a *Args) (any, error) {
		t, ok := a.Time(0)
		if !ok {
			return float64(0), nil
		}
		return float64(f(t)), nil
	}
}

// datePredicate adapts a date test; invalid dates yield false.
func datePredicate(f func(t time.Time, a *Args) bool) Handler {
	return func(a *Args) (any, error) {
		t, ok := a.Time(0)
		if !ok {
			return false, nil
		}
		return f(t, a), nil
	}
}

func dateFunctions() []Definition {
	return []Definition{
		fn("TODAY", CategoryDate, 0, 0, "TODAY()", "Current date at midnight",
			unary(func(a *Args) any { return midnight(a.Env.now()) })),
		fn("NOW", CategoryDate, 0, 0, "NOW()", "Current date and time",
			unary(func(a *Args) any { return a.Env.now().Truncate(time.Second) })),
		fn("DATE", CategoryDate, 3, 3, "DATE(year, month, day)", "Build a date from parts",
			unary(func(a *Args) any {
				return time.Date(a.Int(0), time.Month(a.Int(1)), a.Int(2), 0, 0, 0, 0, a.Env.location())
			})),
		fn("TIME", CategoryDate, 1, 3, "TIME(hour, minute, second)", "Build a HH:MM:SS time of day",
			unary(func(a *Args) any {
				return fmt.Sprintf("%02d:%02d:%02d", clampIndex(a.Int(0), 23), clampIndex(a.IntOr(1, 0), 59), clampIndex(a.IntOr(2, 0), 59))
			})),
		fn("TO_DATE", CategoryUtility, 1, 1, "TO_DATE(field)", "Convert text to a date", dateArg(func(t time.Time, _ *Args) any { return t })),
		fn("DATE_PARSE", CategoryDate, 1, 2, "DATE_PARSE(text, format)", "Parse text with a format",
			unary(func(a *Args) any {
				t, _ := ParseDate(a.String(0), a.StringOr(1, ""), a.Env.location())
				return t
			})),
		fn("DATE_FORMAT", CategoryDate, 1, 2, "DATE_FORMAT(field, format)", "Format a date, empty for invalid dates",
			unary(func(a *Args) any {
				t, _ := a.Time(0)
				return FormatDate(t, a.StringOr(1, "YYYY-MM-DD"))
			})),
		fn("DATE_ADD", CategoryDate, 2, 3, "DATE_ADD(field, n, unit)", "Add an amount of time",
			dateArg(func(t time.Time, a *Args) any { return DateAdd(t, a.Number(1), ParseUnit(a.StringOr(2, "days"))) })),
		fn("DATE_SUBTRACT", CategoryDate, 2, 3, "DATE_SUBTRACT(field, n, unit)", "Subtract an amount of time",
			dateArg(func(t time.Time, a *Args) any { return DateAdd(t, -a.Number(1), ParseUnit(a.StringOr(2, "days"))) })),
		fn("DATE_DIFF", CategoryDate, 2, 3, "DATE_DIFF(a, b, unit)", "a minus b in whole units",
			unary(func(a *Args) any {
				ta, okA := a.Time(0)
				tb, okB := a.Time(1)
				if !okA || !okB {
					return float64(0)
				}
				return DateDiff(ta, tb, ParseUnit(a.StringOr(2, "days")))
			})),
		fn("YEAR", CategoryDate, 1, 1, "YEAR(field)", "Year component", datePart(func(t time.Time) int { return t.Year() })),
		fn("MONTH", CategoryDate, 1, 1, "MONTH(field)", "Month component, 1 to 12", datePart(func(t time.Time) int { return int(t.Month()) })),
		fn("DAY", CategoryDate, 1, 1, "DAY(field)", "Day of month", datePart(func(t time.Time) int { return t.Day() })),
		fn("HOUR", CategoryDate, 1, 1, "HOUR(field)", "Hour component", datePart(func(t time.Time) int { return t.Hour() })),
		fn("MINUTE", CategoryDate, 1, 1, "MINUTE(field)", "Minute component", datePart(func(t time.Time) int { return t.Minute() })),
		fn("SECOND", CategoryDate, 1, 1, "SECOND(field)", "Second component", datePart(func(t time.Time) int { return t.Second() })),
		fn("WEEKDAY", CategoryDate, 1, 1, "WEEKDAY(field)", "Day of week, Monday is 1 and Sunday is 7", datePart(isoWeekday)),
		fn("WEEK_OF_YEAR", CategoryDate, 1, 1, "WEEK_OF_YEAR(field)", "ISO week number",
			datePart(func(t time.Time) int { _, w := t.ISOWeek(); return w })),
		fn("DAY_OF_YEAR", CategoryDate, 1, 1, "DAY_OF_YEAR(field)", "Day of year, 1 to 366", datePart(func(t time.Time) int { return t.YearDay() })),
		fn("QUARTER", CategoryDate, 1, 1, "QUARTER(field)", "Quarter, 1 to 4", datePart(func(t time.Time) int { return (int(t.Month())-1)/3 + 1 })),
		fn("DAYS_IN_MONTH", CategoryDate, 1, 1, "DAYS_IN_MONTH(field)", "Number of days in the month",
			datePart(func(t time.Time) int { return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day() })),
		fn("MONTH_NAME", CategoryDate, 1, 1, "MONTH_NAME(field)", "English month name",
			dateArg(func(t time.Time, _ *Args) any { return t.Month().String() })),
		fn("DAY_NAME", CategoryDate, 1, 1, "DAY_NAME(field)", "English weekday name",
			dateArg(func(t time.Time, _ *Args) any { return t.Weekday().String() })),
		fn("AGE", CategoryDate, 1, 1, "AGE(birthDate)", "Full years between the date and today",
			unary(func(a *Args) any {
				t, ok := a.Time(0)
				if !ok {
					return float64(0)
				}
				return DateDiff(midnight(a.Env.now()), t, UnitYears)
			})),
		fn("START_OF_MONTH", CategoryDate, 1, 1, "START_OF_MONTH(field)", "First day of the month",
			dateArg(func(t time.Time, _ *Args) any { return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()) })),
		fn("END_OF_MONTH", CategoryDate, 1, 1, "END_OF_MONTH(field)", "Last day of the month",
			dateArg(func(t time.Time, _ *Args) any { return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()) })),
		fn("START_OF_YEAR", CategoryDate, 1, 1, "START_OF_YEAR(field)", "January 1st of the year",
			dateArg(func(t time.Time, _ *Args) any { return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location()) })),
		fn("END_OF_YEAR", CategoryDate, 1, 1, "END_OF_YEAR(field)", "December 31st of the year",
			dateArg(func(t time.Time, _ *Args) any { return time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, t.Location()) })),
		fn("START_OF_WEEK", CategoryDate, 1, 1, "START_OF_WEEK(field)", "Monday of the week",
			dateArg(func(t time.Time, _ *Args) any { return startOfWeek(t) })),
		fn("END_OF_WEEK", CategoryDate, 1, 1, "END_OF_WEEK(field)", "Sunday of the week",
			dateArg(func(t time.Time, _ *Args) any { return startOfWeek(t).AddDate(0, 0, 6) })),
		fn("IS_WEEKEND", CategoryDate, 1, 1, "IS_WEEKEND(field)", "Saturday or Sunday",
			datePredicate(func(t time.Time, _ *Args) bool { return !isWeekday(t) })),
		fn("IS_WORKDAY", CategoryDate, 1, 1, "IS_WORKDAY(field)", "Monday to Friday",
			datePredicate(func(t time.Time, _ *Args) bool { return isWeekday(t) })),
		fn("IS_PAST", CategoryDate, 1, 1, "IS_PAST(field)", "Before now",
			datePredicate(func(t time.Time, a *Args) bool { return t.Before(a.Env.now()) })),
		fn("IS_FUTURE", CategoryDate, 1, 1, "IS_FUTURE(field)", "After now",
			datePredicate(func(t time.Time, a *Args) bool { return t.After(a.Env.now()) })),
		fn("IS_TODAY", CategoryDate, 1, 1, "IS_TODAY(field)", "Same calendar day as today",
			datePredicate(func(t time.Time, a *Args) bool { return civilDays(t, a.Env.now()) == 0 })),
		fn("IS_SAME_DAY", CategoryDate, 2, 2, "IS_SAME_DAY(a, b)", "Same calendar day",
			datePredicate(func(t time.Time, a *Args) bool {
				other, ok := a.Time(1)
				return ok && civilDays(t, other) == 0
			})),
		fn("IS_LEAP_YEAR", CategoryDate, 1, 1, "IS_LEAP_YEAR(field)", "Whether the year has 366 days",
			unary(func(a *Args) any {
				year := a.Int(0)
				if t, ok := a.Time(0); ok && !IsNumeric(a.Value(0)) {
					year = t.Year()
				}
				return year%4 == 0 && (year%100 != 0 || year%400 == 0)
			})),
		fn("BUSINESS_DAYS", CategoryDate, 2, 2, "BUSINESS_DAYS(startDate, endDate)", "Weekdays between two dates, inclusive",
			unary(func(a *Args) any {
				start, okS := a.Time(0)
				end, okE := a.Time(1)
				if !okS || !okE {
					return float64(0)
				}
				return float64(BusinessDays(start, end))
			})),
		fn("ADD_BUSINESS_DAYS", CategoryDate, 2, 2, "ADD_BUSINESS_DAYS(field, n)", "Move n weekdays",
			dateArg(func(t time.Time, a *Args) any { return AddBusinessDays(t, a.Int(1)) })),
		fn("EARLIEST", CategoryDate, 1, Variadic, "EARLIEST(a, b, ...)", "Earliest valid date",
			unary(func(a *Args) any { return pickDate(a, -1) })),
		fn("LATEST", CategoryDate, 1, Variadic, "LATEST(a, b, ...)", "Latest valid date",
			unary(func(a *Args) any { return pickDate(a, 1) })),
		fn("TIMESTAMP", CategoryDate, 0, 1, "TIMESTAMP(field)", "Milliseconds since the Unix epoch",
			unary(func(a *Args) any {
				if a.Len() == 0 {
					return float64(a.Env.now().UnixMilli())
				}
				t, ok := a.Time(0)
				if !ok {
					return float64(0)
				}
				return float64(t.UnixMilli())
			})),
		fn("CRON_NEXT", CategoryDate, 1, 2, "CRON_NEXT(schedule, from)", "Next activation of a cron schedule",
			func(a *Args) (any, error) {
				schedule, err := cron.ParseStandard(a.String(0))
				if err != nil {
					return nil, fmt.Errorf("functions: CRON_NEXT: %w", err)
				}
				from := a.Env.now()
				if a.Has(1) {
					if t, ok := a.Time(1); ok {
						from = t
					}
				}
				return schedule.Next(from), nil
			}),
	}
}

func pickDate(a *Args, dir int) any {
	var best time.Time
	for _, v := range a.Flatten() {
		t, ok := ToTime(v, a.Env.location())
		if !ok {
			continue
		}
		if best.IsZero() || t.Compare(best) == dir {
			best = t
		}
	}
	return best
}
