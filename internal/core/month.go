package core

import (
	"fmt"
	"time"
)

// YearMonth identifies the calendar month a transaction impacts, in the
// YYYY-MM sense. It is a comparable value type so it can serve as a map key.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses a YYYY-MM string.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// YearMonthOf returns the calendar month containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// String formats the month as YYYY-MM.
func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// IsZero reports whether the month is the zero value.
func (m YearMonth) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// index maps the month onto a single integer scale so that ordering and
// arithmetic roll over year boundaries correctly.
func (m YearMonth) index() int {
	return m.Year*12 + int(m.Month) - 1
}

// AddMonths advances the month by n, rolling over years (December + 1 is
// January of the next year). Negative n moves backwards.
func (m YearMonth) AddMonths(n int) YearMonth {
	i := m.index() + n
	year, rem := i/12, i%12
	if rem < 0 {
		year--
		rem += 12
	}
	return YearMonth{Year: year, Month: time.Month(rem + 1)}
}

// Next returns the following calendar month.
func (m YearMonth) Next() YearMonth { return m.AddMonths(1) }

// Prev returns the preceding calendar month.
func (m YearMonth) Prev() YearMonth { return m.AddMonths(-1) }

// Before reports whether m is strictly earlier than o.
func (m YearMonth) Before(o YearMonth) bool { return m.index() < o.index() }

// After reports whether m is strictly later than o.
func (m YearMonth) After(o YearMonth) bool { return m.index() > o.index() }

// Compare orders two months: -1 when m is earlier, 0 when equal, 1 when later.
func (m YearMonth) Compare(o YearMonth) int {
	switch {
	case m.index() < o.index():
		return -1
	case m.index() > o.index():
		return 1
	default:
		return 0
	}
}

// Date is a calendar day. It wraps time.Time so date arithmetic follows
// the standard library's normalization rules.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// AddMonths advances the date by n calendar months. Day-of-month overflow
// follows time.AddDate semantics (Jan 31 + 1 month normalizes into March).
func (d Date) AddMonths(n int) Date {
	return Date{Time: d.Time.AddDate(0, n, 0)}
}

// YearMonth returns the calendar month containing the date.
func (d Date) YearMonth() YearMonth {
	return YearMonthOf(d.Time)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

// Validate rejects the zero date.
func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}
