package model

import (
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a civil calendar date stored as YYYY-MM-DD. The zero value means "never".
type Date string

// DateIn returns the calendar date of t as observed in loc.
func DateIn(t time.Time, loc *time.Location) Date {
	return Date(t.In(loc).Format(dateLayout))
}

// AddDays shifts d by n calendar days. The zero Date stays zero.
func (d Date) AddDays(n int) Date {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return ""
	}
	return Date(t.AddDate(0, 0, n).Format(dateLayout))
}

func (d Date) IsZero() bool { return d == "" }

func (d Date) String() string { return string(d) }

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
