package storage

import (
	"fmt"
	"time"
)

// dateLayout is the calendar day format used in log rows and query
// parameters.
const dateLayout = "2006-01-02"

// Date is a calendar day in ISO 8601 form (YYYY-MM-DD).
type Date string

// Today returns the current day in local time.
func Today() Date {
	return Date(time.Now().Format(dateLayout))
}

// ParseDate validates and normalizes a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return Date(t.Format(dateLayout)), nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == ""
}

// Validate checks that the date is a well-formed YYYY-MM-DD day.
func (d Date) Validate() error {
	_, err := ParseDate(string(d))
	return err
}

func (d Date) String() string {
	return string(d)
}
