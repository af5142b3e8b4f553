package common

import (
	"fmt"
	"time"
)

// Date is a calendar date stored as days since the Unix epoch. The date
// columns store these as int32 vectors; DateNull marks an absent value.
type Date int32

// DateNull marks an absent date. It sorts before every real date.
const DateNull = Date(-1 << 31)

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return DateNull, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date(t.Unix() / 86400), nil
}

// String formats the date as ISO YYYY-MM-DD. The null date formats as the
// empty string.
func (d Date) String() string {
	if d == DateNull {
		return ""
	}
	return time.Unix(int64(d)*86400, 0).UTC().Format(time.DateOnly)
}

// IsNull reports whether the date is absent.
func (d Date) IsNull() bool { return d == DateNull }
