package util

import "time"

// LongDateLayout renders dates the way booking slots and deliveries display them.
const LongDateLayout = "January 02, 2006"

// FormatLongDate formats t using LongDateLayout.
func FormatLongDate(t time.Time) string {
	return t.Format(LongDateLayout)
}
