package utils

import "time"

// Millis converts a time to milliseconds since the Unix epoch; zero stays zero
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
