package utils

import (
	"fmt"
	"time"
)

// NowNano returns the current time as nanoseconds since Unix epoch.
func NowNano() int64 {
	return time.Now().UnixNano()
}

// NanoToTime converts a nanosecond Unix timestamp back to time.Time.
func NanoToTime(ns int64) time.Time {
	return time.Unix(0, ns)
}

// FormatTimestamp converts ns-epoch to the RFC 3339 form stored alongside
// exported runs.
func FormatTimestamp(ns int64) string {
	return NanoToTime(ns).UTC().Format(time.RFC3339Nano)
}

// Elapsed renders the wall time since startNs, rounded to milliseconds.
func Elapsed(startNs int64) string {
	return fmt.Sprint(time.Duration(NowNano() - startNs).Round(time.Millisecond))
}
