// Package timeutil provides time helpers for the platform's China Standard
// Time (UTC+8) and its millisecond timestamps.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// ChinaTZ is China Standard Time (UTC+8, no DST).
var ChinaTZ = time.FixedZone("Asia/Shanghai", 8*60*60)

// ManualEndLabel is shown for activities the teacher ends by hand.
const ManualEndLabel = "教师手动结束"

// DateTimeLayout is the layout used in user-facing output.
const DateTimeLayout = "2006-01-02 15:04"

// nowFunc is swapped in tests.
var nowFunc = time.Now

// Now returns the current time in China Standard Time.
func Now() time.Time {
	return nowFunc().In(ChinaTZ)
}

// ToChina converts a time to China Standard Time.
func ToChina(t time.Time) time.Time {
	return t.In(ChinaTZ)
}

// NowMillis returns the current Unix time in milliseconds, as the platform
// expects in its cache-busting t= and _= parameters.
func NowMillis() int64 {
	return nowFunc().UnixMilli()
}

// FromMillis converts a platform millisecond timestamp to China Standard Time.
// Zero maps to the zero time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).In(ChinaTZ)
}

// ToMillis is the inverse of FromMillis.
func ToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// Format formats t in China Standard Time.
func Format(t time.Time) string {
	return ToChina(t).Format(DateTimeLayout)
}

// FormatWindow renders an activity's time window. A nil end means the
// activity has no scheduled end.
func FormatWindow(start time.Time, end *time.Time) string {
	if end == nil {
		return fmt.Sprintf("%s ~ %s", Format(start), ManualEndLabel)
	}
	return fmt.Sprintf("%s ~ %s", Format(start), Format(*end))
}

// Remaining returns how long until end, or zero when it has passed or is nil.
func Remaining(end *time.Time) time.Duration {
	if end == nil {
		return 0
	}
	d := end.Sub(nowFunc())
	if d < 0 {
		return 0
	}
	return d
}

// IsSameDay checks if two times are on the same calendar day in China.
func IsSameDay(t1, t2 time.Time) bool {
	a, b := ToChina(t1), ToChina(t2)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
