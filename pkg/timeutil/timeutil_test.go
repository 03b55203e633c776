package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromMillis(t *testing.T) {
	got := FromMillis(1709251200000)
	assert.Equal(t, ChinaTZ, got.Location())
	assert.Equal(t, "2024-03-01 08:00", got.Format(DateTimeLayout))
	assert.True(t, FromMillis(0).IsZero())
	assert.Equal(t, int64(1709251200000), ToMillis(got))
	assert.Equal(t, int64(0), ToMillis(time.Time{}))
}

func TestFormatWindow(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	assert.Equal(t, "2024-03-01 08:00 ~ 2024-03-01 09:30", FormatWindow(start, &end))
	assert.Equal(t, "2024-03-01 08:00 ~ 教师手动结束", FormatWindow(start, nil))
}

func TestNowMillisAndRemaining(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return fixed }
	defer func() { nowFunc = time.Now }()

	assert.Equal(t, fixed.UnixMilli(), NowMillis())

	end := fixed.Add(5 * time.Minute)
	assert.Equal(t, 5*time.Minute, Remaining(&end))
	past := fixed.Add(-time.Minute)
	assert.Equal(t, time.Duration(0), Remaining(&past))
	assert.Equal(t, time.Duration(0), Remaining(nil))
}

func TestIsSameDay(t *testing.T) {
	// 23:30 UTC is already the next day in China
	a := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	b := time.Date(2024, 3, 2, 1, 0, 0, 0, ChinaTZ)
	assert.True(t, IsSameDay(a, b))
}
