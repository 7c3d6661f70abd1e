package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUsesFixedOffset(t *testing.T) {
	ts := time.Date(2024, 1, 2, 9, 30, 15, 0, Location)
	assert.Equal(t, "2024-01-02T09:30:15+05:45", Format(ts))

	// 其他时区的时间也要换算到 +05:45 再输出
	utc := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-02T05:45:00+05:45", Format(utc))
}

func TestParseRoundTrip(t *testing.T) {
	ts := time.Date(2024, 1, 2, 9, 30, 15, 0, Location)

	parsed, err := Parse(Format(ts))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(ts))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("not-a-timestamp")
	assert.Error(t, err)

	_, err = Parse("2024-01-02")
	assert.Error(t, err)
}

func TestFloor(t *testing.T) {
	ts := time.Date(2024, 1, 2, 9, 30, 15, 0, Location)

	assert.True(t, Floor(ts, GranularityExact).Equal(ts))
	assert.True(t, Floor(ts, GranularityHour).Equal(time.Date(2024, 1, 2, 9, 0, 0, 0, Location)))
	assert.True(t, Floor(ts, GranularityDay).Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, Location)))
}

func TestFloorHourKeepsLocalBoundary(t *testing.T) {
	// +05:45 时区下 time.Truncate(time.Hour) 会落在 :15/:45，Floor 必须落在本地整点
	ts := time.Date(2024, 1, 2, 9, 10, 0, 0, Location)
	floored := Floor(ts, GranularityHour)
	assert.Equal(t, 0, floored.Minute())
	assert.Equal(t, 0, floored.Second())
	assert.Equal(t, 9, floored.Hour())
}

func TestGranularityValid(t *testing.T) {
	assert.True(t, GranularityExact.Valid())
	assert.True(t, GranularityHour.Valid())
	assert.True(t, GranularityDay.Valid())
	assert.False(t, Granularity("minute").Valid())
}
