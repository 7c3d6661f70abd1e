package timeutil

import "time"

// Location 终端与检查点统一使用的固定时区（UTC+05:45）
var Location = time.FixedZone("UTC+05:45", 5*3600+45*60)

// Layout 检查点与设备时间的文本格式，如 2024-01-02T09:30:00+05:45
const Layout = "2006-01-02T15:04:05-07:00"

// DateLayout 日期部分
const DateLayout = "2006-01-02"

// Granularity 检查点取整粒度
type Granularity string

const (
	GranularityExact Granularity = "exact"
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
)

// Valid 是否为已知粒度
func (g Granularity) Valid() bool {
	switch g {
	case GranularityExact, GranularityHour, GranularityDay:
		return true
	}
	return false
}

// Now 当前时间（固定时区）
func Now() time.Time {
	return time.Now().In(Location)
}

// Format 按统一格式输出
func Format(t time.Time) string {
	return t.In(Location).Format(Layout)
}

// Parse 解析统一格式的时间文本
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(Location), nil
}

// Floor 按粒度向下取整
// time.Truncate 以 UTC 为基准，对 +05:45 时区整点会偏移 45 分钟，这里按本地历法取整
func Floor(t time.Time, g Granularity) time.Time {
	t = t.In(Location)
	switch g {
	case GranularityHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, Location)
	case GranularityDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
	default:
		return t
	}
}
