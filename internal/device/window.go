package device

import (
	"time"

	"attendance-sync/internal/models"
)

// SliceWindow 将 [start, end) 切分为首尾相接的子窗口
// 终端对单次查询的时间跨度和结果数都有上限，完整窗口必须分片查询。
// 切片正好铺满原窗口：无空洞、无重叠，最后一片截断到 end。
func SliceWindow(start, end time.Time, slice time.Duration) []models.SyncWindow {
	if !start.Before(end) {
		return nil
	}
	if slice <= 0 {
		return []models.SyncWindow{{Start: start, End: end}}
	}

	var windows []models.SyncWindow
	for cur := start; cur.Before(end); {
		next := cur.Add(slice)
		if next.After(end) {
			next = end
		}
		windows = append(windows, models.SyncWindow{Start: cur, End: next})
		cur = next
	}
	return windows
}
