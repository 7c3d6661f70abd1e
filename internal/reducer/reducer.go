package reducer

import (
	"sort"
	"time"

	"attendance-sync/internal/models"
	"attendance-sync/internal/timeutil"
)

// Reduce 把原始事件压缩为 (日期, 工号) -> [首条, 末条]
//
// 纯函数，无 I/O。输入的到达顺序不可信：子窗口和过滤器的查询结果是
// 拼接的，所以先按事件时间稳定排序再分组。每组只保留时间最早和最晚
// 的事件，组内只有一条时不重复。没有工号的事件（终端混在同一流里的
// 系统/匿名事件）和时间无法解析的事件直接丢弃。
func Reduce(events []models.AcsEvent) models.DailyRecords {
	type timedEvent struct {
		event models.AcsEvent
		at    time.Time
	}

	timed := make([]timedEvent, 0, len(events))
	for _, ev := range events {
		if ev.EmployeeNo == "" {
			continue
		}
		at, err := timeutil.Parse(ev.Time)
		if err != nil {
			continue
		}
		timed = append(timed, timedEvent{event: ev, at: at})
	}

	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].at.Before(timed[j].at)
	})

	records := make(models.DailyRecords)
	for _, te := range timed {
		date := te.at.Format(timeutil.DateLayout)
		byEmployee, ok := records[date]
		if !ok {
			byEmployee = make(map[string][]models.AcsEvent)
			records[date] = byEmployee
		}
		byEmployee[te.event.EmployeeNo] = append(byEmployee[te.event.EmployeeNo], te.event)
	}

	// 每组收缩为首条/末条
	for _, byEmployee := range records {
		for employeeNo, group := range byEmployee {
			if len(group) > 2 {
				byEmployee[employeeNo] = []models.AcsEvent{group[0], group[len(group)-1]}
			}
		}
	}
	return records
}
