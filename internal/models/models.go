package models

import (
	"fmt"
	"time"
)

// Device 考勤终端描述（来自设备注册 API）
// 字段名与注册 API 的 JSON 保持一致
type Device struct {
	DeviceID string `json:"device_id"`
	Address  string `json:"device_ip"`
	Username string `json:"device_user_name"`
	Password string `json:"device_password"`
	TenantID string `json:"tenant_id"`
}

// Key 返回设备的唯一标识（注册 API 未提供 device_id 时回退到 IP）
func (d Device) Key() string {
	if d.DeviceID != "" {
		return d.DeviceID
	}
	return d.Address
}

// AcsEvent 终端上报的一条门禁事件
// 字段名与设备 ISAPI 响应的 InfoList 保持一致，Time 保留设备原始字符串
type AcsEvent struct {
	Major      int    `json:"major"`
	Minor      int    `json:"minor"`
	Time       string `json:"time"`
	EmployeeNo string `json:"employeeNoString,omitempty"`
	Name       string `json:"name,omitempty"`
	CardNo     string `json:"cardNo,omitempty"`
	SerialNo   int    `json:"serialNo,omitempty"`
}

// DailyRecords 压缩后的考勤记录
// 日期（2006-01-02）-> 工号 -> 当天首条/末条事件（只有一条时不重复）
type DailyRecords map[string]map[string][]AcsEvent

// EntryCount 返回 (日期, 工号) 分组总数
func (r DailyRecords) EntryCount() int {
	n := 0
	for _, byEmployee := range r {
		n += len(byEmployee)
	}
	return n
}

// SyncWindow 一次设备查询的时间窗口 [Start, End)
type SyncWindow struct {
	Start time.Time
	End   time.Time
}

// IsEmpty 窗口为空（Start >= End）
func (w SyncWindow) IsEmpty() bool {
	return !w.Start.Before(w.End)
}

// AnyMinor 表示过滤器不限定 minor 码
const AnyMinor = -1

// EventFilter 事件类别过滤器（major/minor 码对）
// 终端一次查询只能带一组类别条件，所以每个子窗口按过滤器逐个查询
type EventFilter struct {
	Major int
	Minor int
}

// Matches 事件是否命中过滤器
// 设备固件对 minor 过滤并不可靠，返回结果需要再校验一次
func (f EventFilter) Matches(e AcsEvent) bool {
	if e.Major != f.Major {
		return false
	}
	return f.Minor == AnyMinor || e.Minor == f.Minor
}

func (f EventFilter) String() string {
	if f.Minor == AnyMinor {
		return fmt.Sprintf("%d:*", f.Major)
	}
	return fmt.Sprintf("%d:%d", f.Major, f.Minor)
}
