package checkpoint

import (
	"context"
	"time"

	"attendance-sync/internal/timeutil"
)

// DefaultLookback 没有可用检查点时回溯的时间
const DefaultLookback = 24 * time.Hour

// Store 检查点存储（每台设备一条记录）
//
// Load 永远返回一个可用的检查点：存储缺失、读取失败或内容损坏时
// 回退到 now-24h 并记日志，同步流程自愈而不是中断。
// Save 的失败由调用方决定如何处理（下个周期会重查同一窗口，重复
// 数据由归并和后端幂等 upsert 吸收）。
type Store interface {
	Load(ctx context.Context, deviceID string) time.Time
	Save(ctx context.Context, deviceID string, cp time.Time) error
}

func defaultCheckpoint() time.Time {
	return timeutil.Now().Add(-DefaultLookback)
}
