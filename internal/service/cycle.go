package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"attendance-sync/internal/models"
	"attendance-sync/internal/reducer"
	"attendance-sync/internal/timeutil"
)

// runCycle 一台设备的一个同步周期
//
// 检查点只在上报确认成功后推进，且推进到周期开始时刻 T0 而不是完成
// 时刻：原始事件不在本地落盘，上报失败后推进检查点等于丢数据；用 T0
// 则周期耗时再长也不会在窗口里留缝。
func (s *SyncService) runCycle(ctx context.Context, dev models.Device) error {
	t0 := s.now()
	cp := s.store.Load(ctx, dev.Key())

	if !cp.Before(t0) {
		s.logger.Debug("Checkpoint is up to date, nothing to sync",
			zap.String("device_id", dev.Key()),
			zap.String("checkpoint", timeutil.Format(cp)),
		)
		return nil
	}

	window := models.SyncWindow{Start: cp, End: t0}
	events, err := s.fetcher.FetchEvents(ctx, dev, window)
	if err != nil {
		return fmt.Errorf("querying: %w", err)
	}

	// 空结果集是正常结果：照常上报并推进检查点
	records := reducer.Reduce(events)

	if err := s.forwarder.Forward(ctx, dev, records); err != nil {
		return fmt.Errorf("forwarding: %w", err)
	}

	next := timeutil.Floor(t0, s.config.Sync.CheckpointGranularity)
	if next.Before(cp) {
		// 取整不允许把检查点往回拨
		next = cp
	}
	if err := s.store.Save(ctx, dev.Key(), next); err != nil {
		// 保存失败不算周期失败：下个周期重查同一窗口，由归并和
		// 后端幂等 upsert 吸收重复
		s.logger.Warn("Failed to save checkpoint, window will be re-queried",
			zap.String("device_id", dev.Key()),
			zap.Error(err),
		)
		return nil
	}

	s.logger.Info("Sync cycle completed",
		zap.String("device_id", dev.Key()),
		zap.String("window_start", timeutil.Format(window.Start)),
		zap.String("window_end", timeutil.Format(window.End)),
		zap.Int("event_count", len(events)),
		zap.Int("entry_count", records.EntryCount()),
		zap.String("checkpoint", timeutil.Format(next)),
	)
	return nil
}
