package forwarder

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"attendance-sync/internal/models"
)

// Payload 上报给后端的单周期数据
// 后端按 (tenant, device, 日期, 工号) 幂等 upsert，重复投递是安全的
type Payload struct {
	TenantID   string              `json:"tenant_id"`
	DeviceID   string              `json:"device_id"`
	Attendance models.DailyRecords `json:"attendance"`
}

// Forwarder 后端上报客户端
// 一次上报一个请求，只有 2xx 应答算成功。这里不做任何内部重试：
// 失败的周期由 Runner 的下一个 tick 重试，检查点不会推进。
type Forwarder struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// New 创建上报客户端
func New(url string, timeout time.Duration, logger *zap.Logger) *Forwarder {
	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Forwarder{
		httpClient: httpClient,
		url:        url,
		logger:     logger,
	}
}

// Forward 上报一台设备的压缩考勤记录（空记录集也上报）
func (f *Forwarder) Forward(ctx context.Context, device models.Device, records models.DailyRecords) error {
	payload := Payload{
		TenantID:   device.TenantID,
		DeviceID:   device.Key(),
		Attendance: records,
	}

	resp, err := f.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post(f.url)
	if err != nil {
		return fmt.Errorf("failed to forward attendance records: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("backend returned status %d", resp.StatusCode())
	}

	f.logger.Info("Forwarded attendance records",
		zap.String("device_id", device.Key()),
		zap.String("tenant_id", device.TenantID),
		zap.Int("day_count", len(records)),
		zap.Int("entry_count", records.EntryCount()),
	)
	return nil
}
