package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"attendance-sync/internal/models"
)

// Client 设备注册 API 客户端
// 进程启动时拉取要轮询的终端列表；列表为空或拉取失败时由 Runner
// 空转等待并在下个周期重试，不会退出。
type Client struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewClient 创建注册 API 客户端
func NewClient(url string, timeout time.Duration, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: httpClient,
		url:        url,
		logger:     logger,
	}
}

// FetchDevices 拉取设备列表
func (c *Client) FetchDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&devices).
		Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch device registry: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("device registry returned status %d", resp.StatusCode())
	}

	c.logger.Info("Fetched device registry",
		zap.Int("device_count", len(devices)),
	)
	return devices, nil
}
