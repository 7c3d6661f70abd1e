package device

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"attendance-sync/internal/config"
	"attendance-sync/internal/models"
	"attendance-sync/internal/timeutil"
)

const (
	searchPath = "/ISAPI/AccessControl/AcsEvent?format=json"

	// eventAttribute 固定请求考勤属性的事件
	eventAttribute = "attendance"

	// statusMore 设备分页响应：还有更多结果
	statusMore = "MORE"
)

// acsEventCond ISAPI 事件查询条件
type acsEventCond struct {
	SearchID             string `json:"searchID"`
	SearchResultPosition int    `json:"searchResultPosition"`
	MaxResults           int    `json:"maxResults"`
	Major                int    `json:"major"`
	Minor                int    `json:"minor,omitempty"`
	StartTime            string `json:"startTime"`
	EndTime              string `json:"endTime"`
	EventAttribute       string `json:"eventAttribute"`
}

// acsEventRequest ISAPI 事件查询请求体
type acsEventRequest struct {
	AcsEventCond acsEventCond `json:"AcsEventCond"`
}

// acsEventResult ISAPI 事件查询响应体
type acsEventResult struct {
	AcsEvent struct {
		SearchID           string            `json:"searchID"`
		ResponseStatusStrg string            `json:"responseStatusStrg"`
		NumOfMatches       int               `json:"numOfMatches"`
		TotalMatches       int               `json:"totalMatches"`
		InfoList           []models.AcsEvent `json:"InfoList"`
	} `json:"AcsEvent"`
}

// Client 考勤终端查询客户端
//
// 终端单次查询的时间跨度和结果数都有上限，而且一次只能带一组类别
// 条件，所以一个同步窗口展开为 子窗口 x 过滤器 的多次查询，每次查询
// 内部再按 searchResultPosition 翻页。任何一次查询失败都中止整台设备
// 本周期的抓取：窗口没有被完整覆盖之前绝不能推进检查点。
//
// 过滤器集合允许重叠（如 5:* 包含 5:38），同一条物理事件会被多个
// 查询命中，拼接前按事件标识去重，保证一次刷卡只产出一条事件。
type Client struct {
	filters    []models.EventFilter
	slice      time.Duration
	maxResults int
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient 创建设备客户端
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		filters:    cfg.Sync.Filters,
		slice:      time.Duration(cfg.Sync.SliceMinutes) * time.Minute,
		maxResults: cfg.Sync.MaxResults,
		timeout:    time.Duration(cfg.Sync.DeviceTimeout) * time.Second,
		logger:     logger,
	}
}

// FetchEvents 抓取窗口内的全部考勤事件
// 空窗口属于调用方的职责（now <= checkpoint 时应跳过本周期），传进来
// 说明检查点不变式被破坏，按错误处理而不是静默返回。
func (c *Client) FetchEvents(ctx context.Context, device models.Device, window models.SyncWindow) ([]models.AcsEvent, error) {
	if window.IsEmpty() {
		return nil, fmt.Errorf("device %s: invalid sync window [%s, %s)",
			device.Key(), timeutil.Format(window.Start), timeutil.Format(window.End))
	}

	// 设备走 HTTP digest 认证，凭据按设备维度配置
	httpClient := resty.New().
		SetBaseURL("http://" + device.Address).
		SetTimeout(c.timeout).
		SetDigestAuth(device.Username, device.Password).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	var events []models.AcsEvent
	seen := make(map[string]struct{})
	queries := 0
	for _, sub := range SliceWindow(window.Start, window.End, c.slice) {
		for _, filter := range c.filters {
			batch, err := c.searchEvents(ctx, httpClient, sub, filter)
			if err != nil {
				return nil, fmt.Errorf("device %s: query %s [%s, %s): %w",
					device.Key(), filter, timeutil.Format(sub.Start), timeutil.Format(sub.End), err)
			}
			for _, ev := range batch {
				key := dedupKey(ev)
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				events = append(events, ev)
			}
			queries++
		}
	}

	c.logger.Debug("Fetched events from device",
		zap.String("device_id", device.Key()),
		zap.String("window_start", timeutil.Format(window.Start)),
		zap.String("window_end", timeutil.Format(window.End)),
		zap.Int("queries", queries),
		zap.Int("event_count", len(events)),
	)
	return events, nil
}

// dedupKey 事件的去重标识
// 优先用设备事件流水号，固件不回报流水号时退回组合键
func dedupKey(ev models.AcsEvent) string {
	if ev.SerialNo != 0 {
		return strconv.Itoa(ev.SerialNo)
	}
	return fmt.Sprintf("%s|%s|%d|%d|%s", ev.Time, ev.EmployeeNo, ev.Major, ev.Minor, ev.CardNo)
}

// searchEvents 一个子窗口、一组类别条件的完整查询（含翻页）
func (c *Client) searchEvents(ctx context.Context, httpClient *resty.Client, window models.SyncWindow, filter models.EventFilter) ([]models.AcsEvent, error) {
	searchID := uuid.NewString()
	position := 0

	var matched []models.AcsEvent
	for {
		cond := acsEventCond{
			SearchID:             searchID,
			SearchResultPosition: position,
			MaxResults:           c.maxResults,
			Major:                filter.Major,
			StartTime:            timeutil.Format(window.Start),
			EndTime:              timeutil.Format(window.End),
			EventAttribute:       eventAttribute,
		}
		if filter.Minor != models.AnyMinor {
			cond.Minor = filter.Minor
		}

		var result acsEventResult
		resp, err := httpClient.R().
			SetContext(ctx).
			SetBody(acsEventRequest{AcsEventCond: cond}).
			SetResult(&result).
			Post(searchPath)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("device returned status %d", resp.StatusCode())
		}

		// 固件对类别过滤并不可靠，返回结果逐条复核
		for _, ev := range result.AcsEvent.InfoList {
			if filter.Matches(ev) {
				matched = append(matched, ev)
			}
		}

		page := len(result.AcsEvent.InfoList)
		if result.AcsEvent.ResponseStatusStrg != statusMore || page == 0 {
			break
		}
		position += page
	}
	return matched, nil
}
